package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"locpulse/internal/api"
	"locpulse/pkg/bridge"
	"locpulse/pkg/config"
	"locpulse/pkg/core"
	"locpulse/pkg/db"
	"locpulse/pkg/detector"
	"locpulse/pkg/dispatcher"
	"locpulse/pkg/geo"
	"locpulse/pkg/logging"
	"locpulse/pkg/notify"
	"locpulse/pkg/place"
	"locpulse/pkg/probe"
	"locpulse/pkg/request"
	"locpulse/pkg/sampler"
	"locpulse/pkg/store"
	"locpulse/pkg/tracker"
	"locpulse/pkg/version"
)

var initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault("configs/locpulse.yaml"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated: configs/locpulse.yaml")
		return
	}

	if err := run(context.Background(), "configs/locpulse.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Secrets live in .env during development; absence is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env", "error", err)
	}

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("locpulse started", "version", version.Version)

	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbConn.Close()
	st := store.NewSQLiteStore(dbConn)

	if err := dbConn.PruneCache(7 * 24 * time.Hour); err != nil {
		slog.Warn("Cache pruning failed", "error", err)
	}

	tr := tracker.New()
	reqClient := request.New(st, tr, request.ClientConfig{
		Retries:   appCfg.Request.Retries,
		Timeout:   time.Duration(appCfg.Request.Timeout),
		BaseDelay: time.Duration(appCfg.Request.Backoff.BaseDelay),
		MaxDelay:  time.Duration(appCfg.Request.Backoff.MaxDelay),
	})
	resolver := place.NewResolver(reqClient, appCfg.Resolver)

	registry := bridge.NewRegistry()

	// Delivery channels, most capable first: platform push, in-page toast,
	// log of last resort.
	channels := []notify.Notifier{notify.NewToast(registry), notify.LogNotifier{}}
	if appCfg.Push.Enabled {
		channels = append([]notify.Notifier{notify.NewWebpushr(reqClient, appCfg.Push)}, channels...)
	}

	opener := bridge.NewBrowserOpener("http://" + appCfg.Server.Address)
	router := bridge.NewClickRouter(registry, opener, appCfg.Dispatch.TargetURL, appCfg.Dispatch.TargetTab)
	worker := bridge.NewWorker(channels[0], registry, router)
	go worker.Run(ctx)

	disp := dispatcher.New(st, tr, buildQuantizer(appCfg), channels, registry, dispatcher.Config{
		DedupCap:  appCfg.Dispatch.DedupCap,
		TargetURL: appCfg.Dispatch.TargetURL,
		TargetTab: appCfg.Dispatch.TargetTab,
	})
	det := detector.New(st, float64(appCfg.Detector.MinDistance))

	if err := runStartupChecks(ctx, st, appCfg); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	source, push := buildSource(appCfg)
	smp := sampler.New(source, time.Duration(appCfg.Sampler.PollInterval))
	go smp.Run(ctx)

	track := geo.NewTrack(appCfg.Sampler.TrackSize)
	pipeline := core.New(smp.Fixes(), det, resolver, disp, st, track)
	go pipeline.Run(ctx)

	return runServer(ctx, appCfg, st, tr, smp, push, track, registry, worker, router)
}

func runStartupChecks(ctx context.Context, st store.Store, cfg *config.Config) error {
	probes := []probe.Probe{
		{
			Name:     "storage",
			Critical: true,
			Check: func(ctx context.Context) error {
				if err := st.SetState(ctx, "startup_check", time.Now().Format(time.RFC3339)); err != nil {
					return err
				}
				return st.DeleteState(ctx, "startup_check")
			},
		},
		{
			Name: "push credentials",
			Check: func(context.Context) error {
				if cfg.Push.Enabled && (cfg.Push.Key == "" || cfg.Push.Token == "") {
					return fmt.Errorf("push enabled but WEBPUSHR_KEY/WEBPUSHR_TOKEN missing")
				}
				return nil
			},
		},
	}
	return probe.Run(ctx, probes)
}

// buildQuantizer selects the dedup bucketing scheme from config.
func buildQuantizer(cfg *config.Config) geo.Quantizer {
	switch cfg.Dispatch.Quantizer {
	case "cell":
		return geo.CellQuantizer{Resolution: cfg.Dispatch.CellRes}
	default:
		return geo.DecimalQuantizer{Precision: cfg.Dispatch.Precision}
	}
}

// buildSource selects the position source. The push source is returned
// separately so the report endpoint can feed it; nil for other sources.
func buildSource(cfg *config.Config) (sampler.Source, *sampler.PushSource) {
	switch cfg.Sampler.Source {
	case "mock":
		slog.Info("Using mock GPS source", "start_lat", cfg.Sampler.Mock.StartLat, "start_lng", cfg.Sampler.Mock.StartLng)
		return sampler.NewMockGPS(cfg.Sampler.Mock), nil
	default:
		push := sampler.NewPushSource()
		return push, push
	}
}

func runServer(ctx context.Context, cfg *config.Config, st store.Store, tr *tracker.Tracker, smp *sampler.Sampler, push *sampler.PushSource, track *geo.Track, registry *bridge.ClientRegistry, worker *bridge.Worker, router *bridge.ClickRouter) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address,
		api.NewLocationHandler(st, track, push, smp),
		api.NewTrackingHandler(smp),
		api.NewStatsHandler(tr, track),
		api.NewClickHandler(router),
		api.NewWSHandler(registry, worker),
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
