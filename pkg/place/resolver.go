package place

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"locpulse/pkg/config"
	"locpulse/pkg/request"
)

// Resolver turns coordinates into a short human-readable place name via a
// reverse-geocoding service. Resolution is cosmetic: it degrades to the
// fallback label and never blocks a notification dispatch with an error.
type Resolver struct {
	client   *request.Client
	endpoint string
	language string
	fallback string
}

// NewResolver creates a resolver against the configured endpoint.
func NewResolver(client *request.Client, cfg config.ResolverConfig) *Resolver {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://nominatim.openstreetmap.org/reverse"
	}
	fallback := cfg.Fallback
	if fallback == "" {
		fallback = "Unknown location"
	}
	return &Resolver{
		client:   client,
		endpoint: endpoint,
		language: cfg.Language,
		fallback: fallback,
	}
}

// reverseResponse matches the Nominatim reverse geocode payload. Both
// display_name and address may be absent; we tolerate either.
type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Village  string `json:"village"`
		Town     string `json:"town"`
		City     string `json:"city"`
		Suburb   string `json:"suburb"`
		District string `json:"district"`
		State    string `json:"state"`
		Postcode string `json:"postcode"`
		Country  string `json:"country"`
	} `json:"address"`
}

// Resolve returns a place name for the coordinates, or the fallback label on
// any failure.
func (r *Resolver) Resolve(ctx context.Context, lat, lng float64) string {
	u := fmt.Sprintf("%s?format=jsonv2&lat=%s&lon=%s",
		r.endpoint,
		url.QueryEscape(fmt.Sprintf("%.7f", lat)),
		url.QueryEscape(fmt.Sprintf("%.7f", lng)))
	if r.language != "" {
		u += "&accept-language=" + url.QueryEscape(r.language)
	}

	// Cache on coordinates rounded to ~10m so a stationary device resolves once.
	cacheKey := fmt.Sprintf("revgeo:%.4f:%.4f:%s", lat, lng, r.language)

	body, err := r.client.Get(ctx, u, cacheKey)
	if err != nil {
		slog.Warn("Reverse geocode failed", "lat", lat, "lng", lng, "error", err)
		return r.fallback
	}

	var resp reverseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Warn("Reverse geocode returned malformed JSON", "error", err)
		return r.fallback
	}

	if resp.DisplayName != "" {
		return resp.DisplayName
	}

	parts := make([]string, 0, 6)
	for _, p := range []string{
		firstNonEmpty(resp.Address.Village, resp.Address.Town, resp.Address.City),
		resp.Address.Suburb,
		resp.Address.District,
		resp.Address.State,
		resp.Address.Postcode,
		resp.Address.Country,
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return r.fallback
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
