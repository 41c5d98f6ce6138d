package bridge

import (
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// BrowserOpener opens pages in the OS default browser. It is the click
// route of last resort, used when no page client is connected.
type BrowserOpener struct {
	baseURL string
	launch  func(name string, args ...string) error
}

// NewBrowserOpener creates an opener resolving relative paths against
// baseURL.
func NewBrowserOpener(baseURL string) *BrowserOpener {
	return &BrowserOpener{
		baseURL: strings.TrimRight(baseURL, "/"),
		launch: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

// OpenWindow opens url in the default browser. A leading-slash path is
// resolved against the configured base URL.
func (o *BrowserOpener) OpenWindow(url string) error {
	if strings.HasPrefix(url, "/") {
		url = o.baseURL + url
	}
	slog.Info("Opening browser window", "url", url)

	switch runtime.GOOS {
	case "darwin":
		return o.launch("open", url)
	case "windows":
		return o.launch("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return o.launch("xdg-open", url)
	}
}
