package browser

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Command returns the platform specific command that opens URL in the default browser.
// The URL is passed as a single argument; no shell is involved.
func Command(URL string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", URL)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", URL)
	default:
		return exec.Command("xdg-open", URL)
	}
}

// Open starts the system browser pointed at URL. It does not wait for the browser to exit.
func Open(ctx context.Context, URL string) error {
	parsed, err := url.Parse(URL)
	if err != nil {
		return fmt.Errorf("invalid browser URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported browser URL scheme: %q", parsed.Scheme)
	}
	cmd := Command(parsed.String())
	if err = cmd.Start(); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
