package preview

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/zjrosen/instadash/internal/log"
)

// OpenBrowser asks the desktop to open url without waiting for it.
func OpenBrowser(url string) error {
	var name string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "linux", "freebsd", "openbsd":
		name = "xdg-open"
	case "windows":
		name = "rundll32"
		args = []string{"url.dll,FileProtocolHandler"}
	default:
		return fmt.Errorf("unsupported OS for auto-open: %s", runtime.GOOS)
	}

	// #nosec G204 -- command is fixed per OS
	cmd := exec.Command(name, append(args, url)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}
	log.SafeGo("preview.browser", func() {
		_ = cmd.Wait()
	})
	return nil
}
