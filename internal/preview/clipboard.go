package preview

import (
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Clipboard places text on the system clipboard.
type Clipboard interface {
	Copy(text string) error
}

// clipboardMethod is how SystemClipboard delivers text.
type clipboardMethod int

const (
	methodNative clipboardMethod = iota
	methodOSC52
)

// SystemClipboard writes to the user's clipboard. Over SSH and inside GNU
// screen it emits an OSC 52 sequence to the controlling terminal; locally it
// shells out to pbcopy, wl-copy, or xclip.
type SystemClipboard struct {
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// TTY is where OSC 52 sequences are written. Defaults to /dev/tty.
	TTY string
}

// Copy copies text to the clipboard.
func (c SystemClipboard) Copy(text string) error {
	switch c.method() {
	case methodOSC52:
		return c.copyViaOSC52(text)
	default:
		return c.copyViaNative(text)
	}
}

func (c SystemClipboard) getenv(key string) string {
	if c.Getenv != nil {
		return c.Getenv(key)
	}
	return os.Getenv(key)
}

// method picks the delivery path. A local tmux session can reach the native
// tools directly; remote sessions and screen cannot.
func (c SystemClipboard) method() clipboardMethod {
	remote := c.getenv("SSH_TTY") != "" ||
		c.getenv("SSH_CLIENT") != "" ||
		c.getenv("SSH_CONNECTION") != ""
	if remote || c.getenv("STY") != "" {
		return methodOSC52
	}
	return methodNative
}

// osc52Sequence builds the escape sequence, wrapped in a DCS passthrough
// when running under tmux.
func (c SystemClipboard) osc52Sequence(text string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	if c.getenv("TMUX") != "" {
		return fmt.Sprintf("\x1bPtmux;\x1b\x1b]52;c;%s\x07\x1b\\", encoded)
	}
	return fmt.Sprintf("\x1b]52;c;%s\x07", encoded)
}

func (c SystemClipboard) copyViaOSC52(text string) (err error) {
	path := c.TTY
	if path == "" {
		path = "/dev/tty"
	}
	// Bypass stdout so the sequence survives Bubble Tea's alt screen.
	tty, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if closeErr := tty.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = tty.WriteString(c.osc52Sequence(text))
	return err
}

func (c SystemClipboard) nativeCommand() (string, []string) {
	switch {
	case runtime.GOOS == "darwin":
		return "pbcopy", nil
	case c.getenv("WAYLAND_DISPLAY") != "":
		return "wl-copy", nil
	default:
		return "xclip", []string{"-selection", "clipboard"}
	}
}

func (c SystemClipboard) copyViaNative(text string) error {
	name, args := c.nativeCommand()
	// #nosec G204 -- command is one of a fixed set
	return pipeTo(exec.Command(name, args...), text)
}

// pipeTo starts cmd, writes text to its stdin, and always waits for it once
// started.
func pipeTo(cmd *exec.Cmd, text string) error {
	pipe, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", cmd.Path, err)
	}
	if _, err := pipe.Write([]byte(text)); err != nil {
		_ = pipe.Close()
		_ = cmd.Wait()
		return fmt.Errorf("writing to %s: %w", cmd.Path, err)
	}
	if err := pipe.Close(); err != nil {
		_ = cmd.Wait()
		return fmt.Errorf("closing %s stdin: %w", cmd.Path, err)
	}
	return cmd.Wait()
}
