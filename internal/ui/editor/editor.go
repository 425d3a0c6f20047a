// Package editor opens $VISUAL or $EDITOR on a temp file and returns the
// edited text to the Bubble Tea program.
package editor

import (
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Target says which form field is being edited. It also picks the temp
// file extension so editors enable the right syntax mode.
type Target int

const (
	TargetJSON Target = iota
	TargetPrompt
)

func (t Target) pattern() string {
	if t == TargetJSON {
		return "instadash-data-*.json"
	}
	return "instadash-prompt-*.md"
}

// FinishedMsg carries the edited text once the editor exits.
type FinishedMsg struct {
	Target  Target
	Content string
	Err     error
}

// ExecMsg asks the parent to suspend the UI and run the editor via ExecCmd.
type ExecMsg struct {
	target  Target
	cmd     *exec.Cmd
	tmpPath string
}

// Editor resolves the editor command: VISUAL, then EDITOR, then vi.
func Editor() string {
	if e := os.Getenv("VISUAL"); e != "" {
		return e
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return "vi"
}

// OpenCmd writes content to a temp file and returns an ExecMsg for it.
func OpenCmd(target Target, content string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.CreateTemp("", target.pattern())
		if err != nil {
			return FinishedMsg{Target: target, Err: err}
		}
		path := f.Name()

		if _, err := f.WriteString(content); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return FinishedMsg{Target: target, Err: err}
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return FinishedMsg{Target: target, Err: err}
		}

		// #nosec G204 -- editor comes from VISUAL/EDITOR or is "vi"
		return ExecMsg{target: target, cmd: exec.Command(Editor(), path), tmpPath: path}
	}
}

// ExecCmd runs the editor and reads the file back, removing it afterwards.
func (msg ExecMsg) ExecCmd() tea.Cmd {
	return tea.ExecProcess(msg.cmd, func(err error) tea.Msg {
		return msg.finish(err)
	})
}

func (msg ExecMsg) finish(runErr error) FinishedMsg {
	defer func() { _ = os.Remove(msg.tmpPath) }()

	if runErr != nil {
		return FinishedMsg{Target: msg.target, Err: runErr}
	}
	content, err := os.ReadFile(msg.tmpPath)
	if err != nil {
		return FinishedMsg{Target: msg.target, Err: err}
	}
	// Editors append a final newline on save.
	return FinishedMsg{Target: msg.target, Content: strings.TrimRight(string(content), "\n")}
}
