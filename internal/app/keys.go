package app

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/zjrosen/instadash/internal/ui/help"
)

type keyMap struct {
	NextFocus key.Binding
	PrevFocus key.Binding
	Generate  key.Binding
	Upload    key.Binding
	Example   key.Binding
	Editor    key.Binding
	TempDown  key.Binding
	TempUp    key.Binding
	Copy      key.Binding
	Download  key.Binding
	Preview   key.Binding
	Help      key.Binding
	Close     key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextFocus: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		PrevFocus: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		Generate:  key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "generate dashboard")),
		Upload:    key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "upload a .json file")),
		Example:   key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "load example data and prompt")),
		Editor:    key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "edit field in $EDITOR")),
		TempDown:  key.NewBinding(key.WithKeys("left", "-", "h"), key.WithHelp("←/-", "lower temperature")),
		TempUp:    key.NewBinding(key.WithKeys("right", "+", "=", "l"), key.WithHelp("→/+", "raise temperature")),
		Copy:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy HTML to clipboard")),
		Download:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "download HTML")),
		Preview:   key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "open preview in browser")),
		Help:      key.NewBinding(key.WithKeys("f1", "?"), key.WithHelp("f1/?", "toggle help")),
		Close:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close dialog")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp implements help.KeyMap for the status bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Generate, k.Upload, k.Copy, k.Download, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextFocus, k.PrevFocus, k.Editor, k.TempDown, k.TempUp},
		{k.Generate, k.Upload, k.Example},
		{k.Copy, k.Download, k.Preview},
		{k.Help, k.Close, k.Quit},
	}
}

func (k keyMap) sections() []help.Section {
	full := k.FullHelp()
	return []help.Section{
		{Title: "Editing", Bindings: full[0]},
		{Title: "Generating", Bindings: full[1]},
		{Title: "Exporting", Bindings: full[2]},
		{Title: "General", Bindings: full[3]},
	}
}

const helpIntro = "Paste or upload JSON data, describe the dashboard you want, " +
	"and press **ctrl+g**. Dropping a `.json` file onto the terminal loads it. " +
	"The result opens in a sandboxed browser preview where its scripts never run."
