package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Submit    key.Binding
	Focus     key.Binding
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	Back      key.Binding
	Retry     key.Binding
	HistPrev  key.Binding
	HistNext  key.Binding
	Debug     key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "analyze")),
		Focus:     key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "prompt/results")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("j/k", "nav")),
		Down:      key.NewBinding(key.WithKeys("down", "j")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "posts")),
		Back:      key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Retry:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		HistPrev:  key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p/n", "history")),
		HistNext:  key.NewBinding(key.WithKeys("ctrl+n")),
		Debug:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}
