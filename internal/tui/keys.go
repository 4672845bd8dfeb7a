package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists the bindings of the terminal keypad. It implements
// help.KeyMap.
type keyMap struct {
	Digit     key.Binding
	Decimal   key.Binding
	Operator  key.Binding
	Calculate key.Binding
	Erase     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Digit: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "digit"),
		),
		Decimal: key.NewBinding(
			key.WithKeys(".", ","),
			key.WithHelp(".", "decimal"),
		),
		Operator: key.NewBinding(
			key.WithKeys("+", "-", "x", "*", "/", "÷"),
			key.WithHelp("+ - x /", "operator"),
		),
		Calculate: key.NewBinding(
			key.WithKeys("=", "enter"),
			key.WithHelp("=", "calculate"),
		),
		Erase: key.NewBinding(
			key.WithKeys("c", "backspace"),
			key.WithHelp("c", "erase"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Calculate, k.Erase, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Digit, k.Decimal, k.Operator},
		{k.Calculate, k.Erase},
		{k.Help, k.Quit},
	}
}
