// Package tui is a terminal keypad driving one expression engine.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"countonme/internal/expression"
	"countonme/internal/keypad"
	"countonme/internal/messages"
)

const displayWidth = 31

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5A623")).Bold(true)
	displayStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(displayWidth).Align(lipgloss.Right)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	keyStyle      = lipgloss.NewStyle().Width(5).Align(lipgloss.Center).Border(lipgloss.NormalBorder())
	operatorStyle = keyStyle.Foreground(lipgloss.Color("#F5A623"))
	disabledStyle = keyStyle.Foreground(lipgloss.Color("#555555")).Faint(true)
)

// layout is the keypad as drawn on screen, row by row.
var layout = [][]keypad.Key{
	{keypad.Digit("7"), keypad.Digit("8"), keypad.Digit("9"), keypad.Operator(expression.Divide)},
	{keypad.Digit("4"), keypad.Digit("5"), keypad.Digit("6"), keypad.Operator(expression.Multiply)},
	{keypad.Digit("1"), keypad.Digit("2"), keypad.Digit("3"), keypad.Operator(expression.Subtract)},
	{keypad.Digit("0"), keypad.DecimalSeparator(), keypad.Calculate(), keypad.Operator(expression.Add)},
	{keypad.Erase()},
}

// screen is what the engine last told the listener. It is shared by every
// copy of Model.
type screen struct {
	expression string
	err        expression.ErrorKind // zero when the last change succeeded
}

type Model struct {
	engine *expression.Engine
	screen *screen
	lang   string
	logger *zap.Logger

	keys keyMap
	help help.Model
}

// New returns a model with a fresh engine. A nil logger discards logs.
func New(cfg expression.Config, lang string, logger *zap.Logger) (Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !messages.Supported(lang) {
		lang = messages.Default
	}

	scr := &screen{}
	listener := expression.ListenerFuncs{
		OnExpressionChanged: func(text string) {
			scr.expression = text
			scr.err = 0
		},
		OnErrorRaised: func(kind expression.ErrorKind) {
			scr.err = kind
		},
	}

	e, err := expression.New(cfg, listener)
	if err != nil {
		return Model{}, err
	}

	return Model{
		engine: e,
		screen: scr,
		lang:   lang,
		logger: logger,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Calculate):
			m.press(keypad.Calculate())
		case key.Matches(msg, m.keys.Erase):
			m.press(keypad.Erase())
		case key.Matches(msg, m.keys.Digit, m.keys.Decimal, m.keys.Operator):
			k, err := keypad.Parse(msg.String())
			if err != nil {
				m.logger.Debug("unmapped key", zap.String("key", msg.String()), zap.Error(err))
				return m, nil
			}
			m.press(k)
		}
	}
	return m, nil
}

func (m Model) press(k keypad.Key) {
	accepted := k.Apply(m.engine)
	m.logger.Debug("key pressed",
		zap.Stringer("key", k),
		zap.Bool("accepted", accepted),
		zap.String("expression", m.screen.expression),
	)
	if !accepted && m.screen.err != 0 {
		m.logger.Info("input rejected", zap.Stringer("error_kind", m.screen.err))
	}
}

// Expression returns the text currently on the display.
func (m Model) Expression() string {
	return m.screen.expression
}

// Err returns the error raised by the last key, or zero.
func (m Model) Err() expression.ErrorKind {
	return m.screen.err
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("CountOnMe"))
	b.WriteString("\n")
	b.WriteString(displayStyle.Render(m.screen.expression))
	b.WriteString("\n")

	if m.screen.err != 0 {
		b.WriteString(errorStyle.Render(messages.Title(m.lang) + ": " + messages.Text(m.lang, m.screen.err)))
	}
	b.WriteString("\n")

	st := m.engine.State()
	for _, row := range layout {
		cells := make([]string, 0, len(row))
		for _, k := range row {
			cells = append(cells, keyCell(k, k.Enabled(st)))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func keyCell(k keypad.Key, enabled bool) string {
	switch {
	case !enabled:
		return disabledStyle.Render(k.String())
	case k.Action == keypad.ActionOperator || k.Action == keypad.ActionCalculate:
		return operatorStyle.Render(k.String())
	default:
		return keyStyle.Render(k.String())
	}
}
