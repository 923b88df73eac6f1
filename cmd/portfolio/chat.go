package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/portfolio-chat/portfoliochat/client"
	"github.com/portfolio-chat/portfoliochat/persona"
	"github.com/portfolio-chat/portfoliochat/widget"
)

type ChatCommand struct {
	ServerURL   string `help:"The URL of the portfolio server." env:"PORTFOLIO_SERVER_URL" default:"http://localhost:3001"`
	PersonaFile string `help:"YAML file to read the greeting from." env:"PERSONA_FILE" default:""`
	LogLevel    string `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c ChatCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)
	p, err := persona.Load(c.PersonaFile)
	if err != nil {
		return fmt.Errorf("failed to load persona: %w", err)
	}
	rsc := client.New(c.ServerURL)

	m, err := tea.NewProgram(newModel(ctx, log, rsc, p.Greeting)).Run()
	if err != nil {
		return err
	}
	if final, ok := m.(model); ok {
		log.Debug("chat finished", slog.Int("messages", len(final.state.History)))
	}
	return nil
}

// Dracula color scheme.
var (
	Background  = lipgloss.Color("#282a36")
	CurrentLine = lipgloss.Color("#44475a")
	Foreground  = lipgloss.Color("#f8f8f2")
	Comment     = lipgloss.Color("#6272a4")
	Cyan        = lipgloss.Color("#8be9fd")
	Green       = lipgloss.Color("#50fa7b")
	Pink        = lipgloss.Color("#ff79c6")
	Purple      = lipgloss.Color("#bd93f9")
	Red         = lipgloss.Color("#ff5555")
)

var headerStyle = lipgloss.NewStyle().Background(CurrentLine).Foreground(Purple).Bold(true).Padding(0, 1)

var hintStyle = lipgloss.NewStyle().Foreground(Comment)

var entryKindToStyle = map[widget.EntryKind]lipgloss.Style{
	widget.EntryGreeting:  lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Green),
	widget.EntryUser:      lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Pink),
	widget.EntryAssistant: lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Cyan),
	widget.EntryError:     lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Red),
}

var entryKindToIcon = map[widget.EntryKind]string{
	widget.EntryGreeting:  "🤖",
	widget.EntryUser:      "🙂",
	widget.EntryAssistant: "✨",
	widget.EntryError:     "⚠️",
}

func formatEntry(e widget.Entry, width int) string {
	if width <= 0 {
		width = 80
	}
	icon, ok := entryKindToIcon[e.Kind]
	if !ok {
		icon = "🤷"
	}
	wrapped := wordwrap.String(strings.TrimSpace(icon+" "+e.Content), width)
	style, ok := entryKindToStyle[e.Kind]
	if !ok {
		return wrapped
	}
	return style.Render(wrapped)
}

type model struct {
	ctx    context.Context
	log    *slog.Logger
	client widget.Chatter
	state  widget.State

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	width    int
}

func newModel(ctx context.Context, log *slog.Logger, c widget.Chatter, greeting string) model {
	ta := textarea.New()
	ta.Placeholder = "Ask me anything..."
	ta.Prompt = "┃ "
	ta.CharLimit = 1000
	ta.SetHeight(3)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false
	// Enter submits, it never inserts a newline.
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(Purple)

	m := model{
		ctx:      ctx,
		log:      log,
		client:   c,
		state:    widget.New(greeting),
		textarea: ta,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		width:    80,
	}
	m = m.apply(widget.Toggle{})
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// apply runs a widget transition and syncs the view components with the new state.
func (m model) apply(e widget.Event) model {
	var eff widget.Effect
	m.state, eff = widget.Update(m.state, e)
	if eff.Rejected {
		m.log.Debug("message not sent, a reply is still pending")
	}
	if m.state.Focused {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}
	m.render()
	return m
}

func (m *model) render() {
	var sb strings.Builder
	for _, e := range m.state.Transcript {
		sb.WriteString(formatEntry(e, m.width-4))
		sb.WriteString("\n")
	}
	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

func (m model) send() (model, tea.Cmd) {
	m, eff := m.submit()
	if eff.Request == nil {
		return m, nil
	}
	req := *eff.Request
	c, ctx := m.client, m.ctx
	return m, func() tea.Msg {
		return widget.Exchange(ctx, c, req)
	}
}

func (m model) submit() (model, widget.Effect) {
	var eff widget.Effect
	m.state, _ = widget.Update(m.state, widget.InputChanged{Text: m.textarea.Value()})
	m.state, eff = widget.Update(m.state, widget.Submit{})
	if eff.Request != nil {
		m.textarea.Reset()
	}
	if eff.Rejected {
		m.log.Debug("message not sent, a reply is still pending")
	}
	m.render()
	return m, eff
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case widget.ReplyReceived:
		return m.apply(msg), nil
	case widget.ReplyFailed:
		m.log.Debug("chat request failed", slog.Any("error", msg.Err))
		return m.apply(msg), nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - m.textarea.Height() - 5
		m.textarea.SetWidth(msg.Width)
		m.render()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		case "ctrl+t":
			return m.apply(widget.Toggle{}), nil
		case "enter":
			if !m.state.Open {
				return m, nil
			}
			return m.send()
		default:
			if !m.state.Open {
				return m, nil
			}
			var cmd tea.Cmd
			m.textarea, cmd = m.textarea.Update(msg)
			return m, cmd
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case cursor.BlinkMsg:
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m model) View() string {
	header := headerStyle.Render("Portfolio Assistant")
	if !m.state.Open {
		return header + "\n\n" + hintStyle.Render("ctrl+t to open the chat, esc to quit") + "\n"
	}
	status := hintStyle.Render("enter to send, ctrl+t to hide, esc to quit")
	if m.state.Pending {
		status = m.spinner.View() + " " + hintStyle.Render("thinking...")
	}
	return fmt.Sprintf("%s\n%s\n%s\n\n%s",
		header,
		m.viewport.View(),
		status,
		m.textarea.View(),
	) + "\n\n"
}
