package main

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/dunstd/internal/control"
	"github.com/jmylchreest/dunstd/internal/model"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the live notification queues interactively",
	Long: `Launch an interactive browser over dunstd's waiting, displayed, and
history queues.

Key bindings:
  j/k, ↑/↓    Navigate list
  d           Dismiss (close) the selected notification
  p           Replay a history entry back to waiting
  c           Copy the selected body to the clipboard
  r           Refresh from the daemon
  q           Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	p := tea.NewProgram(newTUIModel(c))
	_, err = p.Run()
	return err
}

type tuiKeyMap struct {
	Dismiss key.Binding
	Pop     key.Binding
	Copy    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func defaultTUIKeyMap() tuiKeyMap {
	return tuiKeyMap{
		Dismiss: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dismiss")),
		Pop:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "replay from history")),
		Copy:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy body")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// recordItem adapts a control.RecordView to list.Item.
type recordItem struct {
	rec control.RecordView
}

func (i recordItem) Title() string {
	queue := "waiting"
	if i.rec.StartOfDisplay > 0 {
		queue = "displayed"
	}
	if i.rec.ClosureReason != 0 {
		queue = "history"
	}
	return fmt.Sprintf("[%d/%s] %s", i.rec.ID, model.Urgency(i.rec.Urgency), queue)
}

func (i recordItem) Description() string {
	body := strings.ReplaceAll(i.rec.Body, "\n", " ")
	if len(body) > 72 {
		body = body[:72] + "…"
	}
	return fmt.Sprintf("%s: %s — %s", i.rec.AppName, i.rec.Summary, body)
}

func (i recordItem) FilterValue() string {
	return i.rec.AppName + " " + i.rec.Summary + " " + i.rec.Body
}

type tuiModel struct {
	client    *control.Client
	list      list.Model
	keys      tuiKeyMap
	statusMsg string
	statusErr bool
}

func newTUIModel(c *control.Client) tuiModel {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "dunstd queues"
	l.SetShowHelp(true)
	l.DisableQuitKeybindings()

	return tuiModel{
		client: c,
		list:   l,
		keys:   defaultTUIKeyMap(),
	}
}

func (m tuiModel) Init() tea.Cmd {
	return m.refresh
}

type refreshMsg struct {
	items []list.Item
	err   error
}

func (m tuiModel) refresh() tea.Msg {
	dump, err := m.client.Dump()
	if err != nil {
		return refreshMsg{err: err}
	}
	recs := dump.AllRecords()
	items := make([]list.Item, len(recs))
	for i, r := range recs {
		items[i] = recordItem{rec: r}
	}
	return refreshMsg{items: items}
}

type actionMsg struct {
	ok  string
	err error
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case refreshMsg:
		if msg.err != nil {
			m.statusMsg = msg.err.Error()
			m.statusErr = true
			return m, nil
		}
		m.list.SetItems(msg.items)
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.statusMsg = msg.err.Error()
			m.statusErr = true
			return m, nil
		}
		m.statusMsg = msg.ok
		m.statusErr = false
		return m, m.refresh

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.refresh
		case key.Matches(msg, m.keys.Dismiss):
			if it, ok := m.selected(); ok {
				return m, m.closeRecord(it.rec.ID)
			}
		case key.Matches(msg, m.keys.Pop):
			if it, ok := m.selected(); ok {
				return m, m.popRecord(it.rec.ID)
			}
		case key.Matches(msg, m.keys.Copy):
			if it, ok := m.selected(); ok {
				return m, copyBody(it.rec.Body)
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m tuiModel) selected() (recordItem, bool) {
	it, ok := m.list.SelectedItem().(recordItem)
	return it, ok
}

func (m tuiModel) closeRecord(id uint32) tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Close(id, model.ReasonUserDismissed); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{ok: fmt.Sprintf("dismissed %d", id)}
	}
}

func (m tuiModel) popRecord(id uint32) tea.Cmd {
	return func() tea.Msg {
		if err := m.client.PopHistoryByID(id); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{ok: fmt.Sprintf("replayed %d", id)}
	}
}

func copyBody(body string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(body); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{ok: "copied body to clipboard"}
	}
}

var tuiStatusErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
var tuiStatusOKStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

func (m tuiModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.list.View())
	if m.statusMsg != "" {
		style := tuiStatusOKStyle
		if m.statusErr {
			style = tuiStatusErrStyle
		}
		sb.WriteString("\n" + style.Render(m.statusMsg))
	}
	return sb.String()
}
