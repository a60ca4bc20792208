// # cmd/supdoc/ui.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"supdoc/internal/objdoc"
	"supdoc/internal/render/terminal"
)

var (
	uiTitleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	uiDocStyle = lipgloss.NewStyle().Margin(1, 2)

	uiStatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	uiDetailStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			PaddingLeft(1)
)

type memberItem struct {
	name, kind, summary string
	node                *objdoc.Node
}

func (i memberItem) Title() string       { return i.name + " (" + i.kind + ")" }
func (i memberItem) Description() string { return i.summary }
func (i memberItem) FilterValue() string { return i.name + i.summary }

type browserModel struct {
	target     string
	list       list.Model
	detail     viewport.Model
	lastUpdate time.Time
	members    int
}

type docMsg struct {
	name string
	doc  *objdoc.Node
}

func (m browserModel) Init() tea.Cmd {
	return nil
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := uiDocStyle.GetFrameSize()
		m.list.SetSize((msg.Width-h)/2, msg.Height-v-4)
		m.detail.Width = (msg.Width - h) / 2
		m.detail.Height = msg.Height - v - 4
	case docMsg:
		m.target = msg.name
		m.lastUpdate = time.Now()

		items := memberItems(msg.doc)
		m.members = len(items)
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	if sel, ok := m.list.SelectedItem().(memberItem); ok {
		m.detail.SetContent(detailText(sel))
	}
	return m, cmd
}

func (m browserModel) View() string {
	status := uiStatusStyle.Render(fmt.Sprintf("Last update: %v | %d members",
		m.lastUpdate.Format("15:04:05"), m.members))

	header := fmt.Sprintf("%s\n%s\n", uiTitleStyle("supdoc "+m.target), status)
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), uiDetailStyle.Render(m.detail.View()))
	return uiDocStyle.Render(header + "\n" + body)
}

func memberItems(doc *objdoc.Node) []list.Item {
	names := make([]string, 0, len(doc.Dict))
	for name := range doc.Dict {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]list.Item, 0, len(names))
	for _, name := range names {
		n := doc.Dict[name]
		it := memberItem{name: name, node: n, kind: n.TypeName}
		if n.IsRef() {
			it.kind = "ref"
			it.summary = n.Ref
		} else if n.Docs != nil {
			it.summary = plainSummary(n.Docs.Summary)
		}
		items = append(items, it)
	}
	return items
}

func detailText(it memberItem) string {
	if it.node == nil {
		return ""
	}
	var b strings.Builder
	if it.node.Sig != nil {
		b.WriteString(terminal.FormatSignature(it.name, it.node.Sig))
		b.WriteString("\n\n")
	}
	if it.node.Docs != nil {
		if s := plainSummary(it.node.Docs.Summary); s != "" {
			b.WriteString(s)
			b.WriteString("\n\n")
		}
	}
	if it.node.Source != nil && it.node.Source.Text != "" {
		b.WriteString(it.node.Source.Text)
	}
	return b.String()
}

var summaryTagReplacer = strings.NewReplacer("<code>", "", "</code>", "", "<b>", "", "</b>", "", "<i>", "", "</i>", "", "&amp;", "&", "&lt;", "<", "&gt;", ">")

func plainSummary(s string) string {
	return summaryTagReplacer.Replace(s)
}

func initialBrowser(target string) browserModel {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Members"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return browserModel{
		target:     target,
		list:       l,
		detail:     viewport.New(0, 0),
		lastUpdate: time.Now(),
	}
}

// RunUI opens the interactive browser for one name, refreshing on source
// changes when watch is set.
func (a *App) RunUI(ctx context.Context, name string, watch bool) error {
	m := initialBrowser(name)
	p := tea.NewProgram(m, tea.WithAltScreen())
	a.teaProgram = p

	refresh := func() {
		res, err := a.inspectName(ctx, name)
		if err != nil {
			slog.Error("inspection failed", "name", name, "error", err)
			return
		}
		a.teaProgram.Send(docMsg{name: res.Path.String(), doc: res.Doc})
	}

	go refresh()

	if watch {
		if err := a.startWatcher(func(paths []string) {
			a.invalidate(paths)
			refresh()
		}); err != nil {
			return err
		}
	}

	_, err := p.Run()
	return err
}
