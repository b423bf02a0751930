// Package reportui provides the Bubble Tea viewer for comparison tables.
package reportui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/kmerdiff/internal/model"
	"github.com/verte-zerg/kmerdiff/internal/report"
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Model implements the Bubble Tea report viewer. There is one tab per
// model family.
type Model struct {
	groups    []report.Group
	caption   []string
	tables    []table.Model
	activeTab int

	width  int
	height int
}

// NewModel builds a viewer over already selected groups.
func NewModel(groups []report.Group, treatment, alphabet string) *Model {
	m := &Model{
		groups:  groups,
		caption: report.Caption(treatment, alphabet),
	}
	for _, g := range groups {
		m.tables = append(m.tables, buildTable(g.Rows))
	}
	if len(m.tables) > 0 {
		m.tables[0].Focus()
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, nil
		case "right", "l", "tab":
			m.moveTab(1)
			return m, nil
		}
		if len(m.tables) == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.tables[m.activeTab], cmd = m.tables[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := m.renderTabs() + "\n" + headerStyle.Render(truncateLine(m.caption[0], m.width))
	footer := headerStyle.Render(truncateLine("Nav: left/right  Scroll: up/down/pgup/pgdn  Quit: q", m.width))
	body := "No rows."
	if len(m.tables) > 0 && len(m.groups[m.activeTab].Rows) > 0 {
		body = m.tables[m.activeTab].View()
	}
	bodyHeight := maxInt(1, m.height-lipgloss.Height(header)-1)
	return strings.Join([]string{header, fitLines(body, m.width, bodyHeight), footer}, "\n")
}

func (m *Model) moveTab(delta int) {
	count := len(m.tables)
	if count == 0 {
		return
	}
	m.tables[m.activeTab].Blur()
	m.activeTab = (m.activeTab + delta + count) % count
	m.tables[m.activeTab].Focus()
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.groups))
	for i, g := range m.groups {
		label := fmt.Sprintf("%s (%d)", g.Family.DisplayName(), len(g.Rows))
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(label))
		} else {
			parts = append(parts, inactiveNavStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) updateLayout() {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	bodyHeight := maxInt(1, m.height-tabsHeight-2)
	for i := range m.tables {
		m.tables[i].SetWidth(m.width)
		m.tables[i].SetHeight(bodyHeight)
	}
}

func buildTable(rows []model.Row) table.Model {
	headers := report.Header()[1:]
	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		columns[i] = table.Column{Title: h, Width: lipgloss.Width(h)}
	}
	tableRows := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		cells := report.Cells(r)
		for i, c := range cells {
			if w := lipgloss.Width(c); w > columns[i].Width {
				columns[i].Width = w
			}
		}
		tableRows = append(tableRows, table.Row(cells))
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithHeight(maxInt(1, len(tableRows)+1)),
	)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
