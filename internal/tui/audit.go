package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lachlan2k/rta-portal/internal/csvexport"
	"github.com/lachlan2k/rta-portal/internal/views"
)

// searchTickMsg fires once the debounce delay after a keystroke has passed.
// Only the tick carrying the latest sequence number is applied.
type searchTickMsg struct {
	seq int
}

type exportedMsg struct {
	path string
	err  error
}

type AuditOptions struct {
	Debounce  time.Duration
	PageSize  int
	ExportDir string
	Now       func() time.Time
}

// AuditModel is the audit log screen: a debounced search box, a role filter
// and a paged table of the matching entries.
type AuditModel struct {
	entries  []views.AuditEntry
	filtered []views.AuditEntry
	query    views.AuditQuery

	search  textinput.Model
	table   table.Model
	roleIdx int
	page    int

	// seq is bumped on every edit of the search box
	seq int

	opts     AuditOptions
	status   string
	quitting bool
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginLeft(2).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			MarginLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginLeft(2).
			MarginTop(1)
)

func NewAuditModel(entries []views.AuditEntry, opts AuditOptions) AuditModel {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	search := textinput.New()
	search.Placeholder = "Search user, action or IP"
	search.Prompt = "Search: "
	search.Focus()

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "User", Width: 18},
			{Title: "Role", Width: 9},
			{Title: "Action", Width: 28},
			{Title: "Timestamp", Width: 22},
			{Title: "IP", Width: 15},
		}),
		table.WithHeight(opts.PageSize+1),
	)

	m := AuditModel{
		entries: entries,
		search:  search,
		table:   t,
		page:    1,
		opts:    opts,
		query:   views.AuditQuery{Role: views.AuditRoles[0]},
	}
	m.refilter()
	return m
}

func (m AuditModel) Init() tea.Cmd {
	return textinput.Blink
}

// Filtered is what the table (and an export) currently holds
func (m AuditModel) Filtered() []views.AuditEntry {
	return m.filtered
}

func (m *AuditModel) refilter() {
	m.filtered = views.FilterAudit(m.entries, m.query)
	m.renderPage()
}

func (m *AuditModel) currentPage() views.Page[views.AuditEntry] {
	return views.Paginate(m.filtered, m.page, m.opts.PageSize)
}

func (m *AuditModel) renderPage() {
	p := m.currentPage()
	rows := make([]table.Row, 0, len(p.Items))
	for _, e := range p.Items {
		rows = append(rows, table.Row{e.User, e.Role, e.Action, e.Timestamp, e.IP})
	}
	m.table.SetRows(rows)
}

func (m AuditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case searchTickMsg:
		if m.quitting || msg.seq != m.seq {
			return m, nil
		}
		m.query.Search = m.search.Value()
		m.page = 1
		m.refilter()
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("Export failed: " + msg.err.Error())
		} else {
			m.status = statusStyle.Render("Exported to " + msg.path)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			m.roleIdx = (m.roleIdx + 1) % len(views.AuditRoles)
			m.query.Role = views.AuditRoles[m.roleIdx]
			m.page = 1
			m.refilter()
			return m, nil
		case "pgdown":
			return m.nextPage(), nil
		case "pgup":
			return m.prevPage(), nil
		}

		if !m.search.Focused() {
			switch msg.String() {
			case "q", "esc":
				m.quitting = true
				return m, tea.Quit
			case "/":
				cmd := m.search.Focus()
				return m, cmd
			case "n", "right":
				return m.nextPage(), nil
			case "p", "left":
				return m.prevPage(), nil
			case "e":
				return m, m.export()
			}
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

		if msg.String() == "enter" || msg.String() == "esc" {
			m.search.Blur()
			return m, nil
		}

		before := m.search.Value()
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() == before {
			return m, cmd
		}
		tick := m.scheduleSearch()
		return m, tea.Batch(cmd, tick)
	}

	return m, nil
}

// scheduleSearch restarts the debounce window
func (m *AuditModel) scheduleSearch() tea.Cmd {
	m.seq++
	seq := m.seq
	if m.opts.Debounce <= 0 {
		return func() tea.Msg { return searchTickMsg{seq: seq} }
	}
	return tea.Tick(m.opts.Debounce, func(time.Time) tea.Msg {
		return searchTickMsg{seq: seq}
	})
}

func (m AuditModel) nextPage() AuditModel {
	if m.page < m.currentPage().TotalPages {
		m.page++
		m.renderPage()
	}
	return m
}

func (m AuditModel) prevPage() AuditModel {
	if m.page > 1 {
		m.page--
		m.renderPage()
	}
	return m
}

func (m AuditModel) export() tea.Cmd {
	rows := m.filtered
	dir, now := m.opts.ExportDir, m.opts.Now()
	return func() tea.Msg {
		path, err := csvexport.SaveFile(dir, "audit_logs", views.AuditColumns, rows, now)
		return exportedMsg{path: path, err: err}
	}
}

func (m AuditModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Audit Logs"))
	b.WriteString("\n\n  ")
	b.WriteString(m.search.View())
	b.WriteString("\n  ")
	b.WriteString(labelStyle.Render("Role: "))
	b.WriteString(m.query.Role)
	b.WriteString("\n\n")

	p := m.currentPage()
	if p.Empty {
		b.WriteString(emptyStyle.Render("No audit logs found"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  Page %d of %d, %d entries\n", p.Page, p.TotalPages, p.Total))
	}

	if m.status != "" {
		b.WriteString("\n  " + m.status + "\n")
	}

	help := "tab: role  pgup/pgdn: page  enter: done searching  ctrl+c: quit"
	if !m.search.Focused() {
		help = "/: search  tab: role  n/p: page  e: export CSV  q: quit"
	}
	b.WriteString(helpStyle.Render(help))
	b.WriteString("\n")
	return b.String()
}

// RunAudit shows the audit log screen until the user quits
func RunAudit(entries []views.AuditEntry, opts AuditOptions) error {
	program := tea.NewProgram(NewAuditModel(entries, opts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running audit log UI: %w", err)
	}
	return nil
}
