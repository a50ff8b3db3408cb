package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/errs"
	"github.com/eringen/blogfront/listing"
	"github.com/eringen/blogfront/views"
)

var (
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	pageStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	curPageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).Underline(true)
	searchStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	activeSearch  = searchStyle.BorderForeground(lipgloss.Color("39"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	offlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	detailBoxWrap = lipgloss.NewStyle().Padding(0, 2)
)

func newBrowseCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse and search posts interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newBrowseModel(c.client(), listing.WithPageSize(c.cfg.PageSize))
			defer m.ctl.Close()
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err := p.Run()
			return err
		},
	}
}

// changedMsg tells the model the controller has a new snapshot.
type changedMsg struct{}

// browseModel is the bubbletea model over a listing.Controller. The
// controller's change callback must not block, so it only signals on a
// one-slot channel and the model re-reads the state.
type browseModel struct {
	ctl     *listing.Controller
	changes chan struct{}
	now     func() time.Time

	st        listing.State
	cursor    int
	searching bool
	detail    *domain.BlogPost
	width     int
}

func newBrowseModel(src listing.Fetcher, opts ...listing.Option) browseModel {
	changes := make(chan struct{}, 1)
	opts = append(opts, listing.OnChange(func(listing.State) {
		select {
		case changes <- struct{}{}:
		default:
		}
	}))
	return browseModel{
		ctl:     listing.New(src, opts...),
		changes: changes,
		now:     time.Now,
		st:      listing.State{Page: 1},
	}
}

func (m browseModel) waitChange() tea.Cmd {
	ch := m.changes
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func (m browseModel) Init() tea.Cmd {
	m.ctl.Start()
	return m.waitChange()
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.sync()
		return m, m.waitChange()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch {
		case m.searching:
			m.searchKey(msg)
		case m.detail != nil:
			switch msg.String() {
			case "esc", "backspace", "b", "h", "left":
				m.detail = nil
			case "q":
				return m, tea.Quit
			}
		default:
			if quit := m.listKey(msg); quit {
				return m, tea.Quit
			}
		}
		m.sync()
	}
	return m, nil
}

func (m *browseModel) searchKey(msg tea.KeyMsg) {
	text := m.st.SearchText
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.searching = false
		return
	case tea.KeyBackspace:
		r := []rune(text)
		if len(r) == 0 {
			return
		}
		text = string(r[:len(r)-1])
	case tea.KeySpace:
		text += " "
	case tea.KeyRunes:
		text += string(msg.Runes)
	default:
		return
	}
	m.ctl.SetSearchText(text)
}

func (m *browseModel) listKey(msg tea.KeyMsg) (quit bool) {
	switch key := msg.String(); key {
	case "q":
		return true
	case "n", "right", "l":
		m.ctl.NextPage()
	case "p", "left", "h":
		m.ctl.PrevPage()
	case "/":
		m.searching = true
	case "esc":
		if m.st.SearchText != "" {
			m.ctl.SetSearchText("")
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.st.Posts)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(m.st.Posts) {
			p := m.st.Posts[m.cursor]
			m.detail = &p
		}
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= max(m.st.TotalPages, 1) {
			m.ctl.SetPage(n)
		}
	}
	return false
}

// sync takes a fresh snapshot, dropping any that are older than the one held.
func (m *browseModel) sync() {
	st := m.ctl.State()
	if st.Version < m.st.Version {
		return
	}
	if st.Page != m.st.Page || st.DebouncedSearch != m.st.DebouncedSearch {
		m.cursor = 0
	}
	m.st = st
	if m.cursor >= len(st.Posts) {
		m.cursor = max(len(st.Posts)-1, 0)
	}
}

func (m browseModel) View() string {
	if m.detail != nil {
		return m.detailView(*m.detail)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("blogfront") + "\n\n")

	box := searchStyle
	prompt := dimStyle.Render("/ to search")
	if m.searching {
		box = activeSearch
		prompt = m.st.SearchText + cursorStyle.Render("█")
	} else if m.st.SearchText != "" {
		prompt = m.st.SearchText
	}
	b.WriteString(box.Render(prompt) + "\n\n")

	switch {
	case m.st.Err != nil:
		b.WriteString(errorStyle.Render("✗ "+errs.Message(m.st.Err)) + "\n")
	case m.st.Loading && len(m.st.Posts) == 0:
		b.WriteString(dimStyle.Render("Loading posts...") + "\n")
	case len(m.st.Posts) == 0 && m.st.DebouncedSearch != "":
		b.WriteString(dimStyle.Render(fmt.Sprintf("No posts match %q.", m.st.DebouncedSearch)) + "\n")
	case len(m.st.Posts) == 0:
		b.WriteString(dimStyle.Render("No posts yet.") + "\n")
	default:
		now := m.now()
		for i, p := range m.st.Posts {
			marker, title := "  ", p.Title
			if i == m.cursor {
				marker, title = cursorStyle.Render("> "), cursorStyle.Render(p.Title)
			}
			b.WriteString(marker + title + " " + dimStyle.Render("· "+p.Author+" · "+views.TimeAgo(p.CreatedAt.Time, now)) + "\n")
		}
	}

	b.WriteString("\n" + m.pager())
	if m.st.Loading && len(m.st.Posts) > 0 {
		b.WriteString("  " + dimStyle.Render("loading..."))
	}
	if m.st.Offline {
		b.WriteString("  " + offlineStyle.Render("offline copy"))
	}
	b.WriteString("\n\n" + helpStyle.Render(m.help()))
	return b.String()
}

func (m browseModel) pager() string {
	var parts []string
	for _, n := range listing.PageWindow(m.st.Page, m.st.TotalPages) {
		s := strconv.Itoa(n)
		if n == m.st.Page {
			parts = append(parts, curPageStyle.Render(s))
		} else {
			parts = append(parts, pageStyle.Render(s))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return pageStyle.Render("‹ ") + strings.Join(parts, " ") + pageStyle.Render(" ›")
}

func (m browseModel) help() string {
	if m.searching {
		return "type to search · enter/esc done"
	}
	return "↑/↓ move · enter read · n/p page · 1-9 jump · / search · q quit"
}

func (m browseModel) detailView(p domain.BlogPost) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Title) + "\n")
	meta := "by " + p.Author + " · " + views.FormatDate(p.CreatedAt.Time)
	if p.IsUpdated() {
		meta += " · updated " + views.FormatDate(p.UpdatedAt.Time)
	}
	b.WriteString(dimStyle.Render(meta) + "\n\n")

	body := lipgloss.NewStyle()
	if m.width > 4 {
		body = body.Width(min(m.width-4, 80))
	}
	b.WriteString(body.Render(strings.Join(p.Paragraphs(), "\n")) + "\n")
	if p.HasImage() {
		b.WriteString("\n" + dimStyle.Render("image: "+p.ImageURL) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("esc back · q quit"))
	return detailBoxWrap.Render(b.String())
}
