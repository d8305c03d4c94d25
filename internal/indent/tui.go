package indent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version info
const (
	Version = "1.0.0"
	Author  = "Mikel Calvo"
	Year    = "2026"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	creditStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(1, 2)

	noticeSuccess = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Foreground(lipgloss.Color("#04B575")).
			Bold(true).
			Padding(1, 2)

	noticeError = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF4444")).
			Foreground(lipgloss.Color("#FF4444")).
			Bold(true).
			Padding(1, 2)

	breadcrumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// Route is a page address of the navigation shell
type Route string

const (
	RouteHome Route = "/"
	RouteForm Route = "/form"
)

var routeTitles = map[Route]string{
	RouteHome: "Home",
	RouteForm: "Indent Form",
}

// ParseRoute validates a route given on the command line.
func ParseRoute(s string) (Route, error) {
	r := Route(s)
	if _, ok := routeTitles[r]; !ok {
		return "", fmt.Errorf("unknown route %q (use / or /form)", s)
	}
	return r, nil
}

// pane is the form that receives keys on the indent page
type pane int

const (
	paneHeader pane = iota
	paneItems
)

// formTarget says which form a master-data load belongs to
type formTarget int

const (
	targetHeader formTarget = iota
	targetItems
)

// MenuItem for the landing page
type MenuItem struct {
	title       string
	description string
	route       Route
}

func (i MenuItem) Title() string       { return i.title }
func (i MenuItem) Description() string { return i.description }
func (i MenuItem) FilterValue() string { return i.title }

// Model is the main TUI model
type Model struct {
	client   *Client
	cache    *MasterCache // nil unless masters are shared
	route    Route
	width    int
	height   int
	home     list.Model
	spinner  spinner.Model
	header   *headerForm
	items    *itemForm
	pane     pane
	mountSeq int
	initCmd  tea.Cmd
	// Modal notice, dismissed with enter or esc
	notice     string
	noticeType string // "success" or "error"
	showNotice bool
}

// Messages
type mastersLoadedMsg struct {
	target formTarget
	seq    int
	data   *MasterData
	err    error
	shared bool // a cache reference was taken
}

type headerSubmittedMsg struct {
	seq int
	id  IndentID
	err error
}

type itemsSubmittedMsg struct {
	seq   int
	count int
	err   error
}

// NewTUI creates a new TUI model starting on route
func NewTUI(client *Client, start Route) Model {
	menuItems := []list.Item{
		MenuItem{"Go to Indent Form", "Create an indent and its line items", RouteForm},
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	home := list.New(menuItems, delegate, 60, 10)
	home.Title = "Welcome to " + client.Config.Brand
	home.SetShowStatusBar(false)
	home.SetFilteringEnabled(false)
	home.Styles.Title = titleStyle

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	m := Model{
		client:  client,
		route:   RouteHome,
		home:    home,
		spinner: s,
	}
	if client.Config.ShareMasters {
		m.cache = NewMasterCache(client)
	}
	if start == RouteForm {
		m.initCmd = m.mountForm()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.initCmd, m.spinner.Tick)
}

// loadMasters fetches the dropdown document for one mounted form.
func (m Model) loadMasters(ctx context.Context, target formTarget, seq int) tea.Cmd {
	client, cache := m.client, m.cache
	return func() tea.Msg {
		if cache != nil {
			data, err := cache.Acquire(ctx)
			return mastersLoadedMsg{target: target, seq: seq, data: data, err: err, shared: err == nil}
		}
		data, err := client.FetchMasters(ctx)
		return mastersLoadedMsg{target: target, seq: seq, data: data, err: err}
	}
}

// mountForm opens the indent page and starts its master-data fetch.
func (m *Model) mountForm() tea.Cmd {
	m.mountSeq++
	ctx, cancel := context.WithCancel(context.Background())
	m.header = newHeaderForm(m.mountSeq, cancel)
	m.items = nil
	m.pane = paneHeader
	m.route = RouteForm
	return m.loadMasters(ctx, targetHeader, m.mountSeq)
}

// mountItems opens the item sub-form bound to a created indent.
func (m *Model) mountItems(id IndentID) tea.Cmd {
	m.mountSeq++
	ctx, cancel := context.WithCancel(context.Background())
	m.items = newItemForm(m.mountSeq, cancel, NewRowBuilder(id, m.client.Config.POPlaceholder))
	return m.loadMasters(ctx, targetItems, m.mountSeq)
}

// unmountForm leaves the indent page. Pending fetches are cancelled and any
// result that still arrives is dropped.
func (m *Model) unmountForm() {
	if m.items != nil {
		m.items.cancel()
		if m.items.shared {
			m.cache.Release()
		}
		m.items = nil
	}
	if m.header != nil {
		m.header.cancel()
		if m.header.shared {
			m.cache.Release()
		}
		m.header = nil
	}
	m.pane = paneHeader
	m.route = RouteHome
}

func (m *Model) notify(kind, message string) {
	m.notice = message
	m.noticeType = kind
	m.showNotice = true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.unmountForm()
			return m, tea.Quit
		}

		// The notice is modal
		if m.showNotice {
			switch msg.String() {
			case "enter", "esc", " ":
				m.showNotice = false
				m.notice = ""
			}
			return m, nil
		}

		switch m.route {
		case RouteHome:
			return m.updateHome(msg)
		case RouteForm:
			return m.updateForm(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.home.SetSize(msg.Width-4, msg.Height-8)
		if m.items != nil {
			m.items.resize(msg.Width)
		}
		return m, nil

	case mastersLoadedMsg:
		return m.handleMastersLoaded(msg)

	case headerSubmittedMsg:
		return m.handleHeaderSubmitted(msg)

	case itemsSubmittedMsg:
		return m.handleItemsSubmitted(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "enter":
		if item, ok := m.home.SelectedItem().(MenuItem); ok && item.route == RouteForm {
			return m, m.mountForm()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.home, cmd = m.home.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.unmountForm()
		return m, nil
	case "ctrl+t":
		if m.items != nil {
			if m.pane == paneHeader {
				m.pane = paneItems
				m.header.fields.blurAll()
				return m, m.items.focusCurrent()
			}
			m.pane = paneHeader
			m.items.blurAll()
			return m, m.header.fields.updateFocus()
		}
		return m, nil
	}

	if m.pane == paneItems && m.items != nil {
		return m.updateItems(msg)
	}
	return m.updateHeader(msg)
}

func (m Model) handleMastersLoaded(msg mastersLoadedMsg) (tea.Model, tea.Cmd) {
	var current int
	switch {
	case msg.target == targetHeader && m.header != nil:
		current = m.header.seq
	case msg.target == targetItems && m.items != nil:
		current = m.items.seq
	default:
		current = -1
	}

	if current != msg.seq {
		// The form was closed before the fetch finished
		if msg.shared {
			m.cache.Release()
		}
		return m, nil
	}

	if msg.err != nil && IsCanceled(msg.err) {
		return m, nil
	}
	if msg.err != nil {
		log.Printf("master dropdown fetch failed: %v", msg.err)
	}

	switch msg.target {
	case targetHeader:
		m.header.loaded(msg.data, msg.err, msg.shared)
		return m, m.header.fields.updateFocus()
	case targetItems:
		m.items.loaded(msg.data, msg.err, msg.shared, m.width)
		if msg.err == nil {
			m.pane = paneItems
			m.header.fields.blurAll()
			return m, m.items.focusCurrent()
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	switch m.route {
	case RouteHome:
		content = m.home.View()
	case RouteForm:
		content = m.renderIndentPage()
	}

	var b strings.Builder

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderBreadcrumbs())
	b.WriteString("\n")

	b.WriteString(content)

	if m.showNotice {
		b.WriteString("\n\n")
		text := m.notice + "\n\n" + helpStyle.Render("[enter] OK")
		if m.noticeType == "success" {
			b.WriteString(noticeSuccess.Render("✓ " + text))
		} else {
			b.WriteString(noticeError.Render("✗ " + text))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderHelp())
	b.WriteString("\n")
	b.WriteString(m.renderCredits())

	return b.String()
}

func (m Model) renderStatusBar() string {
	status := fmt.Sprintf(" %s | %s ", m.client.Config.Brand, m.client.Config.APIURL)
	return statusBarStyle.Render(status)
}

func (m Model) renderBreadcrumbs() string {
	crumbs := []string{routeTitles[RouteHome]}
	if m.route == RouteForm {
		crumbs = append(crumbs, routeTitles[RouteForm])
		if m.items != nil {
			crumbs = append(crumbs, fmt.Sprintf("Items for indent %s", m.items.builder.IndentID))
		}
	}
	return breadcrumbStyle.Render("  " + strings.Join(crumbs, " > "))
}

func (m Model) renderHelp() string {
	var help string
	switch {
	case m.showNotice:
		help = "enter: dismiss"
	case m.route == RouteHome:
		help = "↑/↓: navigate • enter: select • q: quit"
	case m.header == nil || m.header.state == HeaderLoading || m.header.state == HeaderLoadFailed:
		help = "esc: back"
	case m.pane == paneItems:
		help = "tab: next field • ←/→: choose • enter: add item • ctrl+s: submit all • d: delete row (in list) • ctrl+t: header • esc: back"
	case m.items != nil:
		help = "tab: next field • ←/→: choose • enter: submit • ctrl+t: items • esc: back"
	default:
		help = "tab: next field • ←/→: choose • enter: submit • esc: back"
	}
	return helpStyle.Render(help)
}

func (m Model) renderCredits() string {
	return creditStyle.Render(fmt.Sprintf("Created by %s in %s • v%s", Author, Year, Version))
}

// renderIndentPage renders the /form page: header form plus the item sub-form
// once a header exists.
func (m Model) renderIndentPage() string {
	if m.header == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(" Indent Entry Form ") + "\n\n")
	b.WriteString(m.renderHeader())

	if m.header.state == HeaderLoading || m.header.state == HeaderLoadFailed {
		return b.String()
	}
	if m.items != nil {
		b.WriteString("\n")
		b.WriteString(m.renderItems())
	}
	return b.String()
}

// RunTUI starts the TUI
func RunTUI(client *Client, start Route) error {
	p := tea.NewProgram(NewTUI(client, start), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
