package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/epg-sync/epgctl/internal/formatter"
	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/notify"
	"github.com/epg-sync/epgctl/internal/query"
	"github.com/epg-sync/epgctl/internal/session"
	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/epg-sync/epgctl/internal/synclog"
	"github.com/epg-sync/epgctl/internal/tasks"
)

// ViewState represents the current screen in the TUI.
type ViewState int

const (
	HydratingView ViewState = iota
	LoginView
	MainView
)

// Tab is a page of the main view.
type Tab int

const (
	ChannelsTab Tab = iota
	MappingsTab
	ProgramsTab
	SyncLogTab
)

var tabNames = [...]string{"Channels", "Mappings", "Programs", "Sync Log"}

func (t Tab) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return ""
	}
	return tabNames[t]
}

// API is the backend surface the TUI calls directly. [services.Client] implements it.
type API interface {
	ListChannels(ctx context.Context) ([]models.Channel, error)
	ListMappings(ctx context.Context) ([]models.ChannelMapping, error)
	DeleteChannel(ctx context.Context, channelID string) error
}

// Deps are the collaborators of the TUI.
type Deps struct {
	API           API
	Session       *session.Store
	Syncer        *tasks.Syncer
	SyncLog       *synclog.Log
	Programs      query.Source[models.Program]
	Location      *time.Location
	MaxConfidence float64
	PageSize      int
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	deps   Deps
	view   ViewState
	tab    Tab
	width  int
	height int

	username   textinput.Model
	password   textinput.Model
	loginFocus int
	loginErr   string
	loggingIn  bool

	channels      []models.Channel
	channelList   list.Model
	pendingDelete *models.Channel

	mappingSource *query.Local[models.ChannelMapping]
	mappings      *query.List[models.ChannelMapping]
	mappingList   list.Model
	search        textinput.Model
	searching     bool
	providers     []string
	providerIdx   int

	programs       *query.List[models.Program]
	programList    list.Model
	pager          paginator.Model
	programsLoaded bool
	channelIdx     int

	spinner spinner.Model
	toasts  *notify.Recorder
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.PageSize <= 0 {
		deps.PageSize = query.DefaultPageSize
	}
	if deps.MaxConfidence <= 0 {
		deps.MaxConfidence = models.DefaultMaxConfidence
	}

	toasts := &notify.Recorder{}
	mappingSource := query.NewMappingSource(nil)

	m := &Model{
		ctx:           ctx,
		deps:          deps,
		view:          HydratingView,
		channelList:   newList("Channels", nil),
		mappingSource: mappingSource,
		mappings:      query.NewList[models.ChannelMapping](mappingSource, query.Filter{ProviderID: models.AllFilter}, toasts, "Failed to filter mappings"),
		mappingList:   newList("Channel Mappings", nil),
		programList:   newList("Programs", nil),
		providers:     []string{models.AllFilter},
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot)),
		toasts:        toasts,
		help:          help.New(),
		keys:          newKeyMap(),
	}

	m.programs = query.NewList(deps.Programs, query.Filter{
		ChannelID: models.AllFilter,
		Date:      shared.Today(deps.Location),
		PageSize:  deps.PageSize,
	}, toasts, "Failed to load programs")

	m.pager = paginator.New()
	m.pager.Type = paginator.Arabic

	m.username = textinput.New()
	m.username.Placeholder = "username"
	m.username.CharLimit = 64

	m.password = textinput.New()
	m.password.Placeholder = "password"
	m.password.EchoMode = textinput.EchoPassword
	m.password.EchoCharacter = '•'

	m.search = textinput.New()
	m.search.Placeholder = "canonical or provider channel id"
	m.search.Prompt = "/ "

	return m
}

// Init restores the persisted session before anything else is shown.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.hydrate(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.channelList, &m.mappingList, &m.programList} {
			l.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case hydratedMsg:
		if msg.state == session.Authenticated {
			m.view = MainView
			return m, m.loadAll()
		}
		return m, m.showLogin()

	case loginMsg:
		m.loggingIn = false
		if msg.err != nil {
			m.loginErr = notify.MessageFrom(msg.err, "Invalid username or password")
			m.password.SetValue("")
			return m, nil
		}
		m.loginErr = ""
		m.username.Blur()
		m.password.Blur()
		m.password.SetValue("")
		m.view = MainView
		return m, m.loadAll()

	case channelsFetchedMsg:
		if msg.err != nil {
			notify.Failf(m.toasts, "Failed to load channels", msg.err, "Could not load channels")
			return m, nil
		}
		m.setChannels(msg.channels)
		return m, nil

	case mappingsFetchedMsg:
		if msg.err != nil {
			notify.Failf(m.toasts, "Failed to load mappings", msg.err, "Could not load mappings")
			return m, nil
		}
		m.setMappings(msg.mappings)
		return m, nil

	case programsFetchedMsg:
		if errors.Is(msg.err, query.ErrStale) {
			return m, nil
		}
		m.showPrograms()
		return m, nil

	case syncDoneMsg:
		switch {
		case errors.Is(msg.err, shared.ErrSyncInProgress):
			m.toasts.Notify(notify.Notification{Level: notify.Info, Title: "Sync already running", At: time.Now()})
		case msg.err != nil:
			notify.Failf(m.toasts, "Sync failed", msg.err, msg.entry.Message)
		default:
			notify.Successf(m.toasts, "Sync complete", fmt.Sprintf("%s: %s", msg.entry.ChannelName, msg.entry.Message))
		}
		return m, nil

	case channelDeletedMsg:
		if msg.err != nil {
			notify.Failf(m.toasts, "Failed to delete channel", msg.err, "Could not delete "+msg.channelID)
			return m, nil
		}
		notify.Successf(m.toasts, "Channel deleted", msg.channelID)
		return m, m.loadChannels()

	case tea.KeyMsg:
		switch m.view {
		case HydratingView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case LoginView:
			return m.handleLoginKeys(msg)
		case MainView:
			return m.handleMainKeys(msg)
		}
	}

	return m.updateComponents(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case HydratingView:
		return fmt.Sprintf("%s Restoring session...", m.spinner.View())
	case LoginView:
		return m.renderLogin()
	default:
		return m.renderMain()
	}
}

func (m *Model) handleMainKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pendingDelete != nil {
		return m.handleConfirmKeys(msg)
	}
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.nextTab):
		return m, m.switchTab((m.tab + 1) % Tab(len(tabNames)))
	case key.Matches(msg, m.keys.prevTab):
		return m, m.switchTab((m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames)))
	case key.Matches(msg, m.keys.logout):
		m.deps.Session.Logout()
		m.reset()
		notify.Successf(m.toasts, "Signed out", "")
		return m, m.showLogin()
	}

	switch m.tab {
	case ChannelsTab:
		switch {
		case key.Matches(msg, m.keys.refresh):
			return m, m.loadChannels()
		case key.Matches(msg, m.keys.sync):
			if c, ok := m.selectedChannel(); ok {
				return m, m.syncChannel(c.ChannelID)
			}
			return m, nil
		case key.Matches(msg, m.keys.syncAll):
			return m, m.syncAll()
		case key.Matches(msg, m.keys.remove):
			if c, ok := m.selectedChannel(); ok {
				m.pendingDelete = &c
			}
			return m, nil
		}

	case MappingsTab:
		switch {
		case key.Matches(msg, m.keys.refresh):
			return m, m.loadMappings()
		case key.Matches(msg, m.keys.search):
			m.searching = true
			return m, m.search.Focus()
		case key.Matches(msg, m.keys.provider):
			m.providerIdx = (m.providerIdx + 1) % len(m.providers)
			if m.mappings.SetProvider(m.providers[m.providerIdx]) {
				m.refreshMappings()
			}
			return m, nil
		}

	case ProgramsTab:
		switch {
		case key.Matches(msg, m.keys.refresh):
			return m, m.loadPrograms()
		case key.Matches(msg, m.keys.channel):
			return m, m.cycleProgramChannel()
		case key.Matches(msg, m.keys.prevDay):
			return m, m.shiftProgramDate(-1)
		case key.Matches(msg, m.keys.nextDay):
			return m, m.shiftProgramDate(1)
		case key.Matches(msg, m.keys.prevPage):
			if m.programs.PrevPage() {
				return m, m.loadPrograms()
			}
			return m, nil
		case key.Matches(msg, m.keys.nextPage):
			if m.programs.NextPage() {
				return m, m.loadPrograms()
			}
			return m, nil
		}

	case SyncLogTab:
		if key.Matches(msg, m.keys.syncAll) {
			return m, m.syncAll()
		}
		return m, nil
	}

	return m.updateComponents(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		channelID := m.pendingDelete.ChannelID
		m.pendingDelete = nil
		return m, m.deleteChannel(channelID)
	case key.Matches(msg, m.keys.no):
		m.pendingDelete = nil
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.mappings.SetFreeText(m.search.Value()) {
		m.refreshMappings()
	}
	return m, cmd
}

// updateComponents forwards msg to whichever input or list currently has focus.
func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.view == LoginView && m.loginFocus == 0:
		m.username, cmd = m.username.Update(msg)
	case m.view == LoginView:
		m.password, cmd = m.password.Update(msg)
	case m.view != MainView:
	case m.tab == MappingsTab && m.searching:
		m.search, cmd = m.search.Update(msg)
	case m.tab == ChannelsTab:
		m.channelList, cmd = m.channelList.Update(msg)
	case m.tab == MappingsTab:
		m.mappingList, cmd = m.mappingList.Update(msg)
	case m.tab == ProgramsTab:
		m.programList, cmd = m.programList.Update(msg)
	}
	return m, cmd
}

func (m *Model) switchTab(t Tab) tea.Cmd {
	m.tab = t
	if t == ProgramsTab && !m.programsLoaded {
		return m.loadPrograms()
	}
	return nil
}

// reset drops everything fetched under the previous session.
func (m *Model) reset() {
	m.tab = ChannelsTab
	m.channels = nil
	m.channelList.SetItems(nil)
	m.pendingDelete = nil
	m.mappingSource.Set(nil)
	m.mappingList.SetItems(nil)
	m.providers = []string{models.AllFilter}
	m.providerIdx = 0
	m.programList.SetItems(nil)
	m.programsLoaded = false
	m.channelIdx = 0
}

func (m *Model) selectedChannel() (models.Channel, bool) {
	if item, ok := m.channelList.SelectedItem().(channelItem); ok {
		return item.channel, true
	}
	return models.Channel{}, false
}

func (m *Model) setChannels(channels []models.Channel) {
	m.channels = channels
	m.channelList.SetItems(channelItems(channels))
	if m.deps.Syncer != nil {
		m.deps.Syncer.UseChannels(channels)
	}
	if m.channelIdx > len(channels) {
		m.channelIdx = 0
	}
}

func (m *Model) setMappings(mappings []models.ChannelMapping) {
	m.mappingSource.Set(mappings)
	m.providers = append([]string{models.AllFilter}, models.Providers(mappings)...)
	if m.providerIdx >= len(m.providers) {
		m.providerIdx = 0
		m.mappings.SetProvider(models.AllFilter)
	}
	m.refreshMappings()
}

// refreshMappings re-runs the local filter; it completes synchronously.
func (m *Model) refreshMappings() {
	_ = m.mappings.Refresh(m.ctx)
	m.mappingList.SetItems(mappingItems(m.mappings.Items(), m.deps.MaxConfidence))
}

func (m *Model) showPrograms() {
	m.programList.SetItems(programItems(m.programs.Items(), m.deps.Location))
	m.pager.SetTotalPages(max(m.programs.TotalPages(), 1))
	m.pager.Page = m.programs.Filter().Page - 1
}

func (m *Model) cycleProgramChannel() tea.Cmd {
	m.channelIdx = (m.channelIdx + 1) % (len(m.channels) + 1)
	channelID := models.AllFilter
	if m.channelIdx > 0 {
		channelID = m.channels[m.channelIdx-1].ChannelID
	}
	if m.programs.SetChannel(channelID) {
		return m.loadPrograms()
	}
	return nil
}

func (m *Model) shiftProgramDate(days int) tea.Cmd {
	current, err := shared.ParseDate(m.programs.Filter().Date)
	if err != nil {
		current = time.Now().In(m.deps.Location)
	}
	if m.programs.SetDate(current.AddDate(0, 0, days).Format(shared.DateLayout)) {
		return m.loadPrograms()
	}
	return nil
}

func (m *Model) showLogin() tea.Cmd {
	m.view = LoginView
	m.loginFocus = 0
	m.password.Blur()
	return m.username.Focus()
}

func (m *Model) loadAll() tea.Cmd {
	cmds := []tea.Cmd{m.loadChannels(), m.loadMappings()}
	if m.tab == ProgramsTab {
		cmds = append(cmds, m.loadPrograms())
	}
	return tea.Batch(cmds...)
}

func (m *Model) hydrate() tea.Cmd {
	return func() tea.Msg {
		m.deps.Session.Hydrate()
		return hydratedMsg{state: m.deps.Session.State()}
	}
}

func (m *Model) loadChannels() tea.Cmd {
	return func() tea.Msg {
		channels, err := m.deps.API.ListChannels(m.ctx)
		return channelsFetchedMsg{channels: channels, err: err}
	}
}

func (m *Model) loadMappings() tea.Cmd {
	return func() tea.Msg {
		mappings, err := m.deps.API.ListMappings(m.ctx)
		return mappingsFetchedMsg{mappings: mappings, err: err}
	}
}

func (m *Model) loadPrograms() tea.Cmd {
	m.programsLoaded = true
	return func() tea.Msg {
		return programsFetchedMsg{err: m.programs.Refresh(m.ctx)}
	}
}

func (m *Model) deleteChannel(channelID string) tea.Cmd {
	return func() tea.Msg {
		return channelDeletedMsg{channelID: channelID, err: m.deps.API.DeleteChannel(m.ctx, channelID)}
	}
}

func (m *Model) syncChannel(channelID string) tea.Cmd {
	return func() tea.Msg {
		entry, err := m.deps.Syncer.SyncChannel(m.ctx, channelID, "", "")
		return syncDoneMsg{entry: entry, err: err}
	}
}

func (m *Model) syncAll() tea.Cmd {
	return func() tea.Msg {
		entry, err := m.deps.Syncer.SyncAll(m.ctx, false)
		return syncDoneMsg{entry: entry, err: err}
	}
}

func (m *Model) renderMain() string {
	var b strings.Builder

	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if Tab(i) == m.tab {
			tabs[i] = styles.activeTab.Render(name)
		} else {
			tabs[i] = styles.tab.Render(name)
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if user := m.deps.Session.User(); user != nil {
		header += styles.help.Render("  signed in as " + user.Username)
	}
	b.WriteString(header + "\n\n")

	switch m.tab {
	case ChannelsTab:
		b.WriteString(m.channelList.View())
	case MappingsTab:
		b.WriteString(m.renderMappings())
	case ProgramsTab:
		b.WriteString(m.renderPrograms())
	case SyncLogTab:
		b.WriteString(m.renderSyncLog())
	}

	if m.pendingDelete != nil {
		prompt := fmt.Sprintf("Delete channel %s (%s)? This cannot be undone.", m.pendingDelete.DisplayName, m.pendingDelete.ChannelID)
		b.WriteString("\n\n" + styles.warn.Render(prompt) + "\n" + m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no}))
		return b.String()
	}

	if toast := m.renderToast(); toast != "" {
		b.WriteString("\n\n" + toast)
	}
	b.WriteString("\n\n" + m.help.ShortHelpView(m.keys.tabHelp(m.tab)))
	return b.String()
}

func (m *Model) renderToast() string {
	n, ok := m.toasts.Last()
	if !ok {
		return ""
	}
	text := n.Title
	if n.Description != "" {
		text = fmt.Sprintf("%s: %s", n.Title, n.Description)
	}
	switch n.Level {
	case notify.Failure:
		return styles.err.Render(text)
	case notify.Success:
		return styles.ok.Render(text)
	default:
		return styles.warn.Render(text)
	}
}

func (m *Model) renderMappings() string {
	f := m.mappings.Filter()
	status := fmt.Sprintf("provider: %s • %d of %d mappings", f.ProviderID, m.mappings.Total(), len(m.mappingSource.All()))
	if m.searching || f.FreeText != "" {
		status = m.search.View() + "\n" + status
	}
	return status + "\n\n" + m.mappingList.View()
}

func (m *Model) renderPrograms() string {
	f := m.programs.Filter()
	status := fmt.Sprintf("channel: %s • date: %s • %s", f.ChannelID, f.Date,
		formatter.PageFooter(f.Page, m.programs.TotalPages(), m.programs.Total(), "programs"))
	if m.programs.Loading() {
		status = m.spinner.View() + " " + status
	}
	return status + "\n\n" + m.programList.View() + "\n" + m.pager.View()
}

func (m *Model) renderSyncLog() string {
	if m.deps.SyncLog == nil {
		return styles.help.Render("Sync log unavailable")
	}
	entries := m.deps.SyncLog.Entries()
	if len(entries) == 0 {
		return styles.help.Render("No syncs recorded yet")
	}
	s := m.deps.SyncLog.Summary()
	summary := fmt.Sprintf("%d total • %s • %s", s.Total,
		styles.ok.Render(fmt.Sprintf("%d succeeded", s.Success)),
		styles.err.Render(fmt.Sprintf("%d failed", s.Failed)))
	return summary + "\n\n" + formatter.SyncLogTable(entries, m.deps.Location)
}
