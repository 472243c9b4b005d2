package tui

import (
	"context"
	"errors"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/csheth/eduforge/internal/api"
	"github.com/csheth/eduforge/internal/assessment"
	"github.com/csheth/eduforge/internal/auth"
	"github.com/csheth/eduforge/internal/conversations"
	"github.com/csheth/eduforge/internal/generator"
	"github.com/csheth/eduforge/internal/i18n"
	"github.com/csheth/eduforge/internal/logger"
	"github.com/csheth/eduforge/internal/navigation"
	"github.com/csheth/eduforge/internal/prefs"
	"github.com/csheth/eduforge/internal/reference"
	"github.com/csheth/eduforge/internal/render"
	"github.com/csheth/eduforge/internal/theme"
)

const (
	defaultTimeout           = 60 * time.Second
	defaultGenerationTimeout = 3 * time.Minute
)

// Config wires the interface to its services. Zero values are usable:
// without a Backend every request fails with a visible error.
type Config struct {
	Context           context.Context
	Backend           Backend
	Token             string
	InitialPath       string
	ConversationLimit int
	Timeout           time.Duration
	GenerationTimeout time.Duration
	ExportDir         string
	PreferencesPath   string
	Preferences       prefs.Preferences
	Reference         *reference.Loader
	Clipboard         func(string) error
	SkipVersionCheck  bool
}

type model struct {
	config   Config
	backend  Backend
	store    *conversations.Store
	session  *auth.Session
	history  *navigation.History
	sidebar  *navigation.Sidebar
	tr       *i18n.Translator
	theme    *theme.Theme
	renderer *render.Renderer
	jobs     *jobBus
	running  map[string]jobSnapshot

	prefs       prefs.Preferences
	prefsWriter *prefs.Writer
	prefsRev    uint64
	auth        auth.State
	convs  conversations.Snapshot
	pages  map[navigation.Feature]*pageState
	cursor int

	confirmDelete string
	modelCursor   int
	serverVersion string
	tokenSeq      int64

	focus         focus
	input         textinput.Model
	spinner       spinner.Model
	viewport      viewport.Model
	layout        pageLayout
	viewportDirty bool
	helpVisible   bool
	infoMessage   string
	errorMessage  string
}

// New builds the root bubbletea model.
func New(cfg Config) tea.Model {
	if cfg.Backend == nil {
		cfg.Backend = offlineBackend{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = defaultGenerationTimeout
	}
	if cfg.Clipboard == nil {
		cfg.Clipboard = clipboard.WriteAll
	}
	p := cfg.Preferences
	if p.Language == "" {
		p.Language = prefs.DefaultLanguage
	}
	if !theme.Known(p.Theme) {
		p.Theme = prefs.DefaultTheme
	}

	tr, err := i18n.New(p.Language)
	if err != nil {
		logger.Error("message catalogs unavailable", "err", err)
	}
	if tr != nil {
		p.Language = tr.Language()
	}

	input := textinput.New()
	input.Prompt = "› "
	input.CharLimit = 2000

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	store := conversations.NewStore(cfg.Backend, cfg.ConversationLimit)
	history := navigation.NewHistory(cfg.InitialPath)

	m := &model{
		config:      cfg,
		backend:     cfg.Backend,
		store:       store,
		session:     auth.NewSession(cfg.Backend),
		history:     history,
		tr:          tr,
		theme:       theme.MustLoad(p.Theme),
		renderer:    render.New(render.StyleForTheme(p.Theme)),
		jobs:        newJobBus(cfg.Context),
		running:     map[string]jobSnapshot{},
		prefs:       p,
		prefsWriter: prefs.NewWriter(cfg.PreferencesPath),
		pages:       map[navigation.Feature]*pageState{},
		input:       input,
		spinner:     spin,
		viewport:    viewport.New(80, 20),
		layout:      newPageLayout(),
	}
	m.sidebar = navigation.NewSidebar(history, store, m.resetPage)
	for _, f := range navigation.Generators {
		m.pages[f] = newPageState(f)
	}
	m.auth = m.session.Snapshot()
	m.convs = store.Snapshot()
	return m
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if !m.config.SkipVersionCheck {
		cmds = append(cmds, m.jobs.Start(jobKindVersion, versionJob(m.backend, m.config.Timeout)))
	}
	if m.config.Token != "" {
		cmds = append(cmds, m.jobs.Start(jobKindSession, loginJob(m.session, m.config.Token, m.config.Timeout)))
	}
	cmds = append(cmds, m.syncLocation(m.history.Current()))
	return tea.Batch(cmds...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.viewportWidth
		m.viewport.Height = m.layout.viewportHeight
		m.input.Width = m.layout.viewportWidth - 4
		m.markViewportDirty()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if page := m.currentPage(); page != nil && page.loading && !page.hasResult() {
			m.markViewportDirty()
		}
		return m, cmd
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case jobSignalMsg:
		m.running[msg.Snapshot.ID] = msg.Snapshot
		return m, nil
	case jobResultEnvelope:
		delete(m.running, msg.Snapshot.ID)
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case sessionResultMsg:
		return m, m.applySession(msg.state, msg.err)
	case modelResultMsg:
		m.auth = msg.state
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setInfo(m.t("status.model_updated", msg.state.Settings.ModelLabel(msg.model)))
		return m, nil
	case conversationsSyncedMsg:
		m.refreshConversations()
		return m, nil
	case deleteResultMsg:
		return m, m.applyDelete(msg)
	case threadResultMsg:
		m.applyThread(msg)
		return m, nil
	case generateResultMsg:
		return m, m.applyGenerate(msg)
	case exportResultMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setInfo(m.t("status.exported", msg.path))
		return m, nil
	case copyResultMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setInfo(m.t("status.copied"))
		return m, nil
	case versionResultMsg:
		m.serverVersion = msg.version
		if msg.err != nil && !errors.Is(msg.err, errOffline) {
			m.setError(msg.err)
		}
		return m, nil
	case preferencesSavedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyCtrlC {
		m.store.Close()
		return m, tea.Quit
	}
	switch m.focus {
	case focusForm:
		return m.handleFormKey(key)
	case focusFollowUp:
		return m.handleFollowUpKey(key)
	case focusToken:
		return m.handleTokenKey(key)
	}

	if m.confirmDelete != "" {
		return m.handleConfirmKey(key)
	}
	if cmd, handled := m.handleGlobalKey(key); handled {
		return m, cmd
	}
	switch m.focus {
	case focusResult:
		return m.handleResultKey(key)
	case focusProfile:
		return m.handleProfileKey(key)
	default:
		return m.handleSidebarKey(key)
	}
}

// handleGlobalKey covers the keys shared by every non-editing focus.
func (m *model) handleGlobalKey(key tea.KeyMsg) (tea.Cmd, bool) {
	switch key.String() {
	case "q":
		m.store.Close()
		return tea.Quit, true
	case "?":
		m.helpVisible = !m.helpVisible
		return nil, true
	case "esc":
		if m.helpVisible {
			m.helpVisible = false
			return nil, true
		}
		if m.focus != focusSidebar {
			m.focus = focusSidebar
			return nil, true
		}
		return nil, true
	case "tab":
		if m.focus == focusSidebar {
			return m.focusPage(), true
		}
		m.focus = focusSidebar
		return nil, true
	case "1", "2", "3", "4":
		idx := int(key.Runes[0] - '1')
		return m.navigate(navigation.Generators[idx]), true
	case "p":
		return m.navigate(navigation.FeatureProfile), true
	case "t":
		return m.toggleTheme(), true
	case "L":
		return m.cycleLanguage(), true
	}
	return nil, false
}

func (m *model) handleSidebarKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = len(m.convs.Conversations) - 1
		m.moveCursor(0)
	case "enter":
		if conv, ok := m.selectedConversation(); ok {
			return m, m.openConversation(conv)
		}
	case "d":
		if conv, ok := m.selectedConversation(); ok && m.actionAvailable(actionDelete) {
			m.confirmDelete = conv.ThreadID
		}
	case "f":
		if m.actionAvailable(actionFilter) {
			if m.store.FilterByType(conversations.NextFilter(m.convs.Filter)) {
				m.cursor = 0
				return m, m.fetchConversations()
			}
		}
	case "r":
		if m.actionAvailable(actionRefresh) {
			return m, m.fetchConversations()
		}
	}
	return m, nil
}

func (m *model) handleConfirmKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	threadID := m.confirmDelete
	m.confirmDelete = ""
	switch key.String() {
	case "y", "Y", "enter":
		return m, m.jobs.Start(jobKindDelete, deleteConversationJob(m.store, threadID, m.config.Timeout))
	}
	return m, nil
}

func (m *model) handleFormKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.currentPage()
	if page == nil {
		m.focus = focusSidebar
		return m, nil
	}
	field, ok := page.currentField()
	switch key.Type {
	case tea.KeyEsc:
		m.commitField(page)
		m.input.Blur()
		m.focus = focusSidebar
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		m.moveField(page, 1)
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.moveField(page, -1)
		return m, nil
	case tea.KeyEnter:
		m.commitField(page)
		return m, m.submitForm(page)
	}
	if ok && (field.Kind == generator.KindChoice || field.Kind == generator.KindToggle) {
		switch key.String() {
		case "left", "right", " ":
			page.values[field.Name] = field.CycleChoice(page.values[field.Name])
			m.input.SetValue(page.values[field.Name])
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	if ok {
		page.values[field.Name] = m.input.Value()
	}
	return m, cmd
}

func (m *model) handleResultKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.currentPage()
	if page == nil {
		return m, nil
	}
	switch key.String() {
	case "a":
		if m.actionAvailable(actionToggleAnswers) {
			page.showAnswerKey = !page.showAnswerKey
			m.markViewportDirty()
			if page.showAnswerKey {
				m.setInfo(m.t("assessment.answer_key_on"))
			} else {
				m.setInfo(m.t("assessment.answer_key_off"))
			}
		}
		return m, nil
	case "e":
		if m.actionAvailable(actionExport) {
			return m, m.jobs.Start(jobKindExport, exportJob(m.backend, m.config.ExportDir, page.displayTitle(), page.markdown(), m.config.Timeout))
		}
		return m, nil
	case "y":
		if m.actionAvailable(actionCopy) {
			return m, m.jobs.Start(jobKindCopy, copyJob(m.config.Clipboard, page.markdown()))
		}
		return m, nil
	case "c":
		if m.actionAvailable(actionFollowUp) {
			m.beginInput(focusFollowUp, m.t("page.followup_placeholder"), "", false)
		}
		return m, nil
	case "n":
		return m, m.navigate(page.feature)
	case "i":
		if !page.loading {
			m.beginFormEditing(page)
		}
		return m, nil
	case "g", "home":
		m.viewport.GotoTop()
		return m, nil
	case "G", "end":
		m.viewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

func (m *model) handleFollowUpKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.endInput(focusResult)
		return m, nil
	case tea.KeyEnter:
		message := m.input.Value()
		m.endInput(focusResult)
		return m, m.submitFollowUp(message)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

func (m *model) handleProfileKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	models := m.auth.Settings.AvailableModels
	switch key.String() {
	case "l":
		if m.actionAvailable(actionLogin) {
			m.beginInput(focusToken, m.t("profile.token_placeholder"), "", true)
		}
	case "o":
		if m.actionAvailable(actionLogout) {
			return m, m.logout()
		}
	case "j", "down":
		if m.modelCursor < len(models)-1 {
			m.modelCursor++
		}
	case "k", "up":
		if m.modelCursor > 0 {
			m.modelCursor--
		}
	case "enter":
		if m.actionAvailable(actionSelectModel) && m.modelCursor < len(models) {
			id := models[m.modelCursor].ID
			return m, m.jobs.Start(jobKindModel, setModelJob(m.session, id, m.config.Timeout))
		}
	}
	return m, nil
}

func (m *model) handleTokenKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.endInput(focusProfile)
		return m, nil
	case tea.KeyEnter:
		token := m.input.Value()
		m.endInput(focusProfile)
		return m, m.jobs.Start(jobKindSession, loginJob(m.session, token, m.config.Timeout))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

// navigate follows a nav link and syncs the page with the new location.
func (m *model) navigate(f navigation.Feature) tea.Cmd {
	loc := m.sidebar.ClickNav(f)
	cmd := m.syncLocation(loc)
	return tea.Batch(cmd, m.focusPage())
}

func (m *model) openConversation(conv conversations.SavedConversation) tea.Cmd {
	loc, err := m.sidebar.Open(conv)
	if err != nil {
		m.setError(errors.New(m.t("status.not_routable", string(conv.Type))))
		return nil
	}
	cmd := m.syncLocation(loc)
	m.focus = focusResult
	return cmd
}

// syncLocation hydrates the page behind loc. A thread id different from the
// one the page shows starts a thread load.
func (m *model) syncLocation(loc navigation.Location) tea.Cmd {
	m.markViewportDirty()
	page, ok := m.pages[loc.Feature]
	if !ok || page.threadID == loc.ThreadID {
		return nil
	}
	if loc.ThreadID == "" {
		// the page keeps its thread; the route follows it
		m.history.Replace(navigation.Location{Feature: loc.Feature, ThreadID: page.threadID}.Path())
		return nil
	}
	token := m.nextToken()
	page.threadID = loc.ThreadID
	page.result = nil
	page.prepared = nil
	page.showAnswerKey = false
	page.loading = true
	page.pending = token
	page.err = ""
	page.title = ""
	if conv, ok := m.store.Lookup(loc.ThreadID); ok {
		page.title = conv.DisplayTitle()
	}
	return m.jobs.Start(jobKindThread, threadJob(m.backend, loc.Feature, loc.ThreadID, token, m.config.Timeout))
}

// focusPage moves focus to the active page and returns any blink command.
func (m *model) focusPage() tea.Cmd {
	loc := m.history.Current()
	if loc.Feature == navigation.FeatureProfile {
		m.focus = focusProfile
		return nil
	}
	page, ok := m.pages[loc.Feature]
	if !ok {
		m.focus = focusSidebar
		return nil
	}
	if page.hasResult() || page.loading {
		m.focus = focusResult
		return nil
	}
	return m.beginFormEditing(page)
}

func (m *model) beginFormEditing(page *pageState) tea.Cmd {
	m.focus = focusForm
	m.loadFieldInput(page)
	return m.input.Focus()
}

func (m *model) loadFieldInput(page *pageState) {
	field, ok := page.currentField()
	if !ok {
		return
	}
	m.input.EchoMode = textinput.EchoNormal
	m.input.Placeholder = m.t(field.Label)
	m.input.SetValue(page.values[field.Name])
	m.input.CursorEnd()
}

func (m *model) commitField(page *pageState) {
	field, ok := page.currentField()
	if !ok {
		return
	}
	if field.Kind == generator.KindText || field.Kind == generator.KindNumber {
		page.values[field.Name] = m.input.Value()
	}
}

func (m *model) moveField(page *pageState, delta int) {
	m.commitField(page)
	n := len(page.form.Fields)
	if n == 0 {
		return
	}
	page.field = (page.field + delta + n) % n
	m.loadFieldInput(page)
}

func (m *model) submitForm(page *pageState) tea.Cmd {
	if page.loading {
		return nil
	}
	if err := page.form.Validate(page.values); err != nil {
		page.err = m.validationMessage(page.form, err)
		var ve *generator.ValidationError
		if errors.As(err, &ve) {
			for i, field := range page.form.Fields {
				if field.Name == ve.Field {
					page.field = i
					m.loadFieldInput(page)
				}
			}
		}
		return nil
	}
	token := m.nextToken()
	page.loading = true
	page.pending = token
	page.err = ""
	m.input.Blur()
	m.focus = focusResult
	m.markViewportDirty()
	opts := m.requestOptions(uuid.NewString())
	return m.jobs.Start(jobKindGenerate, generateJob(m.backend, m.config.Reference, page.form, page.values, opts, token, m.config.GenerationTimeout))
}

func (m *model) submitFollowUp(message string) tea.Cmd {
	page := m.currentPage()
	if page == nil || !m.actionAvailable(actionFollowUp) {
		return nil
	}
	if _, err := generator.FollowUp(message, m.requestOptions(page.threadID)); err != nil {
		page.err = m.validationMessage(page.form, err)
		return nil
	}
	token := m.nextToken()
	page.loading = true
	page.pending = token
	page.err = ""
	m.markViewportDirty()
	return m.jobs.Start(jobKindGenerate, followUpJob(m.backend, page.feature, message, m.requestOptions(page.threadID), token, m.config.GenerationTimeout))
}

func (m *model) requestOptions(threadID string) generator.RequestOptions {
	return generator.RequestOptions{
		ThreadID: threadID,
		Model:    m.auth.Settings.PreferredModel,
		Language: m.prefs.Language,
	}
}

func (m *model) applySession(state auth.State, err error) tea.Cmd {
	if previous := m.auth.UserID(); previous != "" && previous != state.UserID() {
		for _, f := range navigation.Generators {
			m.resetPage(f)
		}
	}
	m.auth = state
	m.modelCursor = 0
	for i, candidate := range state.Settings.AvailableModels {
		if candidate.ID == state.Settings.PreferredModel {
			m.modelCursor = i
		}
	}
	var cmd tea.Cmd
	if m.store.SetUser(state.UserID()) {
		cmd = m.fetchConversations()
	}
	m.refreshConversations()
	if err != nil {
		m.setError(err)
		return cmd
	}
	if state.User != nil {
		m.setInfo(m.t("status.signed_in", state.User.DisplayName()))
	}
	return cmd
}

func (m *model) logout() tea.Cmd {
	m.auth = m.session.Logout()
	m.store.SetUser("")
	for _, f := range navigation.Generators {
		m.resetPage(f)
	}
	m.cursor = 0
	m.modelCursor = 0
	m.refreshConversations()
	m.setInfo(m.t("status.signed_out"))
	return nil
}

// fetchConversations issues a list request if a user is present.
func (m *model) fetchConversations() tea.Cmd {
	req := m.store.Begin()
	m.convs = m.store.Snapshot()
	if !m.convs.Loading {
		return nil
	}
	return m.jobs.Start(jobKindList, listConversationsJob(m.store, req, m.config.Timeout))
}

func (m *model) refreshConversations() {
	m.convs = m.store.Snapshot()
	m.moveCursor(0)
}

func (m *model) applyDelete(msg deleteResultMsg) tea.Cmd {
	m.refreshConversations()
	if msg.err != nil {
		m.setError(msg.err)
		return nil
	}
	m.setInfo(m.t("status.deleted"))
	loc, reset := m.sidebar.AfterDelete(msg.threadID)
	// background pages may still hold the deleted thread
	for f, page := range m.pages {
		if page.threadID == msg.threadID {
			m.resetPage(f)
		}
	}
	if reset {
		return m.syncLocation(loc)
	}
	return nil
}

func (m *model) applyThread(msg threadResultMsg) {
	page, ok := m.pages[msg.feature]
	if !ok || page.pending != msg.token || page.threadID != msg.threadID {
		return
	}
	page.loading = false
	page.pending = 0
	if msg.err != nil {
		page.err = msg.err.Error()
		m.markViewportDirty()
		return
	}
	m.setResult(page, msg.result)
}

func (m *model) applyGenerate(msg generateResultMsg) tea.Cmd {
	page, ok := m.pages[msg.feature]
	if !ok || page.pending != msg.token {
		return nil
	}
	page.loading = false
	page.pending = 0
	if msg.err != nil {
		page.err = m.validationMessage(page.form, msg.err)
		m.markViewportDirty()
		return nil
	}
	m.setResult(page, msg.result)
	m.store.Remember(msg.result.Conversation())
	if current := m.history.Current(); current.Feature == msg.feature && current.ThreadID != page.threadID {
		m.history.Replace(navigation.Location{Feature: msg.feature, ThreadID: page.threadID}.Path())
	}
	return m.fetchConversations()
}

func (m *model) setResult(page *pageState, result api.GenerationResult) {
	r := result
	page.result = &r
	page.threadID = r.ThreadID
	if r.Title != "" {
		page.title = r.Title
	}
	page.prepared = nil
	if r.Assessment != nil {
		prepared := assessment.Prepare(*r.Assessment)
		page.prepared = &prepared
		if page.title == "" {
			page.title = r.Assessment.Title
		}
	}
	page.err = ""
	m.viewport.GotoTop()
	m.markViewportDirty()
}

// resetPage drops the in-page state of f. Pending results for the old state
// no longer match and are discarded.
func (m *model) resetPage(f navigation.Feature) {
	if _, ok := m.pages[f]; !ok {
		return
	}
	m.pages[f] = newPageState(f)
	m.markViewportDirty()
}

// savePreferences snapshots the preferences under a new revision so an
// older save finishing late cannot overwrite them.
func (m *model) savePreferences() tea.Cmd {
	m.prefsRev++
	return m.jobs.Start(jobKindSavePrefs, savePreferencesJob(m.prefsWriter, m.prefsRev, m.prefs))
}

func (m *model) toggleTheme() tea.Cmd {
	name := theme.Next(m.prefs.Theme)
	m.prefs.Theme = name
	m.theme = theme.MustLoad(name)
	m.renderer.SetStyle(render.StyleForTheme(name))
	m.markViewportDirty()
	m.setInfo(m.t("status.theme", name))
	return m.savePreferences()
}

func (m *model) cycleLanguage() tea.Cmd {
	if m.tr == nil {
		return nil
	}
	m.prefs.Language = m.tr.Next()
	m.markViewportDirty()
	m.setInfo(m.t("status.language", m.prefs.Language))
	return m.savePreferences()
}

func (m *model) beginInput(target focus, placeholder, value string, secret bool) {
	m.focus = target
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.EchoMode = textinput.EchoNormal
	if secret {
		m.input.EchoMode = textinput.EchoPassword
	}
	m.input.Focus()
}

func (m *model) endInput(next focus) {
	m.input.SetValue("")
	m.input.EchoMode = textinput.EchoNormal
	m.input.Blur()
	m.focus = next
}

func (m *model) moveCursor(delta int) {
	n := len(m.convs.Conversations)
	m.cursor += delta
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *model) selectedConversation() (conversations.SavedConversation, bool) {
	if m.cursor < 0 || m.cursor >= len(m.convs.Conversations) {
		return conversations.SavedConversation{}, false
	}
	return m.convs.Conversations[m.cursor], true
}

func (m *model) currentPage() *pageState {
	return m.pages[m.history.Current().Feature]
}

func (m *model) nextToken() int64 {
	m.tokenSeq++
	return m.tokenSeq
}

func (m *model) validationMessage(form generator.Form, err error) string {
	var ve *generator.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	label := m.t("field." + ve.Field)
	if field, ok := form.Field(ve.Field); ok {
		label = m.t(field.Label)
	}
	args := append([]any{label}, ve.Args...)
	return m.t(ve.Key, args...)
}

func (m *model) t(key string, args ...any) string {
	if m.tr == nil {
		return key
	}
	return m.tr.T(key, args...)
}

func (m *model) setInfo(message string) {
	m.infoMessage = message
	m.errorMessage = ""
}

func (m *model) setError(err error) {
	m.errorMessage = err.Error()
	m.infoMessage = ""
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

func (p *pageState) displayTitle() string {
	if p.title != "" {
		return p.title
	}
	if p.result != nil && p.result.Title != "" {
		return p.result.Title
	}
	return p.feature.Key()
}
