package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/eduforge/internal/assessment"
	"github.com/csheth/eduforge/internal/conversations"
	"github.com/csheth/eduforge/internal/generator"
	"github.com/csheth/eduforge/internal/navigation"
)

func (m *model) View() string {
	m.refreshViewportIfDirty()
	side := lipgloss.NewStyle().
		Width(m.layout.sidebarWidth).
		PaddingRight(1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(m.theme.BorderColor).
		Render(m.sidebarView())
	main := lipgloss.NewStyle().PaddingLeft(2).Render(m.pageView())
	body := lipgloss.JoinHorizontal(lipgloss.Top, side, main)

	parts := []string{body}
	if m.errorMessage != "" {
		parts = append(parts, m.theme.Error.Render(m.errorMessage))
	} else if m.infoMessage != "" {
		parts = append(parts, m.theme.Helper.Render(m.infoMessage))
	}
	parts = append(parts, m.sessionMeterView(), m.keyLegendView())
	if m.helpVisible {
		parts = append(parts, m.helpView())
	}
	return joinNonEmpty(parts)
}

func (m *model) sidebarView() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render(m.t("app.title")))
	b.WriteRune('\n')
	b.WriteString(m.theme.Subtitle.Render(m.t("app.tagline")))
	b.WriteString("\n\n")

	current := m.history.Current()
	for i, f := range navigation.Generators {
		b.WriteString(m.navLine(strconv.Itoa(i+1), f, current.Feature == f))
		b.WriteRune('\n')
	}
	b.WriteString(m.navLine("p", navigation.FeatureProfile, current.Feature == navigation.FeatureProfile))
	b.WriteString("\n\n")

	b.WriteString(m.theme.SectionHeader.Render(m.t("sidebar.conversations")))
	b.WriteRune('\n')
	b.WriteString(m.theme.Muted.Render(m.t("sidebar.filter", m.filterLabel(m.convs.Filter))))
	b.WriteRune('\n')

	switch {
	case !m.auth.SignedIn():
		b.WriteString(m.theme.Helper.Render(wordwrap.String(m.t("sidebar.signed_out"), m.layout.sidebarWidth-2)))
		return b.String()
	case m.convs.Loading:
		b.WriteString(m.theme.Helper.Render(fmt.Sprintf("%s %s", m.spinner.View(), m.t("sidebar.loading"))))
		b.WriteRune('\n')
	}
	if m.convs.Err != nil {
		b.WriteString(m.theme.Error.Render(wordwrap.String(m.convs.Err.Error(), m.layout.sidebarWidth-2)))
		b.WriteRune('\n')
	}
	if len(m.convs.Conversations) == 0 && !m.convs.Loading {
		b.WriteString(m.theme.Helper.Render(m.t("sidebar.empty")))
		return b.String()
	}

	start, end := visibleRange(len(m.convs.Conversations), m.cursor, m.layout.sidebarRows)
	for i := start; i < end; i++ {
		b.WriteString(m.conversationLine(i, current))
		b.WriteRune('\n')
	}
	if m.confirmDelete != "" {
		title := m.confirmDelete
		if conv, ok := m.store.Lookup(m.confirmDelete); ok {
			title = conv.DisplayTitle()
		}
		b.WriteString(m.theme.Error.Render(m.t("sidebar.confirm_delete", previewText(title, titlePreviewLimit))))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *model) navLine(key string, f navigation.Feature, active bool) string {
	label := m.theme.Key.Render(key) + " " + m.t("nav."+f.Key())
	if active {
		return m.theme.Accent.Render("▸ ") + label
	}
	return "  " + label
}

func (m *model) conversationLine(i int, current navigation.Location) string {
	conv := m.convs.Conversations[i]
	marker := "  "
	if conv.ThreadID == current.ThreadID && current.ThreadID != "" {
		marker = m.theme.Accent.Render("● ")
	}
	title := previewText(conv.DisplayTitle(), titlePreviewLimit)
	if i == m.cursor && m.focus == focusSidebar {
		title = m.theme.Selected.Render(title)
	}
	detail := m.theme.Muted.Render("  " + m.typeLabel(conv.Type))
	return marker + title + "\n" + detail
}

func (m *model) filterLabel(t conversations.Type) string {
	if t == conversations.TypeAll {
		return m.t("type.all")
	}
	return m.typeLabel(t)
}

func (m *model) typeLabel(t conversations.Type) string {
	if !t.Known() {
		return string(t)
	}
	return m.t("type." + string(t))
}

func (m *model) pageView() string {
	loc := m.history.Current()
	header := m.theme.Title.Render(m.pageTitle(loc)) + "  " + m.theme.Muted.Render(loc.Path())
	if loc.Feature == navigation.FeatureProfile {
		return joinNonEmpty([]string{header, m.profileView()})
	}
	page, ok := m.pages[loc.Feature]
	if !ok {
		return joinNonEmpty([]string{header, m.theme.Helper.Render(m.t("page.welcome"))})
	}

	parts := []string{header}
	if page.hasResult() || page.loading {
		parts = append(parts, m.viewport.View())
		if page.loading && page.hasResult() {
			parts = append(parts, m.theme.Helper.Render(fmt.Sprintf("%s %s", m.spinner.View(), m.t("page.generating"))))
		}
	} else {
		parts = append(parts, m.formView(page))
	}
	if page.err != "" {
		parts = append(parts, m.theme.Error.Render(page.err))
	}
	if m.focus == focusFollowUp {
		parts = append(parts, m.input.View())
	}
	return joinNonEmpty(parts)
}

func (m *model) pageTitle(loc navigation.Location) string {
	if loc.Feature == navigation.FeatureNone {
		return m.t("app.title")
	}
	title := m.t("nav." + loc.Feature.Key())
	if page, ok := m.pages[loc.Feature]; ok && page.title != "" {
		title += " · " + previewText(page.title, 48)
	}
	return title
}

func (m *model) formView(page *pageState) string {
	var b strings.Builder
	for i, field := range page.form.Fields {
		selected := i == page.field && m.focus == focusForm
		label := m.t(field.Label)
		if field.Required {
			label += " *"
		}
		if selected {
			b.WriteString(m.theme.Accent.Render("› " + label))
		} else {
			b.WriteString(m.theme.SectionHeader.Render("  " + label))
		}
		b.WriteRune('\n')
		b.WriteString("  ")
		b.WriteString(m.fieldValueView(page, field, selected))
		b.WriteString("\n\n")
	}
	b.WriteString(m.theme.Helper.Render(m.t("page.form_hint")))
	return b.String()
}

func (m *model) fieldValueView(page *pageState, field generator.Field, selected bool) string {
	value := page.values[field.Name]
	switch field.Kind {
	case generator.KindChoice, generator.KindToggle:
		choice := value
		if field.Kind == generator.KindToggle {
			choice = m.t("toggle." + strings.ToLower(strings.TrimSpace(value)))
		}
		if selected {
			return m.theme.Accent.Render("‹ ") + m.theme.Selected.Render(choice) + m.theme.Accent.Render(" ›")
		}
		return choice
	}
	if selected {
		return m.input.View()
	}
	if strings.TrimSpace(value) == "" {
		return m.theme.Muted.Render("—")
	}
	return previewText(value, m.wrapWidth(6))
}

func (m *model) refreshViewportIfDirty() {
	if !m.viewportDirty {
		return
	}
	m.viewportDirty = false
	page := m.currentPage()
	if page == nil {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(m.resultContent(page))
}

func (m *model) resultContent(page *pageState) string {
	switch {
	case page.result == nil && page.loading:
		key := "page.generating"
		if page.threadID != "" {
			key = "page.loading_thread"
		}
		return m.theme.Helper.Render(fmt.Sprintf("%s %s", m.spinner.View(), m.t(key)))
	case page.result == nil:
		return ""
	case page.prepared != nil:
		return m.assessmentContent(*page.prepared, page.showAnswerKey)
	default:
		return m.renderer.Markdown(page.result.Markdown, m.wrapWidth(2))
	}
}

// assessmentContent renders an assessment. The answer key adds correct
// option markers, answers, explanations, key points and rubrics.
func (m *model) assessmentContent(p assessment.Prepared, showAnswerKey bool) string {
	a := p.Assessment
	wrap := m.wrapWidth(6)
	cb := &contentBuilder{}

	cb.WriteString(m.theme.Title.Render(a.Title))
	cb.WriteRune('\n')
	var meta []string
	if a.Type != "" {
		meta = append(meta, m.theme.Badge.Render(a.Type))
	}
	if a.TotalPoints > 0 {
		meta = append(meta, m.theme.Badge.Render(m.t("assessment.points", formatPoints(a.TotalPoints))))
	}
	if a.EstimatedDurationMinutes > 0 {
		meta = append(meta, m.theme.Badge.Render(m.t("assessment.duration", a.EstimatedDurationMinutes)))
	}
	meta = append(meta, m.theme.Badge.Render(m.t("assessment.questions", a.QuestionCount())))
	cb.WriteString(strings.Join(meta, " "))
	cb.WriteRune('\n')
	if a.GeneralInstructions != "" {
		cb.WriteRune('\n')
		cb.WriteString(m.theme.Helper.Render(wordwrap.String(a.GeneralInstructions, wrap)))
		cb.WriteRune('\n')
	}

	number := 0
	for si, section := range a.Sections {
		cb.WriteRune('\n')
		cb.WriteString(m.theme.SectionHeader.Render(section.Title))
		cb.WriteString("  ")
		cb.WriteString(m.theme.Muted.Render(section.Type.Label()))
		cb.WriteRune('\n')
		if section.Instructions != "" {
			cb.WriteString(m.theme.Helper.Render(wordwrap.String(section.Instructions, wrap)))
			cb.WriteRune('\n')
		}
		for qi, q := range section.Questions {
			number++
			cb.WriteRune('\n')
			m.writeQuestion(cb, number, q, p.Rubric(si, qi), showAnswerKey, wrap)
		}
	}
	return cb.String()
}

func (m *model) writeQuestion(cb *contentBuilder, number int, q assessment.Question, rubric assessment.Rubric, showAnswerKey bool, wrap int) {
	text := wordwrap.String(q.Text, wrap)
	cb.WriteString(m.theme.Accent.Render(fmt.Sprintf("%d.", number)))
	cb.WriteRune(' ')
	cb.WriteString(indentMultiline(text, "   ")[3:])
	var badges []string
	if q.Difficulty != "" {
		badges = append(badges, m.theme.Badge.Render(q.Difficulty.Label()))
	}
	if q.Points > 0 {
		badges = append(badges, m.theme.Badge.Render(m.t("assessment.points", formatPoints(q.Points))))
	}
	if len(badges) > 0 {
		cb.WriteString("  ")
		cb.WriteString(strings.Join(badges, " "))
	}
	cb.WriteRune('\n')

	for _, opt := range q.Options {
		line := fmt.Sprintf("%s. %s", opt.Label, opt.Text)
		if showAnswerKey && opt.IsCorrect {
			cb.WriteString("   " + m.theme.Success.Render(line+" ✓"))
		} else {
			cb.WriteString("   " + line)
		}
		cb.WriteRune('\n')
	}
	if !showAnswerKey {
		return
	}
	if q.CorrectAnswer != "" {
		cb.WriteString(indentMultiline(m.theme.Answer.Render(m.t("assessment.answer", q.CorrectAnswer)), "   "))
		cb.WriteRune('\n')
	}
	if q.Explanation != "" {
		cb.WriteString(indentMultiline(m.theme.Helper.Render(wordwrap.String(m.t("assessment.explanation", q.Explanation), wrap-3)), "   "))
		cb.WriteRune('\n')
	}
	if len(q.KeyPoints) > 0 {
		cb.WriteString("   " + m.theme.SectionHeader.Render(m.t("assessment.key_points")))
		cb.WriteRune('\n')
		for _, point := range q.KeyPoints {
			cb.WriteString("    • " + point)
			cb.WriteRune('\n')
		}
	}
	m.writeRubric(cb, rubric, wrap)
}

func (m *model) writeRubric(cb *contentBuilder, rubric assessment.Rubric, wrap int) {
	if rubric.Kind == assessment.RubricEmpty {
		return
	}
	cb.WriteString("   " + m.theme.SectionHeader.Render(m.t("assessment.rubric")))
	cb.WriteRune('\n')
	if rubric.Kind == assessment.RubricRaw {
		cb.WriteString(indentMultiline(wordwrap.String(rubric.Text, wrap-4), "    "))
		cb.WriteRune('\n')
		return
	}
	for _, item := range rubric.ListItems() {
		cb.WriteString("    • " + item)
		cb.WriteRune('\n')
	}
	if badges := rubric.Badges(); len(badges) > 0 {
		rendered := make([]string, 0, len(badges))
		for _, badge := range badges {
			rendered = append(rendered, m.theme.Badge.Render(badge))
		}
		cb.WriteString("    " + strings.Join(rendered, " "))
		cb.WriteRune('\n')
	}
}

func formatPoints(points float64) string {
	return strconv.FormatFloat(points, 'f', -1, 64)
}

func (m *model) profileView() string {
	state := m.auth
	if !state.SignedIn() {
		lines := []string{
			m.theme.Helper.Render(m.t("profile.signed_out")),
			m.theme.Helper.Render(m.t("profile.login_hint")),
		}
		if m.focus == focusToken {
			lines = append(lines, m.input.View())
		}
		return joinNonEmpty(lines)
	}

	user := state.User
	var b strings.Builder
	b.WriteString(m.t("profile.user", user.DisplayName()))
	b.WriteRune('\n')
	if user.Email != "" {
		b.WriteString(m.t("profile.email", user.Email))
		b.WriteRune('\n')
	}
	if state.Role != "" {
		b.WriteString(m.t("profile.role", state.Role))
		b.WriteRune('\n')
	}
	keyState := m.theme.Error.Render(m.t("profile.api_key_missing"))
	if state.Settings.HasAPIKey {
		keyState = m.theme.Success.Render(m.t("profile.api_key_set"))
	}
	b.WriteString(m.t("profile.api_key", keyState))
	b.WriteRune('\n')
	b.WriteString(m.t("profile.model", m.modelLabel()))
	b.WriteString("\n\n")

	b.WriteString(m.theme.SectionHeader.Render(m.t("profile.models")))
	b.WriteRune('\n')
	switch {
	case state.IsLoadingSettings:
		b.WriteString(m.theme.Helper.Render(fmt.Sprintf("%s %s", m.spinner.View(), m.t("profile.loading_settings"))))
	case len(state.Settings.AvailableModels) == 0:
		b.WriteString(m.theme.Helper.Render(m.t("profile.no_models")))
	default:
		for i, candidate := range state.Settings.AvailableModels {
			marker := "  "
			if candidate.ID == state.Settings.PreferredModel {
				marker = m.theme.Accent.Render("● ")
			}
			label := candidate.Label
			if label == "" {
				label = candidate.ID
			}
			if i == m.modelCursor && m.focus == focusProfile {
				label = m.theme.Selected.Render(label)
			}
			b.WriteString(marker + label)
			b.WriteRune('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *model) modelLabel() string {
	preferred := m.auth.Settings.PreferredModel
	if preferred == "" {
		return m.t("status.default_model")
	}
	return m.auth.Settings.ModelLabel(preferred)
}

func (m *model) sessionMeterView() string {
	user := m.t("status.anonymous")
	if m.auth.User != nil {
		user = m.auth.User.DisplayName()
	}
	stats := []string{
		m.history.Current().Path(),
		user,
		m.modelLabel(),
		m.prefs.Theme,
		m.prefs.Language,
	}
	if m.serverVersion != "" {
		stats = append(stats, m.t("status.server", m.serverVersion))
	}
	if badges := m.jobStatusBadges(); len(badges) > 0 {
		stats = append(stats, badges...)
	}
	return m.theme.StatusBar.Render(strings.Join(stats, "  •  "))
}

func (m *model) jobStatusBadges() []string {
	if len(m.running) == 0 {
		return nil
	}
	counts := map[jobKind]int{}
	for _, snapshot := range m.running {
		counts[snapshot.Kind]++
	}
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	badges := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		badges = append(badges, fmt.Sprintf("%s %s×%d", m.spinner.View(), kind, counts[jobKind(kind)]))
	}
	return badges
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyHints() []keyHint {
	switch m.focus {
	case focusForm:
		return []keyHint{
			{"tab/↑↓", m.t("key.next_field")},
			{"←/→", m.t("key.change")},
			{"enter", m.t("key.generate")},
			{"esc", m.t("key.back")},
		}
	case focusFollowUp, focusToken:
		return []keyHint{
			{"enter", m.t("key.send")},
			{"esc", m.t("key.cancel")},
		}
	}
	if m.confirmDelete != "" {
		return []keyHint{{"y", m.t("key.confirm")}, {"n", m.t("key.cancel")}}
	}

	var hints []keyHint
	switch m.focus {
	case focusResult:
		hints = append(hints, keyHint{"↑/↓", m.t("key.scroll")})
		if m.actionAvailable(actionToggleAnswers) {
			hints = append(hints, keyHint{"a", m.t("key.answers")})
		}
		if m.actionAvailable(actionExport) {
			hints = append(hints, keyHint{"e", m.t("key.export")}, keyHint{"y", m.t("key.copy")})
		}
		if m.actionAvailable(actionFollowUp) {
			hints = append(hints, keyHint{"c", m.t("key.followup")})
		}
		hints = append(hints, keyHint{"n", m.t("key.new")})
	case focusProfile:
		if m.actionAvailable(actionLogin) {
			hints = append(hints, keyHint{"l", m.t("key.login")})
		}
		if m.actionAvailable(actionSelectModel) {
			hints = append(hints, keyHint{"j/k", m.t("key.navigate")}, keyHint{"enter", m.t("key.select_model")})
		}
		if m.actionAvailable(actionLogout) {
			hints = append(hints, keyHint{"o", m.t("key.logout")})
		}
	default:
		if m.actionAvailable(actionOpen) {
			hints = append(hints, keyHint{"j/k", m.t("key.navigate")}, keyHint{"enter", m.t("key.open")}, keyHint{"d", m.t("key.delete")})
		}
		if m.actionAvailable(actionFilter) {
			hints = append(hints, keyHint{"f", m.t("key.filter")}, keyHint{"r", m.t("key.refresh")})
		}
	}
	return append(hints,
		keyHint{"1-4/p", m.t("key.pages")},
		keyHint{"tab", m.t("key.focus")},
		keyHint{"?", m.t("key.help")},
		keyHint{"q", m.t("key.quit")},
	)
}

func (m *model) keyLegendView() string {
	hints := m.keyHints()
	cells := make([]string, 0, len(hints))
	for _, hint := range hints {
		key := m.theme.Key.Render(hint.Key)
		desc := m.theme.KeyDesc.Render(" " + hint.Description + "  ")
		cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *model) helpView() string {
	lines := []string{
		m.theme.SectionHeader.Render(m.t("help.title")),
		m.theme.Helper.Render("• " + m.t("help.global")),
		m.theme.Helper.Render("• " + m.t("help.sidebar")),
		m.theme.Helper.Render("• " + m.t("help.form")),
		m.theme.Helper.Render("• " + m.t("help.result")),
		m.theme.Helper.Render("• " + m.t("help.profile")),
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.BorderColor).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}
