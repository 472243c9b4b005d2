package tui

import (
	"github.com/csheth/eduforge/internal/api"
	"github.com/csheth/eduforge/internal/assessment"
	"github.com/csheth/eduforge/internal/auth"
	"github.com/csheth/eduforge/internal/generator"
	"github.com/csheth/eduforge/internal/navigation"
)

type focus int

const (
	focusSidebar focus = iota
	focusForm
	focusResult
	focusFollowUp
	focusProfile
	focusToken
)

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	sidebarWidth              = 34
	titlePreviewLimit         = 28
)

// pageState is the in-page generation state of one generator feature.
type pageState struct {
	feature       navigation.Feature
	form          generator.Form
	values        generator.Values
	field         int
	threadID      string
	title         string
	result        *api.GenerationResult
	prepared      *assessment.Prepared
	showAnswerKey bool
	loading       bool
	pending       int64
	err           string
}

func newPageState(f navigation.Feature) *pageState {
	form, _ := generator.FormFor(f)
	return &pageState{
		feature: f,
		form:    form,
		values:  form.Defaults(),
	}
}

func (p *pageState) currentField() (generator.Field, bool) {
	if p.field < 0 || p.field >= len(p.form.Fields) {
		return generator.Field{}, false
	}
	return p.form.Fields[p.field], true
}

func (p *pageState) hasResult() bool {
	return p.result != nil
}

// markdown is the text exported and copied for the current result.
func (p *pageState) markdown() string {
	if p.result == nil {
		return ""
	}
	if p.prepared != nil {
		return p.prepared.Markdown(p.showAnswerKey)
	}
	return p.result.Markdown
}

type sessionResultMsg struct {
	state auth.State
	err   error
}

type modelResultMsg struct {
	state auth.State
	model string
	err   error
}

type conversationsSyncedMsg struct {
	err error
}

type deleteResultMsg struct {
	threadID string
	err      error
}

type threadResultMsg struct {
	feature  navigation.Feature
	threadID string
	token    int64
	result   api.GenerationResult
	err      error
}

type generateResultMsg struct {
	feature navigation.Feature
	token   int64
	result  api.GenerationResult
	err     error
}

type exportResultMsg struct {
	path string
	err  error
}

type copyResultMsg struct {
	err error
}

type versionResultMsg struct {
	version string
	err     error
}

type preferencesSavedMsg struct {
	err error
}
