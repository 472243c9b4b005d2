package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/eduforge/internal/api"
	"github.com/csheth/eduforge/internal/auth"
	"github.com/csheth/eduforge/internal/conversations"
	"github.com/csheth/eduforge/internal/export"
	"github.com/csheth/eduforge/internal/generator"
	"github.com/csheth/eduforge/internal/navigation"
	"github.com/csheth/eduforge/internal/prefs"
	"github.com/csheth/eduforge/internal/reference"
)

// Backend is everything the interface needs from the server.
type Backend interface {
	auth.Backend
	conversations.Source
	Thread(ctx context.Context, threadID string) (api.GenerationResult, error)
	Generate(ctx context.Context, feature string, req api.GenerationRequest) (api.GenerationResult, error)
	ExportDocx(ctx context.Context, markdown, filename string) ([]byte, error)
	CheckCompatible(ctx context.Context) (*semver.Version, error)
}

var errOffline = errors.New("no backend configured")

type offlineBackend struct{}

func (offlineBackend) SetToken(string) {}
func (offlineBackend) Me(context.Context) (auth.User, error) {
	return auth.User{}, errOffline
}
func (offlineBackend) Settings(context.Context) (auth.Settings, error) {
	return auth.Settings{}, errOffline
}
func (offlineBackend) UpdatePreferredModel(context.Context, string) (auth.Settings, error) {
	return auth.Settings{}, errOffline
}
func (offlineBackend) ListConversations(context.Context, conversations.ListOptions) ([]conversations.SavedConversation, error) {
	return nil, errOffline
}
func (offlineBackend) DeleteConversation(context.Context, string) error { return errOffline }
func (offlineBackend) Thread(context.Context, string) (api.GenerationResult, error) {
	return api.GenerationResult{}, errOffline
}
func (offlineBackend) Generate(context.Context, string, api.GenerationRequest) (api.GenerationResult, error) {
	return api.GenerationResult{}, errOffline
}
func (offlineBackend) ExportDocx(context.Context, string, string) ([]byte, error) {
	return nil, errOffline
}
func (offlineBackend) CheckCompatible(context.Context) (*semver.Version, error) {
	return nil, errOffline
}

func loginJob(session *auth.Session, token string, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		state, err := session.Login(ctx, token)
		return sessionResultMsg{state: state, err: err}, err
	}
}

func setModelJob(session *auth.Session, model string, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		state, err := session.SetPreferredModel(ctx, model)
		return modelResultMsg{state: state, model: model, err: err}, err
	}
}

func listConversationsJob(store *conversations.Store, req conversations.Request, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		err := store.Run(ctx, req)
		if errors.Is(err, conversations.ErrStale) || errors.Is(err, conversations.ErrClosed) {
			return conversationsSyncedMsg{}, nil
		}
		return conversationsSyncedMsg{err: err}, err
	}
}

func deleteConversationJob(store *conversations.Store, threadID string, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		err := store.Delete(ctx, threadID)
		return deleteResultMsg{threadID: threadID, err: err}, err
	}
}

func threadJob(backend Backend, feature navigation.Feature, threadID string, token int64, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		result, err := backend.Thread(ctx, threadID)
		if err == nil && result.ThreadID == "" {
			result.ThreadID = threadID
		}
		return threadResultMsg{feature: feature, threadID: threadID, token: token, result: result, err: err}, err
	}
}

// generateJob loads the optional reference material, builds the request
// from the form values and runs the generation.
func generateJob(backend Backend, loader *reference.Loader, form generator.Form, values generator.Values, opts generator.RequestOptions, token int64, timeout time.Duration) jobRunner {
	snapshot := make(generator.Values, len(values))
	for k, v := range values {
		snapshot[k] = v
	}
	feature := form.Feature
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		if input := strings.TrimSpace(snapshot[generator.ReferenceField]); input != "" {
			if loader == nil {
				err := errors.New("reference material is not available")
				return generateResultMsg{feature: feature, token: token, err: err}, err
			}
			material, err := loader.Load(ctx, input)
			if err != nil {
				return generateResultMsg{feature: feature, token: token, err: err}, err
			}
			opts.Reference = material.Text
		}
		req, err := form.BuildRequest(snapshot, opts)
		if err != nil {
			return generateResultMsg{feature: feature, token: token, err: err}, err
		}
		result, err := backend.Generate(ctx, generator.Endpoint(feature), req)
		if err == nil && result.ThreadID == "" {
			result.ThreadID = opts.ThreadID
		}
		return generateResultMsg{feature: feature, token: token, result: result, err: err}, err
	}
}

func followUpJob(backend Backend, feature navigation.Feature, message string, opts generator.RequestOptions, token int64, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		req, err := generator.FollowUp(message, opts)
		if err != nil {
			return generateResultMsg{feature: feature, token: token, err: err}, err
		}
		result, err := backend.Generate(ctx, generator.Endpoint(feature), req)
		if err == nil && result.ThreadID == "" {
			result.ThreadID = opts.ThreadID
		}
		return generateResultMsg{feature: feature, token: token, result: result, err: err}, err
	}
}

func exportJob(backend Backend, dir, title, markdown string, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		path, err := export.Docx(ctx, backend, dir, title, markdown)
		return exportResultMsg{path: path, err: err}, err
	}
}

func copyJob(copyText func(string) error, markdown string) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		err := copyText(markdown)
		return copyResultMsg{err: err}, err
	}
}

func versionJob(backend Backend, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		version, err := backend.CheckCompatible(ctx)
		msg := versionResultMsg{err: err}
		if version != nil {
			msg.version = version.String()
		}
		return msg, err
	}
}

func savePreferencesJob(w *prefs.Writer, rev uint64, p prefs.Preferences) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		_, err := w.Save(rev, p)
		return preferencesSavedMsg{err: err}, err
	}
}

type action int

const (
	actionOpen action = iota
	actionDelete
	actionFilter
	actionRefresh
	actionGenerate
	actionFollowUp
	actionToggleAnswers
	actionExport
	actionCopy
	actionNew
	actionLogin
	actionLogout
	actionSelectModel
)

// actionAvailable reports whether the action applies to the current state.
func (m *model) actionAvailable(a action) bool {
	page := m.currentPage()
	signedIn := m.auth.SignedIn()
	switch a {
	case actionOpen, actionDelete:
		return signedIn && len(m.convs.Conversations) > 0
	case actionFilter, actionRefresh:
		return signedIn
	case actionGenerate:
		return page != nil && !page.loading
	case actionFollowUp:
		return page != nil && page.threadID != "" && page.hasResult() && !page.loading
	case actionToggleAnswers:
		return page != nil && page.prepared != nil
	case actionExport, actionCopy:
		return page != nil && strings.TrimSpace(page.markdown()) != ""
	case actionNew:
		return page != nil
	case actionLogin:
		return !signedIn
	case actionLogout:
		return signedIn
	case actionSelectModel:
		return signedIn && len(m.auth.Settings.AvailableModels) > 0
	default:
		return false
	}
}
