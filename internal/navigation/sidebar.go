package navigation

import (
	"errors"

	"github.com/csheth/eduforge/internal/conversations"
)

// ErrNotRoutable is returned when a conversation type has no feature page.
var ErrNotRoutable = errors.New("navigation: conversation type has no page")

// Cache is the part of the conversation store the sidebar needs to hand a
// conversation to the page it opens.
type Cache interface {
	Remember(conv conversations.SavedConversation)
}

// Sidebar reconciles sidebar clicks with the history.
type Sidebar struct {
	history *History
	cache   Cache
	onNew   func(Feature)
}

// NewSidebar wires a sidebar. onNew resets the in-page generation state of a
// feature and may be nil.
func NewSidebar(history *History, cache Cache, onNew func(Feature)) *Sidebar {
	return &Sidebar{history: history, cache: cache, onNew: onNew}
}

// Open navigates to conv's thread and remembers it for hydration.
func (s *Sidebar) Open(conv conversations.SavedConversation) (Location, error) {
	path, ok := ThreadPath(conv)
	if !ok {
		return s.history.Current(), ErrNotRoutable
	}
	if s.cache != nil {
		s.cache.Remember(conv)
	}
	if s.history.Current().Path() == path {
		return s.history.Current(), nil
	}
	return s.history.Push(path), nil
}

// ClickNav follows a nav link. Clicking the feature already shown starts a
// new conversation and replaces the current entry with the bare base path.
func (s *Sidebar) ClickNav(f Feature) Location {
	target := Location{Feature: f}.Path()
	if s.history.Current().BasePath() == target {
		return s.startNew(f)
	}
	return s.history.Push(target)
}

// AfterDelete resets the page when threadID is the thread being shown. It
// reports whether a reset happened.
func (s *Sidebar) AfterDelete(threadID string) (Location, bool) {
	current := s.history.Current()
	if threadID == "" || current.ThreadID != threadID {
		return current, false
	}
	return s.startNew(current.Feature), true
}

func (s *Sidebar) startNew(f Feature) Location {
	if s.onNew != nil {
		s.onNew(f)
	}
	return s.history.Replace(Location{Feature: f}.Path())
}

// Current exposes the active location.
func (s *Sidebar) Current() Location {
	return s.history.Current()
}
