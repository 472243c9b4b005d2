package conversations

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrStale is returned by Run when a newer request superseded this one.
	ErrStale = errors.New("conversations: superseded request")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("conversations: store closed")
)

// DefaultLimit caps the list query when the caller does not set one.
const DefaultLimit = 50

// ListOptions is the list query sent to the backend.
type ListOptions struct {
	Type  Type
	Limit int
}

// Source is the backend the store reads from and deletes through.
type Source interface {
	ListConversations(ctx context.Context, opts ListOptions) ([]SavedConversation, error)
	DeleteConversation(ctx context.Context, threadID string) error
}

// Request is one issued list fetch. Only the latest Request may update the
// store.
type Request struct {
	gen    uint64
	filter Type
	live   bool
}

// Filter reports the filter captured when the request was issued.
func (r Request) Filter() Type { return r.filter }

// Snapshot is a copy of the store state for rendering.
type Snapshot struct {
	UserID        string
	Conversations []SavedConversation
	Loading       bool
	Err           error
	Filter        Type
}

// Store is the session-scoped cache of saved conversations. It is safe for
// concurrent use; fetches run off the UI goroutine.
type Store struct {
	source Source
	limit  int

	mu      sync.RWMutex
	userID  string
	filter  Type
	items   []SavedConversation
	loading bool
	err     error
	gen     uint64
	closed  bool
	known   map[string]SavedConversation
	deleted map[string]struct{}
}

// NewStore builds an empty store for an anonymous session.
func NewStore(source Source, limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{
		source: source,
		limit:  limit,
		known:   make(map[string]SavedConversation),
		deleted: make(map[string]struct{}),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]SavedConversation, len(s.items))
	copy(items, s.items)
	return Snapshot{
		UserID:        s.userID,
		Conversations: items,
		Loading:       s.loading,
		Err:           s.err,
		Filter:        s.filter,
	}
}

// SetUser records the authenticated identity. It returns true when the
// caller must fetch. An empty id clears the list and settles loading.
func (s *Store) SetUser(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || id == s.userID {
		return false
	}
	s.userID = id
	s.items = nil
	s.err = nil
	s.known = make(map[string]SavedConversation)
	s.deleted = make(map[string]struct{})
	if id == "" {
		s.gen++
		s.loading = false
		return false
	}
	return true
}

// FilterByType changes the active filter. It returns true when the caller
// must fetch.
func (s *Store) FilterByType(t Type) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || t == s.filter {
		return false
	}
	s.filter = t
	return s.userID != ""
}

// Begin issues a new request: loading is set, the previous error cleared and
// every earlier request becomes stale.
func (s *Store) Begin() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.userID == "" {
		return Request{}
	}
	s.gen++
	s.loading = true
	s.err = nil
	return Request{gen: s.gen, filter: s.filter, live: true}
}

// Run performs the list query for req and applies it if req is still the
// latest request. Failures keep the previous list.
func (s *Store) Run(ctx context.Context, req Request) error {
	if !req.live {
		return nil
	}
	items, err := s.source.ListConversations(ctx, ListOptions{Type: req.filter, Limit: s.limit})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if req.gen != s.gen {
		return ErrStale
	}
	s.loading = false
	if err != nil {
		s.err = fmt.Errorf("load conversations: %w", err)
		return s.err
	}
	s.items = normalize(items, req.filter, s.deleted)
	return nil
}

// Refetch reissues the list query with the current filter.
func (s *Store) Refetch(ctx context.Context) error {
	return s.Run(ctx, s.Begin())
}

// Delete removes threadID on the backend and then from the local list. On
// failure the list is unchanged and the error is both recorded and returned.
// A deleted thread is kept out of every later list result.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	err := s.source.DeleteConversation(ctx, threadID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err != nil {
		s.err = fmt.Errorf("delete conversation: %w", err)
		return s.err
	}
	kept := s.items[:0:0]
	for _, item := range s.items {
		if item.ThreadID != threadID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	delete(s.known, threadID)
	s.deleted[threadID] = struct{}{}
	return nil
}

// Remember stores conv for Lookup, so a page can hydrate an opened thread
// without another request.
func (s *Store) Remember(conv SavedConversation) {
	if conv.ThreadID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.known[conv.ThreadID] = conv
}

// Lookup finds threadID among remembered and listed conversations.
func (s *Store) Lookup(threadID string) (SavedConversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if conv, ok := s.known[threadID]; ok {
		return conv, true
	}
	for _, item := range s.items {
		if item.ThreadID == threadID {
			return item, true
		}
	}
	return SavedConversation{}, false
}

// Close ends the session. Later mutations are no-ops and in-flight results
// are discarded.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.gen++
	s.loading = false
}

// normalize drops duplicate thread ids (first wins), entries that do not
// match filter and threads deleted in this session. A list answered before a
// delete reached the server would otherwise bring the thread back.
func normalize(items []SavedConversation, filter Type, deleted map[string]struct{}) []SavedConversation {
	seen := make(map[string]struct{}, len(items))
	out := make([]SavedConversation, 0, len(items))
	for _, item := range items {
		if filter != TypeAll && item.Type != filter {
			continue
		}
		if _, dup := seen[item.ThreadID]; dup {
			continue
		}
		if _, gone := deleted[item.ThreadID]; gone {
			continue
		}
		seen[item.ThreadID] = struct{}{}
		out = append(out, item)
	}
	return out
}
