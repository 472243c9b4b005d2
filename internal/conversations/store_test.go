package conversations

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu        sync.Mutex
	lists     []ListOptions
	deletes   []string
	list      func(opts ListOptions) ([]SavedConversation, error)
	deleteErr error
}

func (f *fakeSource) ListConversations(_ context.Context, opts ListOptions) ([]SavedConversation, error) {
	f.mu.Lock()
	f.lists = append(f.lists, opts)
	list := f.list
	f.mu.Unlock()
	if list == nil {
		return nil, nil
	}
	return list(opts)
}

func (f *fakeSource) DeleteConversation(_ context.Context, threadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, threadID)
	return f.deleteErr
}

func (f *fakeSource) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lists)
}

func conv(id string, t Type) SavedConversation {
	return SavedConversation{ThreadID: id, Type: t, Title: "title " + id}
}

func ids(items []SavedConversation) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ThreadID)
	}
	return out
}

// drive mirrors how the UI uses the store: fetch only when told to.
func drive(t *testing.T, s *Store, needsFetch bool) {
	t.Helper()
	if needsFetch {
		require.NoError(t, s.Refetch(context.Background()))
	}
}

func TestUserChangeTriggersExactlyOneFetch(t *testing.T) {
	src := &fakeSource{}
	s := NewStore(src, 0)

	var loadingDuringFetch bool
	src.list = func(ListOptions) ([]SavedConversation, error) {
		loadingDuringFetch = s.Snapshot().Loading
		return []SavedConversation{conv("a", TypeLessonPlan)}, nil
	}

	drive(t, s, s.SetUser("u1"))
	drive(t, s, s.SetUser("u1"))

	assert.Equal(t, 1, src.listCalls())
	assert.True(t, loadingDuringFetch, "loading should be true while the fetch runs")
	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, []string{"a"}, ids(snap.Conversations))
	assert.Equal(t, DefaultLimit, src.lists[0].Limit)

	drive(t, s, s.SetUser("u2"))
	assert.Equal(t, 2, src.listCalls())
}

func TestFilterChangeTriggersExactlyOneFetch(t *testing.T) {
	src := &fakeSource{}
	s := NewStore(src, 20)
	drive(t, s, s.SetUser("u1"))

	drive(t, s, s.FilterByType(TypeAssessment))
	drive(t, s, s.FilterByType(TypeAssessment))

	require.Equal(t, 2, src.listCalls())
	assert.Equal(t, ListOptions{Type: TypeAssessment, Limit: 20}, src.lists[1])
}

func TestFilterWithoutUserDoesNotFetch(t *testing.T) {
	src := &fakeSource{}
	s := NewStore(src, 0)

	assert.False(t, s.FilterByType(TypePresentation))
	assert.NoError(t, s.Refetch(context.Background()))
	assert.Equal(t, 0, src.listCalls())
	assert.Equal(t, TypePresentation, s.Snapshot().Filter)
}

func TestFilteredFetchContainsOnlyThatType(t *testing.T) {
	src := &fakeSource{list: func(ListOptions) ([]SavedConversation, error) {
		return []SavedConversation{
			conv("a", TypeLessonPlan),
			conv("b", TypeAssessment),
			conv("c", TypeLessonPlan),
		}, nil
	}}
	s := NewStore(src, 0)
	s.SetUser("u1")
	s.FilterByType(TypeLessonPlan)
	require.NoError(t, s.Refetch(context.Background()))

	for _, item := range s.Snapshot().Conversations {
		assert.Equal(t, TypeLessonPlan, item.Type)
	}
	assert.Equal(t, []string{"a", "c"}, ids(s.Snapshot().Conversations))
}

func TestDuplicateThreadIDsKeepFirst(t *testing.T) {
	first := conv("a", TypeLessonPlan)
	second := conv("a", TypeLessonPlan)
	second.Title = "later"
	src := &fakeSource{list: func(ListOptions) ([]SavedConversation, error) {
		return []SavedConversation{first, conv("b", TypePresentation), second}, nil
	}}
	s := NewStore(src, 0)
	drive(t, s, s.SetUser("u1"))

	snap := s.Snapshot()
	assert.Equal(t, []string{"a", "b"}, ids(snap.Conversations))
	assert.Equal(t, first.Title, snap.Conversations[0].Title)
}

func TestFetchFailureKeepsPreviousList(t *testing.T) {
	fail := false
	src := &fakeSource{list: func(ListOptions) ([]SavedConversation, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return []SavedConversation{conv("a", TypeAssessment)}, nil
	}}
	s := NewStore(src, 0)
	drive(t, s, s.SetUser("u1"))

	fail = true
	err := s.Refetch(context.Background())
	require.Error(t, err)

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	require.Error(t, snap.Err)
	assert.Contains(t, snap.Err.Error(), "boom")
	assert.Equal(t, []string{"a"}, ids(snap.Conversations))

	fail = false
	require.NoError(t, s.Refetch(context.Background()))
	assert.NoError(t, s.Snapshot().Err)
}

func TestDeleteSuccessRemovesEntry(t *testing.T) {
	src := &fakeSource{list: func(ListOptions) ([]SavedConversation, error) {
		return []SavedConversation{conv("a", TypeAssessment), conv("b", TypeLessonPlan)}, nil
	}}
	s := NewStore(src, 0)
	drive(t, s, s.SetUser("u1"))

	require.NoError(t, s.Delete(context.Background(), "a"))
	assert.Equal(t, []string{"b"}, ids(s.Snapshot().Conversations))
	assert.Equal(t, []string{"a"}, src.deletes)
	_, ok := s.Lookup("a")
	assert.False(t, ok)
}

func TestDeleteFailureLeavesListAndPropagates(t *testing.T) {
	notFound := errors.New("not found")
	src := &fakeSource{
		list: func(ListOptions) ([]SavedConversation, error) {
			return []SavedConversation{conv("a", TypeAssessment), conv("b", TypeLessonPlan)}, nil
		},
		deleteErr: notFound,
	}
	s := NewStore(src, 0)
	drive(t, s, s.SetUser("u1"))
	before := s.Snapshot().Conversations

	err := s.Delete(context.Background(), "a")
	require.ErrorIs(t, err, notFound)

	snap := s.Snapshot()
	assert.Equal(t, before, snap.Conversations)
	assert.ErrorIs(t, snap.Err, notFound)
}

func TestLogoutClearsAndSettles(t *testing.T) {
	src := &fakeSource{list: func(ListOptions) ([]SavedConversation, error) {
		return []SavedConversation{conv("a", TypeAssessment)}, nil
	}}
	s := NewStore(src, 0)
	drive(t, s, s.SetUser("u1"))

	// A fetch still in flight when the user logs out must not land.
	pending := s.Begin()
	assert.False(t, s.SetUser(""))

	snap := s.Snapshot()
	assert.Empty(t, snap.Conversations)
	assert.False(t, snap.Loading)
	assert.NoError(t, snap.Err)

	assert.ErrorIs(t, s.Run(context.Background(), pending), ErrStale)
	assert.Empty(t, s.Snapshot().Conversations)
	assert.False(t, s.Snapshot().Loading)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	src := &fakeSource{list: func(opts ListOptions) ([]SavedConversation, error) {
		if opts.Type == TypeAssessment {
			return []SavedConversation{conv("new", TypeAssessment)}, nil
		}
		return []SavedConversation{conv("old", TypeLessonPlan)}, nil
	}}
	s := NewStore(src, 0)
	s.SetUser("u1")

	older := s.Begin()
	s.FilterByType(TypeAssessment)
	newer := s.Begin()
	assert.Equal(t, TypeAssessment, newer.Filter())

	require.NoError(t, s.Run(context.Background(), newer))
	assert.ErrorIs(t, s.Run(context.Background(), older), ErrStale)

	snap := s.Snapshot()
	assert.Equal(t, []string{"new"}, ids(snap.Conversations))
	assert.False(t, snap.Loading)
}

func TestDeleteDuringFetchKeepsThreadOut(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	src := &fakeSource{list: func(ListOptions) ([]SavedConversation, error) {
		close(started)
		<-release
		return []SavedConversation{conv("a", TypeLessonPlan), conv("b", TypeAssessment)}, nil
	}}
	s := NewStore(src, 0)
	s.SetUser("u1")

	req := s.Begin()
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), req) }()
	<-started

	require.NoError(t, s.Delete(context.Background(), "a"))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"b"}, ids(s.Snapshot().Conversations))
	_, found := s.Lookup("a")
	assert.False(t, found)

	s.SetUser("u2")
	assert.Empty(t, s.deleted, "a new user starts without deleted threads")
}

func TestCloseDiscardsInFlightAndIgnoresMutations(t *testing.T) {
	src := &fakeSource{list: func(ListOptions) ([]SavedConversation, error) {
		return []SavedConversation{conv("a", TypeAssessment)}, nil
	}}
	s := NewStore(src, 0)
	s.SetUser("u1")
	pending := s.Begin()

	s.Close()

	assert.ErrorIs(t, s.Run(context.Background(), pending), ErrClosed)
	assert.Empty(t, s.Snapshot().Conversations)
	assert.False(t, s.SetUser("u2"))
	assert.False(t, s.FilterByType(TypeLessonPlan))
	assert.ErrorIs(t, s.Delete(context.Background(), "a"), ErrClosed)
	assert.Empty(t, src.deletes)

	s.Remember(conv("x", TypeLessonPlan))
	_, ok := s.Lookup("x")
	assert.False(t, ok)
}

func TestRememberAndLookup(t *testing.T) {
	src := &fakeSource{list: func(ListOptions) ([]SavedConversation, error) {
		return []SavedConversation{conv("listed", TypePresentation)}, nil
	}}
	s := NewStore(src, 0)
	drive(t, s, s.SetUser("u1"))

	s.Remember(conv("opened", TypeLessonPlan))

	got, ok := s.Lookup("opened")
	require.True(t, ok)
	assert.Equal(t, TypeLessonPlan, got.Type)

	got, ok = s.Lookup("listed")
	require.True(t, ok)
	assert.Equal(t, TypePresentation, got.Type)

	_, ok = s.Lookup("missing")
	assert.False(t, ok)
}
