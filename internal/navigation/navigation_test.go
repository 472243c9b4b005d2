package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/eduforge/internal/conversations"
)

type recordingCache struct {
	remembered []conversations.SavedConversation
}

func (c *recordingCache) Remember(conv conversations.SavedConversation) {
	c.remembered = append(c.remembered, conv)
}

func TestParsePath(t *testing.T) {
	cases := []struct {
		path string
		want Location
	}{
		{"/lesson-plan-generator", Location{Feature: FeatureLessonPlan}},
		{"/lesson-plan-generator/abc123", Location{Feature: FeatureLessonPlan, ThreadID: "abc123"}},
		{"/course-outline-generator/t1/", Location{Feature: FeatureCourseOutline, ThreadID: "t1"}},
		{"/profile", Location{Feature: FeatureProfile}},
		{"/profile/abc", Location{}},
		{"/assessment-generator/a/b", Location{}},
		{"/nowhere", Location{}},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, ParsePath(tc.path))
		})
	}
}

func TestLocationPathRoundTrip(t *testing.T) {
	for _, f := range append(Generators, FeatureProfile) {
		loc := Location{Feature: f}
		assert.Equal(t, loc, ParsePath(loc.Path()))
	}
	loc := Location{Feature: FeaturePresentation, ThreadID: "xyz"}
	assert.Equal(t, "/presentation-generator/xyz", loc.Path())
	assert.Equal(t, "/presentation-generator", loc.BasePath())
}

func TestFeatureForType(t *testing.T) {
	cases := map[conversations.Type]Feature{
		conversations.TypeStructuredOutline: FeatureCourseOutline,
		conversations.TypeMarkdownOutline:   FeatureCourseOutline,
		conversations.TypeCourseOutline:     FeatureCourseOutline,
		conversations.TypeLessonPlan:        FeatureLessonPlan,
		conversations.TypePresentation:      FeaturePresentation,
		conversations.TypeAssessment:        FeatureAssessment,
	}
	for typ, want := range cases {
		got, ok := FeatureForType(typ)
		assert.True(t, ok, typ)
		assert.Equal(t, want, got, typ)
	}
	_, ok := FeatureForType("podcast")
	assert.False(t, ok)
}

func TestHistoryPushReplaceBack(t *testing.T) {
	h := NewHistory("/course-outline-generator")
	h.Push("/lesson-plan-generator/abc")
	require.Equal(t, 2, h.Len())

	h.Replace("/lesson-plan-generator")
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, Location{Feature: FeatureLessonPlan}, h.Current())

	loc, ok := h.Back()
	assert.True(t, ok)
	assert.Equal(t, FeatureCourseOutline, loc.Feature)

	_, ok = h.Back()
	assert.False(t, ok)
	assert.Equal(t, 1, h.Len())
}

func TestClickActiveNavStartsNewAndReplaces(t *testing.T) {
	h := NewHistory("/course-outline-generator")
	h.Push("/lesson-plan-generator/abc123")
	before := h.Len()

	var reset []Feature
	sb := NewSidebar(h, nil, func(f Feature) { reset = append(reset, f) })

	loc := sb.ClickNav(FeatureLessonPlan)

	assert.Equal(t, []Feature{FeatureLessonPlan}, reset)
	assert.Equal(t, "/lesson-plan-generator", loc.Path())
	assert.Equal(t, "/lesson-plan-generator", h.Current().Path())
	assert.Equal(t, before, h.Len(), "replacement must not add a back-stack entry")
}

func TestClickOtherNavPushes(t *testing.T) {
	h := NewHistory("/lesson-plan-generator/abc123")
	called := false
	sb := NewSidebar(h, nil, func(Feature) { called = true })

	loc := sb.ClickNav(FeatureAssessment)

	assert.False(t, called)
	assert.Equal(t, "/assessment-generator", loc.Path())
	assert.Equal(t, 2, h.Len())
}

func TestOpenRemembersAndPushesThread(t *testing.T) {
	h := NewHistory("/course-outline-generator")
	cache := &recordingCache{}
	sb := NewSidebar(h, cache, nil)
	conv := conversations.SavedConversation{ThreadID: "t9", Type: conversations.TypeMarkdownOutline}

	loc, err := sb.Open(conv)
	require.NoError(t, err)
	assert.Equal(t, "/course-outline-generator/t9", loc.Path())
	assert.Equal(t, 2, h.Len())
	require.Len(t, cache.remembered, 1)
	assert.Equal(t, "t9", cache.remembered[0].ThreadID)

	_, err = sb.Open(conv)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len(), "reopening the shown thread does not grow history")
}

func TestOpenUnknownTypeIsRefused(t *testing.T) {
	h := NewHistory("/profile")
	cache := &recordingCache{}
	sb := NewSidebar(h, cache, nil)

	_, err := sb.Open(conversations.SavedConversation{ThreadID: "x", Type: "podcast"})
	assert.ErrorIs(t, err, ErrNotRoutable)
	assert.Equal(t, 1, h.Len())
	assert.Empty(t, cache.remembered)
}

func TestAfterDeleteOfOpenThreadResets(t *testing.T) {
	h := NewHistory("/course-outline-generator")
	h.Push("/lesson-plan-generator/abc123")
	var reset []Feature
	sb := NewSidebar(h, nil, func(f Feature) { reset = append(reset, f) })

	loc, didReset := sb.AfterDelete("abc123")

	assert.True(t, didReset)
	assert.Equal(t, []Feature{FeatureLessonPlan}, reset)
	assert.Equal(t, "/lesson-plan-generator", loc.Path())
	assert.Equal(t, 2, h.Len())
}

func TestAfterDeleteOfOtherThreadKeepsPage(t *testing.T) {
	h := NewHistory("/lesson-plan-generator/abc123")
	called := false
	sb := NewSidebar(h, nil, func(Feature) { called = true })

	loc, didReset := sb.AfterDelete("zzz")

	assert.False(t, didReset)
	assert.False(t, called)
	assert.Equal(t, "/lesson-plan-generator/abc123", loc.Path())
}
