// Package navigation maps features and saved conversations to routes and
// keeps the in-app history the sidebar reconciles against.
package navigation

import (
	"strings"

	"github.com/csheth/eduforge/internal/conversations"
)

// Feature is one top-level area of the client.
type Feature int

const (
	FeatureNone Feature = iota
	FeatureCourseOutline
	FeatureLessonPlan
	FeaturePresentation
	FeatureAssessment
	FeatureProfile
)

// Generators lists the generator features in sidebar order.
var Generators = []Feature{
	FeatureCourseOutline,
	FeatureLessonPlan,
	FeaturePresentation,
	FeatureAssessment,
}

var basePaths = map[Feature]string{
	FeatureCourseOutline: "/course-outline-generator",
	FeatureLessonPlan:    "/lesson-plan-generator",
	FeaturePresentation:  "/presentation-generator",
	FeatureAssessment:    "/assessment-generator",
	FeatureProfile:       "/profile",
}

// BasePath is the route of a feature without any thread id.
func (f Feature) BasePath() string {
	return basePaths[f]
}

// Key is a stable identifier used for message catalogs and API paths.
func (f Feature) Key() string {
	switch f {
	case FeatureCourseOutline:
		return "course_outline"
	case FeatureLessonPlan:
		return "lesson_plan"
	case FeaturePresentation:
		return "presentation"
	case FeatureAssessment:
		return "assessment"
	case FeatureProfile:
		return "profile"
	default:
		return ""
	}
}

// AcceptsThread reports whether the feature route may carry a thread id.
func (f Feature) AcceptsThread() bool {
	return f != FeatureNone && f != FeatureProfile
}

// Location is a parsed route.
type Location struct {
	Feature  Feature
	ThreadID string
}

// Path renders the location back to a route.
func (l Location) Path() string {
	base := l.Feature.BasePath()
	if base == "" {
		return "/"
	}
	if l.ThreadID != "" && l.Feature.AcceptsThread() {
		return base + "/" + l.ThreadID
	}
	return base
}

// BasePath is the path of the location without its thread id.
func (l Location) BasePath() string {
	return Location{Feature: l.Feature}.Path()
}

// ParsePath parses a route. Unknown paths yield FeatureNone.
func ParsePath(path string) Location {
	path = "/" + strings.Trim(path, "/")
	for f, base := range basePaths {
		if path == base {
			return Location{Feature: f}
		}
		if !f.AcceptsThread() || !strings.HasPrefix(path, base+"/") {
			continue
		}
		rest := strings.TrimPrefix(path, base+"/")
		if rest != "" && !strings.Contains(rest, "/") {
			return Location{Feature: f, ThreadID: rest}
		}
	}
	return Location{}
}

// FeatureForType maps a conversation type to the feature that opens it.
// Unknown types are not routable.
func FeatureForType(t conversations.Type) (Feature, bool) {
	switch t {
	case conversations.TypeStructuredOutline, conversations.TypeMarkdownOutline, conversations.TypeCourseOutline:
		return FeatureCourseOutline, true
	case conversations.TypeLessonPlan:
		return FeatureLessonPlan, true
	case conversations.TypePresentation:
		return FeaturePresentation, true
	case conversations.TypeAssessment:
		return FeatureAssessment, true
	default:
		return FeatureNone, false
	}
}

// ThreadPath returns the route that opens conv.
func ThreadPath(conv conversations.SavedConversation) (string, bool) {
	f, ok := FeatureForType(conv.Type)
	if !ok || conv.ThreadID == "" {
		return "", false
	}
	return Location{Feature: f, ThreadID: conv.ThreadID}.Path(), true
}
