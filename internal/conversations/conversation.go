// Package conversations models the user's saved generation threads and the
// session-scoped cache the sidebar renders.
package conversations

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Type is the conversation_type discriminator.
type Type string

const (
	TypeAll               Type = ""
	TypeStructuredOutline Type = "structured_outline"
	TypeMarkdownOutline   Type = "markdown_outline"
	TypeCourseOutline     Type = "course_outline"
	TypeLessonPlan        Type = "lesson_plan"
	TypePresentation      Type = "presentation"
	TypeAssessment        Type = "assessment"
)

// FilterCycle is the order the sidebar filter steps through.
var FilterCycle = []Type{
	TypeAll,
	TypeStructuredOutline,
	TypeMarkdownOutline,
	TypeCourseOutline,
	TypeLessonPlan,
	TypePresentation,
	TypeAssessment,
}

// Known reports whether t is one of the recognized tags.
func (t Type) Known() bool {
	switch t {
	case TypeStructuredOutline, TypeMarkdownOutline, TypeCourseOutline,
		TypeLessonPlan, TypePresentation, TypeAssessment:
		return true
	default:
		return false
	}
}

// NextFilter returns the filter after t in FilterCycle.
func NextFilter(t Type) Type {
	for i, candidate := range FilterCycle {
		if candidate == t {
			return FilterCycle[(i+1)%len(FilterCycle)]
		}
	}
	return TypeAll
}

// SavedConversation is one entry of the saved-conversation list. Details
// carries the per-type payload.
type SavedConversation struct {
	ThreadID     string
	Type         Type
	Title        string
	MessageCount int
	UpdatedAt    time.Time
	Details      Details
}

// Details is the variant payload of a SavedConversation. The concrete types
// are OutlineDetails, LessonPlanDetails, PresentationDetails,
// AssessmentDetails and UnknownDetails.
type Details interface {
	isDetails()
}

type OutlineDetails struct {
	Topic           string `json:"topic"`
	NumberOfClasses int    `json:"number_of_classes"`
}

type LessonPlanDetails struct {
	Subject    string `json:"subject"`
	GradeLevel string `json:"grade_level"`
}

type PresentationDetails struct {
	Topic      string `json:"topic"`
	SlideCount int    `json:"slide_count"`
}

type AssessmentDetails struct {
	Subject        string `json:"subject"`
	AssessmentType string `json:"assessment_type"`
}

// UnknownDetails keeps the raw payload of an unrecognized conversation type.
type UnknownDetails struct {
	Raw json.RawMessage
}

func (OutlineDetails) isDetails()      {}
func (LessonPlanDetails) isDetails()   {}
func (PresentationDetails) isDetails() {}
func (AssessmentDetails) isDetails()   {}
func (UnknownDetails) isDetails()      {}

type wireConversation struct {
	ThreadID     string    `json:"thread_id"`
	Type         Type      `json:"conversation_type"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UnmarshalJSON decodes the common fields and the variant selected by
// conversation_type.
func (c *SavedConversation) UnmarshalJSON(data []byte) error {
	var wire wireConversation
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if strings.TrimSpace(wire.ThreadID) == "" {
		return fmt.Errorf("conversation without thread_id")
	}
	details, err := decodeDetails(wire.Type, data)
	if err != nil {
		return fmt.Errorf("conversation %s: %w", wire.ThreadID, err)
	}
	*c = SavedConversation{
		ThreadID:     wire.ThreadID,
		Type:         wire.Type,
		Title:        wire.Title,
		MessageCount: wire.MessageCount,
		UpdatedAt:    wire.UpdatedAt,
		Details:      details,
	}
	return nil
}

func decodeDetails(t Type, data []byte) (Details, error) {
	switch t {
	case TypeStructuredOutline, TypeMarkdownOutline, TypeCourseOutline:
		var d OutlineDetails
		err := json.Unmarshal(data, &d)
		return d, err
	case TypeLessonPlan:
		var d LessonPlanDetails
		err := json.Unmarshal(data, &d)
		return d, err
	case TypePresentation:
		var d PresentationDetails
		err := json.Unmarshal(data, &d)
		return d, err
	case TypeAssessment:
		var d AssessmentDetails
		err := json.Unmarshal(data, &d)
		return d, err
	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return UnknownDetails{Raw: raw}, nil
	}
}

// DisplayTitle returns the title, or a subject/topic derived one when the
// server left it blank.
func (c SavedConversation) DisplayTitle() string {
	if title := strings.TrimSpace(c.Title); title != "" {
		return title
	}
	if summary := c.Summary(); summary != "" {
		return summary
	}
	return c.ThreadID
}

// Summary is the one-line, type-specific description shown under the title.
func (c SavedConversation) Summary() string {
	switch d := c.Details.(type) {
	case OutlineDetails:
		if d.NumberOfClasses > 0 {
			return fmt.Sprintf("%s · %d classes", d.Topic, d.NumberOfClasses)
		}
		return d.Topic
	case LessonPlanDetails:
		if d.GradeLevel != "" {
			return fmt.Sprintf("%s · %s", d.Subject, d.GradeLevel)
		}
		return d.Subject
	case PresentationDetails:
		if d.SlideCount > 0 {
			return fmt.Sprintf("%s · %d slides", d.Topic, d.SlideCount)
		}
		return d.Topic
	case AssessmentDetails:
		if d.AssessmentType != "" {
			return fmt.Sprintf("%s · %s", d.Subject, d.AssessmentType)
		}
		return d.Subject
	case UnknownDetails:
		return fmt.Sprintf("unsupported type %q", string(c.Type))
	default:
		return ""
	}
}
