// Package generator describes the input form of each generator page and
// turns filled-in values into backend requests.
package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/csheth/eduforge/internal/api"
	"github.com/csheth/eduforge/internal/conversations"
	"github.com/csheth/eduforge/internal/navigation"
)

// Kind is the input type of a field.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindChoice
	KindToggle
)

// ReferenceField is the optional file path or URL every form accepts.
const ReferenceField = "reference"

// Field is one form input. Label is a message catalog key.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
	Min, Max int
	Choices  []string
	Default  string
}

// Form is the ordered set of fields of a generator page.
type Form struct {
	Feature navigation.Feature
	Fields  []Field
}

// Values holds raw user input keyed by field name.
type Values map[string]string

var forms = map[navigation.Feature]Form{
	navigation.FeatureCourseOutline: {
		Feature: navigation.FeatureCourseOutline,
		Fields: []Field{
			{Name: "topic", Label: "field.topic", Kind: KindText, Required: true},
			{Name: "number_of_classes", Label: "field.number_of_classes", Kind: KindNumber, Min: 1, Max: 60, Default: "10"},
			{Name: "audience", Label: "field.audience", Kind: KindText},
			{Name: "structured", Label: "field.structured", Kind: KindToggle, Default: "yes"},
			{Name: ReferenceField, Label: "field.reference", Kind: KindText},
		},
	},
	navigation.FeatureLessonPlan: {
		Feature: navigation.FeatureLessonPlan,
		Fields: []Field{
			{Name: "subject", Label: "field.subject", Kind: KindText, Required: true},
			{Name: "grade_level", Label: "field.grade_level", Kind: KindText},
			{Name: "duration_minutes", Label: "field.duration_minutes", Kind: KindNumber, Min: 5, Max: 480, Default: "45"},
			{Name: "objectives", Label: "field.objectives", Kind: KindText},
			{Name: ReferenceField, Label: "field.reference", Kind: KindText},
		},
	},
	navigation.FeaturePresentation: {
		Feature: navigation.FeaturePresentation,
		Fields: []Field{
			{Name: "topic", Label: "field.topic", Kind: KindText, Required: true},
			{Name: "slide_count", Label: "field.slide_count", Kind: KindNumber, Min: 1, Max: 50, Default: "10"},
			{Name: "audience", Label: "field.audience", Kind: KindText},
			{Name: ReferenceField, Label: "field.reference", Kind: KindText},
		},
	},
	navigation.FeatureAssessment: {
		Feature: navigation.FeatureAssessment,
		Fields: []Field{
			{Name: "topic", Label: "field.topic", Kind: KindText, Required: true},
			{Name: "assessment_type", Label: "field.assessment_type", Kind: KindChoice, Choices: []string{"quiz", "exam", "homework"}, Default: "quiz"},
			{Name: "question_count", Label: "field.question_count", Kind: KindNumber, Min: 1, Max: 50, Default: "10"},
			{Name: "difficulty", Label: "field.difficulty", Kind: KindChoice, Choices: []string{"easy", "medium", "hard", "mixed"}, Default: "mixed"},
			{Name: ReferenceField, Label: "field.reference", Kind: KindText},
		},
	},
}

// FormFor returns the form of a generator feature.
func FormFor(f navigation.Feature) (Form, bool) {
	form, ok := forms[f]
	return form, ok
}

// Defaults returns the initial values of the form.
func (f Form) Defaults() Values {
	values := make(Values, len(f.Fields))
	for _, field := range f.Fields {
		values[field.Name] = field.Default
	}
	return values
}

// Field looks up a field by name.
func (f Form) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// ValidationError reports the first invalid field. Key and Args form a
// message catalog entry.
type ValidationError struct {
	Field string
	Key   string
	Args  []any
}

func (e *ValidationError) Error() string {
	switch e.Key {
	case "error.required":
		return fmt.Sprintf("%s is required", e.Field)
	case "error.number":
		return fmt.Sprintf("%s must be a whole number", e.Field)
	case "error.range":
		return fmt.Sprintf("%s must be between %v and %v", e.Field, e.Args[0], e.Args[1])
	case "error.choice":
		return fmt.Sprintf("%s must be one of %v", e.Field, e.Args[0])
	default:
		return fmt.Sprintf("%s is invalid", e.Field)
	}
}

// Validate checks values against the form, field by field in order.
func (f Form) Validate(values Values) error {
	for _, field := range f.Fields {
		raw := strings.TrimSpace(values[field.Name])
		if raw == "" {
			if field.Required {
				return &ValidationError{Field: field.Name, Key: "error.required"}
			}
			continue
		}
		switch field.Kind {
		case KindNumber:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return &ValidationError{Field: field.Name, Key: "error.number"}
			}
			if n < field.Min || (field.Max > 0 && n > field.Max) {
				return &ValidationError{Field: field.Name, Key: "error.range", Args: []any{field.Min, field.Max}}
			}
		case KindChoice:
			if !contains(field.Choices, strings.ToLower(raw)) {
				return &ValidationError{Field: field.Name, Key: "error.choice", Args: []any{strings.Join(field.Choices, ", ")}}
			}
		case KindToggle:
			if _, ok := parseToggle(raw); !ok {
				return &ValidationError{Field: field.Name, Key: "error.choice", Args: []any{"yes, no"}}
			}
		}
	}
	return nil
}

// RequestOptions carries the values a request needs beyond the form.
type RequestOptions struct {
	ThreadID  string
	Model     string
	Language  string
	Reference string
}

// BuildRequest validates values and builds the generation request. The
// reference field is not sent; its loaded text travels in opts.Reference.
func (f Form) BuildRequest(values Values, opts RequestOptions) (api.GenerationRequest, error) {
	if err := f.Validate(values); err != nil {
		return api.GenerationRequest{}, err
	}
	params := make(map[string]any, len(f.Fields))
	for _, field := range f.Fields {
		if field.Name == ReferenceField {
			continue
		}
		raw := strings.TrimSpace(values[field.Name])
		if raw == "" {
			continue
		}
		switch field.Kind {
		case KindNumber:
			n, _ := strconv.Atoi(raw)
			params[field.Name] = n
		case KindToggle:
			on, _ := parseToggle(raw)
			params[field.Name] = on
		case KindChoice:
			params[field.Name] = strings.ToLower(raw)
		default:
			params[field.Name] = raw
		}
	}
	params["conversation_type"] = string(f.ConversationType(values))
	return api.GenerationRequest{
		ThreadID:   opts.ThreadID,
		Model:      opts.Model,
		Language:   opts.Language,
		Parameters: params,
		Reference:  opts.Reference,
	}, nil
}

// FollowUp builds a request continuing an existing thread.
func FollowUp(message string, opts RequestOptions) (api.GenerationRequest, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return api.GenerationRequest{}, &ValidationError{Field: "message", Key: "error.required"}
	}
	if opts.ThreadID == "" {
		return api.GenerationRequest{}, fmt.Errorf("follow-up without an open thread")
	}
	return api.GenerationRequest{
		ThreadID:  opts.ThreadID,
		Model:     opts.Model,
		Language:  opts.Language,
		Message:   message,
		Reference: opts.Reference,
	}, nil
}

// ConversationType is the type the generated thread will be saved as.
func (f Form) ConversationType(values Values) conversations.Type {
	switch f.Feature {
	case navigation.FeatureCourseOutline:
		if on, ok := parseToggle(values["structured"]); ok && !on {
			return conversations.TypeMarkdownOutline
		}
		return conversations.TypeStructuredOutline
	case navigation.FeatureLessonPlan:
		return conversations.TypeLessonPlan
	case navigation.FeaturePresentation:
		return conversations.TypePresentation
	case navigation.FeatureAssessment:
		return conversations.TypeAssessment
	default:
		return conversations.TypeAll
	}
}

// Endpoint is the generate path segment of a feature.
func Endpoint(f navigation.Feature) string {
	return f.Key()
}

// CycleChoice returns the choice after current, used by choice and toggle
// inputs.
func (field Field) CycleChoice(current string) string {
	choices := field.Choices
	if field.Kind == KindToggle {
		choices = []string{"yes", "no"}
	}
	if len(choices) == 0 {
		return current
	}
	current = strings.ToLower(strings.TrimSpace(current))
	for i, c := range choices {
		if c == current {
			return choices[(i+1)%len(choices)]
		}
	}
	return choices[0]
}

func parseToggle(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "true", "1", "on", "si", "sí":
		return true, true
	case "no", "n", "false", "0", "off":
		return false, true
	default:
		return false, false
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
