package assessment

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// UnmarshalJSON decodes an assessment leniently: numbers may arrive as
// floats or strings, answers as booleans or numbers, and rubrics as objects.
// A field of the wrong shape degrades to its zero value instead of failing
// the whole result.
func (a *Assessment) UnmarshalJSON(data []byte) error {
	*a = decodeAssessment(gjson.ParseBytes(data))
	return nil
}

// UnmarshalJSON decodes a single question with the same tolerance as
// Assessment.
func (q *Question) UnmarshalJSON(data []byte) error {
	*q = decodeQuestion(gjson.ParseBytes(data))
	return nil
}

func decodeAssessment(doc gjson.Result) Assessment {
	a := Assessment{
		Title:                    text(doc.Get("assessment_title")),
		Type:                     text(doc.Get("assessment_type")),
		TotalPoints:              number(doc.Get("total_points")),
		EstimatedDurationMinutes: whole(doc.Get("estimated_duration_minutes")),
		GeneralInstructions:      text(doc.Get("general_instructions")),
	}
	for _, s := range objects(doc.Get("sections")) {
		section := Section{
			Title:        text(s.Get("section_title")),
			Type:         SectionType(text(s.Get("section_type"))),
			Instructions: text(s.Get("instructions")),
		}
		for _, q := range objects(s.Get("questions")) {
			section.Questions = append(section.Questions, decodeQuestion(q))
		}
		a.Sections = append(a.Sections, section)
	}
	return a
}

func decodeQuestion(doc gjson.Result) Question {
	q := Question{
		Text:          text(doc.Get("question_text")),
		Difficulty:    Difficulty(text(doc.Get("difficulty"))),
		Points:        number(doc.Get("points")),
		CorrectAnswer: text(doc.Get("correct_answer")),
		Explanation:   text(doc.Get("explanation")),
		ScoringRubric: text(doc.Get("scoring_rubric")),
	}
	for _, o := range objects(doc.Get("options")) {
		q.Options = append(q.Options, Option{
			Label:     text(o.Get("label")),
			Text:      text(o.Get("text")),
			IsCorrect: o.Get("is_correct").Bool(),
		})
	}
	points := doc.Get("key_points")
	switch {
	case points.IsArray():
		for _, p := range points.Array() {
			if s := text(p); s != "" {
				q.KeyPoints = append(q.KeyPoints, s)
			}
		}
	case points.Exists() && points.Type != gjson.Null:
		if s := text(points); s != "" {
			q.KeyPoints = []string{s}
		}
	}
	return q
}

// text renders any JSON value as a string. Objects keep their raw JSON so
// ParseRubric can still read them; arrays of scalars are joined.
func text(r gjson.Result) string {
	switch {
	case !r.Exists() || r.Type == gjson.Null:
		return ""
	case r.IsArray():
		parts := make([]string, 0, len(r.Array()))
		for _, item := range r.Array() {
			if item.IsObject() || item.IsArray() {
				return r.Raw
			}
			parts = append(parts, text(item))
		}
		return strings.Join(parts, ", ")
	case r.IsObject():
		return r.Raw
	default:
		return r.String()
	}
}

func number(r gjson.Result) float64 {
	if r.IsObject() || r.IsArray() {
		return 0
	}
	return r.Float()
}

func whole(r gjson.Result) int {
	return int(math.Round(number(r)))
}

func objects(r gjson.Result) []gjson.Result {
	if !r.IsArray() {
		return nil
	}
	var out []gjson.Result
	for _, item := range r.Array() {
		if item.IsObject() {
			out = append(out, item)
		}
	}
	return out
}
