// Package assessment holds the display model of a generated assessment and
// the rubric parsing used to render it.
package assessment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SectionType is the kind of questions a section holds. Unknown values are
// kept verbatim.
type SectionType string

const (
	SectionMultipleChoice SectionType = "multiple_choice"
	SectionTrueFalse      SectionType = "true_false"
	SectionShortAnswer    SectionType = "short_answer"
	SectionEssay          SectionType = "essay"
)

// Label returns a human readable section kind.
func (s SectionType) Label() string {
	switch s {
	case SectionMultipleChoice:
		return "Multiple choice"
	case SectionTrueFalse:
		return "True / false"
	case SectionShortAnswer:
		return "Short answer"
	case SectionEssay:
		return "Essay"
	default:
		return humanize(string(s))
	}
}

// Difficulty of a question. Unknown values are kept verbatim.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Label returns the capitalized difficulty.
func (d Difficulty) Label() string {
	return humanize(string(d))
}

// Assessment is the server-provided result. It is never mutated after it
// is received.
type Assessment struct {
	Title                    string    `json:"assessment_title"`
	Type                     string    `json:"assessment_type"`
	TotalPoints              float64   `json:"total_points"`
	EstimatedDurationMinutes int       `json:"estimated_duration_minutes"`
	GeneralInstructions      string    `json:"general_instructions"`
	Sections                 []Section `json:"sections"`
}

type Section struct {
	Title        string      `json:"section_title"`
	Type         SectionType `json:"section_type"`
	Instructions string      `json:"instructions"`
	Questions    []Question  `json:"questions"`
}

type Question struct {
	Text          string     `json:"question_text"`
	Difficulty    Difficulty `json:"difficulty"`
	Points        float64    `json:"points"`
	Options       []Option   `json:"options,omitempty"`
	CorrectAnswer string     `json:"correct_answer,omitempty"`
	Explanation   string     `json:"explanation,omitempty"`
	ScoringRubric string     `json:"scoring_rubric,omitempty"`
	KeyPoints     []string   `json:"key_points,omitempty"`
}

type Option struct {
	Label     string `json:"label"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionCount totals the questions of every section.
func (a Assessment) QuestionCount() int {
	n := 0
	for _, s := range a.Sections {
		n += len(s.Questions)
	}
	return n
}

// CorrectOptions returns the labels of the options marked correct.
func (q Question) CorrectOptions() []string {
	var labels []string
	for _, opt := range q.Options {
		if opt.IsCorrect {
			labels = append(labels, opt.Label)
		}
	}
	return labels
}

// Prepared pairs an assessment with the rubrics parsed from it, indexed by
// section and question.
type Prepared struct {
	Assessment Assessment
	Rubrics    [][]Rubric
}

// Prepare parses every scoring rubric once so rendering never reparses.
func Prepare(a Assessment) Prepared {
	rubrics := make([][]Rubric, len(a.Sections))
	for i, section := range a.Sections {
		rubrics[i] = make([]Rubric, len(section.Questions))
		for j, q := range section.Questions {
			rubrics[i][j] = ParseRubric(q.ScoringRubric)
		}
	}
	return Prepared{Assessment: a, Rubrics: rubrics}
}

// Rubric returns the parsed rubric for a question, or an empty one when the
// indexes are out of range.
func (p Prepared) Rubric(section, question int) Rubric {
	if section < 0 || section >= len(p.Rubrics) {
		return Rubric{}
	}
	if question < 0 || question >= len(p.Rubrics[section]) {
		return Rubric{}
	}
	return p.Rubrics[section][question]
}

func humanize(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
