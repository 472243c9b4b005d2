package assessment

import (
	"encoding/json"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loosePayload = `{
  "assessment_title": "Loose quiz",
  "total_points": "15",
  "estimated_duration_minutes": 22.5,
  "sections": [
    {
      "section_type": "true_false",
      "questions": [
        {"question_text": "Water boils at 100C at sea level.", "points": 1.5, "correct_answer": true},
        {"question_text": "2 + 2", "points": "2", "correct_answer": 4},
        {
          "question_text": "Describe osmosis.",
          "scoring_rubric": {"Criteria": {"Accuracy": "correct terms"}, "Points": {"Full": 5}},
          "key_points": "semi-permeable membrane",
          "options": "not a list"
        }
      ]
    },
    "not a section"
  ]
}`

func TestDecodeToleratesLooseTypes(t *testing.T) {
	var a Assessment
	require.NoError(t, json.Unmarshal([]byte(loosePayload), &a))

	assert.Equal(t, 15.0, a.TotalPoints)
	assert.Equal(t, 23, a.EstimatedDurationMinutes)
	require.Len(t, a.Sections, 1)
	questions := a.Sections[0].Questions
	require.Len(t, questions, 3)

	assert.Equal(t, "true", questions[0].CorrectAnswer)
	assert.Equal(t, 1.5, questions[0].Points)
	assert.Equal(t, "4", questions[1].CorrectAnswer)
	assert.Equal(t, 2.0, questions[1].Points)

	essay := questions[2]
	assert.Empty(t, essay.Options)
	assert.Equal(t, []string{"semi-permeable membrane"}, essay.KeyPoints)
	rubric := ParseRubric(essay.ScoringRubric)
	assert.Equal(t, RubricStructured, rubric.Kind)
	assert.Equal(t, []string{"Accuracy: correct terms"}, rubric.ListItems())
}

func TestDecodeQuestionInsideResult(t *testing.T) {
	var wrapper struct {
		Assessment *Assessment `json:"assessment"`
		Markdown   string      `json:"markdown"`
	}
	payload := `{"markdown": "# Quiz", "assessment": {"sections": [{"questions": [{"correct_answer": false, "points": 3.0}]}]}}`
	require.NoError(t, json.Unmarshal([]byte(payload), &wrapper))
	require.NotNil(t, wrapper.Assessment)
	assert.Equal(t, "# Quiz", wrapper.Markdown)
	assert.Equal(t, "false", wrapper.Assessment.Sections[0].Questions[0].CorrectAnswer)

	var q Question
	require.NoError(t, json.Unmarshal([]byte(`{"correct_answer": ["A", "C"], "difficulty": "hard"}`), &q))
	assert.Equal(t, "A, C", q.CorrectAnswer)
	assert.Equal(t, DifficultyHard, q.Difficulty)
}

func TestLabelKeepsMultibyteRunes(t *testing.T) {
	label := SectionType("énoncé_libre").Label()
	assert.Equal(t, "Énoncé libre", label)
	assert.True(t, utf8.ValidString(label))
	assert.Equal(t, "Ñandú", Difficulty("ñandú").Label())
}
