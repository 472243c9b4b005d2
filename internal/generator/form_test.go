package generator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/eduforge/internal/conversations"
	"github.com/csheth/eduforge/internal/navigation"
)

func TestEveryGeneratorHasAForm(t *testing.T) {
	for _, f := range navigation.Generators {
		form, ok := FormFor(f)
		require.True(t, ok, f.Key())
		_, hasRef := form.Field(ReferenceField)
		assert.True(t, hasRef, "%s should accept a reference", f.Key())
		assert.NotEmpty(t, Endpoint(f))
	}
	_, ok := FormFor(navigation.FeatureProfile)
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	form, _ := FormFor(navigation.FeatureAssessment)
	cases := []struct {
		name  string
		edit  func(Values)
		field string
		key   string
	}{
		{name: "defaults need a topic", edit: func(Values) {}, field: "topic", key: "error.required"},
		{name: "valid", edit: func(v Values) { v["topic"] = "Cells" }},
		{name: "not a number", edit: func(v Values) { v["topic"] = "Cells"; v["question_count"] = "ten" }, field: "question_count", key: "error.number"},
		{name: "out of range", edit: func(v Values) { v["topic"] = "Cells"; v["question_count"] = "99" }, field: "question_count", key: "error.range"},
		{name: "unknown choice", edit: func(v Values) { v["topic"] = "Cells"; v["difficulty"] = "brutal" }, field: "difficulty", key: "error.choice"},
		{name: "choice is case-insensitive", edit: func(v Values) { v["topic"] = "Cells"; v["difficulty"] = "HARD" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values := form.Defaults()
			tc.edit(values)
			err := form.Validate(values)
			if tc.key == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, tc.key, verr.Key)
			assert.NotEmpty(t, verr.Error())
		})
	}
}

func TestBuildRequestTypesParameters(t *testing.T) {
	form, _ := FormFor(navigation.FeatureCourseOutline)
	values := form.Defaults()
	values["topic"] = "  Ancient Rome "
	values["number_of_classes"] = "12"
	values["structured"] = "no"
	values[ReferenceField] = "notes.pdf"

	req, err := form.BuildRequest(values, RequestOptions{Model: "gpt-4o", Language: "es", Reference: "text"})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, "es", req.Language)
	assert.Equal(t, "text", req.Reference)
	assert.Equal(t, "Ancient Rome", req.Parameters["topic"])
	assert.Equal(t, 12, req.Parameters["number_of_classes"])
	assert.Equal(t, false, req.Parameters["structured"])
	assert.Equal(t, string(conversations.TypeMarkdownOutline), req.Parameters["conversation_type"])
	assert.NotContains(t, req.Parameters, ReferenceField)
	assert.NotContains(t, req.Parameters, "audience")
}

func TestConversationTypePerFeature(t *testing.T) {
	outline, _ := FormFor(navigation.FeatureCourseOutline)
	assert.Equal(t, conversations.TypeStructuredOutline, outline.ConversationType(outline.Defaults()))

	for f, want := range map[navigation.Feature]conversations.Type{
		navigation.FeatureLessonPlan:   conversations.TypeLessonPlan,
		navigation.FeaturePresentation: conversations.TypePresentation,
		navigation.FeatureAssessment:   conversations.TypeAssessment,
	} {
		form, _ := FormFor(f)
		got := form.ConversationType(form.Defaults())
		assert.Equal(t, want, got)
		back, ok := navigation.FeatureForType(got)
		assert.True(t, ok)
		assert.Equal(t, f, back)
	}
}

func TestFollowUp(t *testing.T) {
	_, err := FollowUp("  ", RequestOptions{ThreadID: "t1"})
	assert.Error(t, err)

	_, err = FollowUp("shorter please", RequestOptions{})
	assert.Error(t, err)

	req, err := FollowUp(" shorter please ", RequestOptions{ThreadID: "t1", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "t1", req.ThreadID)
	assert.Equal(t, "shorter please", req.Message)
	assert.Nil(t, req.Parameters)
}

func TestCycleChoice(t *testing.T) {
	form, _ := FormFor(navigation.FeatureAssessment)
	difficulty, _ := form.Field("difficulty")
	assert.Equal(t, "easy", difficulty.CycleChoice("mixed"))
	assert.Equal(t, "medium", difficulty.CycleChoice("Easy"))
	assert.Equal(t, "easy", difficulty.CycleChoice("unknown"))

	outline, _ := FormFor(navigation.FeatureCourseOutline)
	structured, _ := outline.Field("structured")
	assert.Equal(t, "no", structured.CycleChoice("yes"))
	assert.Equal(t, "yes", structured.CycleChoice("no"))
}
