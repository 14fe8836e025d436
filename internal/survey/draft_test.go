package survey_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveyhub/surveyhub/internal/survey"
)

func sequentialIDs() survey.IDFunc {
	n := 0
	return func() string {
		n++
		return "q" + strconv.Itoa(n)
	}
}

func TestNewDraftDefaults(t *testing.T) {
	d := survey.NewDraft()
	assert.Equal(t, "Untitled Survey", d.Title)
	assert.Empty(t, d.Description)
	assert.Empty(t, d.Questions)
}

func TestAddQuestionSeedsOptionsForChoiceTypes(t *testing.T) {
	d := survey.NewDraft().WithIDs(sequentialIDs())
	for _, typ := range survey.QuestionTypes {
		d = d.AddQuestion(typ)
	}
	require.Len(t, d.Questions, 5)

	for _, q := range d.Questions {
		assert.Equal(t, "New Question", q.Title)
		assert.False(t, q.Required)
		require.NoError(t, q.Validate())
		if q.Type.HasOptions() {
			assert.Equal(t, []string{"Option 1", "Option 2"}, q.Options)
		} else {
			assert.Nil(t, q.Options)
		}
	}
	assert.Equal(t, "q1", d.Questions[0].ID)
	assert.Equal(t, "q5", d.Questions[4].ID)
}

func TestAddQuestionIgnoresUnknownType(t *testing.T) {
	d := survey.NewDraft().AddQuestion(survey.QuestionType("matrix"))
	assert.Empty(t, d.Questions)
}

func TestGeneratedIDsAreUnique(t *testing.T) {
	d := survey.NewDraft()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		d = d.AddQuestion(survey.TypeText)
	}
	for _, q := range d.Questions {
		assert.False(t, seen[q.ID], "duplicate id %s", q.ID)
		seen[q.ID] = true
	}
}

func TestOperationsLeaveReceiverUntouched(t *testing.T) {
	base := survey.NewDraft().WithIDs(sequentialIDs()).AddQuestion(survey.TypeMultipleChoice)

	title := "Favourite colour?"
	required := true
	updated := base.UpdateQuestion("q1", survey.QuestionPatch{Title: &title, Required: &required})
	updated = updated.AddOption("q1").UpdateOption("q1", 0, "Red").RemoveOption("q1", 1)

	assert.Equal(t, "New Question", base.Questions[0].Title)
	assert.False(t, base.Questions[0].Required)
	assert.Equal(t, []string{"Option 1", "Option 2"}, base.Questions[0].Options)

	assert.Equal(t, "Favourite colour?", updated.Questions[0].Title)
	assert.True(t, updated.Questions[0].Required)
	assert.Equal(t, []string{"Red", "Option 3"}, updated.Questions[0].Options)
}

func TestUpdateQuestionMergesPatch(t *testing.T) {
	d := survey.NewDraft().WithIDs(sequentialIDs()).AddQuestion(survey.TypeText)
	required := true
	d = d.UpdateQuestion("q1", survey.QuestionPatch{Required: &required})

	q, ok := d.Question("q1")
	require.True(t, ok)
	assert.Equal(t, "New Question", q.Title)
	assert.True(t, q.Required)

	same := d.UpdateQuestion("missing", survey.QuestionPatch{Required: &required})
	assert.Equal(t, d.Questions, same.Questions)
}

func TestDeleteQuestionKeepsOtherIDs(t *testing.T) {
	d := survey.NewDraft().WithIDs(sequentialIDs()).
		AddQuestion(survey.TypeText).
		AddQuestion(survey.TypeRating).
		AddQuestion(survey.TypeCheckbox)

	d = d.DeleteQuestion("q2")
	require.Len(t, d.Questions, 2)
	assert.Equal(t, "q1", d.Questions[0].ID)
	assert.Equal(t, "q3", d.Questions[1].ID)

	d = d.AddQuestion(survey.TypeText)
	assert.Equal(t, "q4", d.Questions[2].ID)
}

func TestAddOptionNumbersFromCount(t *testing.T) {
	d := survey.NewDraft().WithIDs(sequentialIDs()).AddQuestion(survey.TypeCheckbox)
	for n := 2; n < 6; n++ {
		before, _ := d.Question("q1")
		require.Len(t, before.Options, n)
		d = d.AddOption("q1")
		after, _ := d.Question("q1")
		require.Len(t, after.Options, n+1)
		assert.Equal(t, "Option "+strconv.Itoa(n+1), after.Options[n])
	}
}

func TestAddOptionIgnoresQuestionsWithoutOptions(t *testing.T) {
	d := survey.NewDraft().WithIDs(sequentialIDs()).AddQuestion(survey.TypeRating).AddOption("q1")
	q, _ := d.Question("q1")
	assert.Nil(t, q.Options)
}

func TestUpdateOptionOutOfRange(t *testing.T) {
	d := survey.NewDraft().WithIDs(sequentialIDs()).AddQuestion(survey.TypeMultipleChoice)
	d = d.UpdateOption("q1", 5, "Nope").UpdateOption("q1", -1, "Nope")
	q, _ := d.Question("q1")
	assert.Equal(t, []string{"Option 1", "Option 2"}, q.Options)
}

func TestRemoveOptionNeverEmptiesList(t *testing.T) {
	d := survey.NewDraft().WithIDs(sequentialIDs()).AddQuestion(survey.TypeMultipleChoice).AddOption("q1")

	d = d.RemoveOption("q1", 1)
	q, _ := d.Question("q1")
	assert.Equal(t, []string{"Option 1", "Option 3"}, q.Options)

	d = d.RemoveOption("q1", 0)
	q, _ = d.Question("q1")
	assert.Equal(t, []string{"Option 3"}, q.Options)

	d = d.RemoveOption("q1", 0)
	q, _ = d.Question("q1")
	assert.Equal(t, []string{"Option 3"}, q.Options)
	require.NoError(t, q.Validate())
}

func TestDraftSurveyIsDetached(t *testing.T) {
	d := survey.NewDraft().WithIDs(sequentialIDs()).WithDetails("Team pulse", "Weekly check-in").AddQuestion(survey.TypeCheckbox)
	s := d.Survey("preview")
	s.Questions[0].Options[0] = "changed"

	q, _ := d.Question("q1")
	assert.Equal(t, "Option 1", q.Options[0])
	assert.Equal(t, "Team pulse", s.Title)
	assert.Equal(t, "preview", s.ID)
}

func TestQuestionTypeLabels(t *testing.T) {
	labels := make([]string, 0, len(survey.QuestionTypes))
	for _, typ := range survey.QuestionTypes {
		labels = append(labels, typ.Label())
	}
	assert.Equal(t, []string{"Text Input", "Long Text", "Multiple Choice", "Checkboxes", "Rating Scale"}, labels)

	_, err := survey.ParseQuestionType("slider")
	assert.ErrorIs(t, err, survey.ErrUnknownType)
}

func TestQuestionValidate(t *testing.T) {
	cases := []struct {
		name string
		q    survey.Question
		ok   bool
	}{
		{"text", survey.Question{ID: "a", Type: survey.TypeText, Title: "t"}, true},
		{"text with options", survey.Question{ID: "a", Type: survey.TypeText, Title: "t", Options: []string{"x"}}, false},
		{"choice without options", survey.Question{ID: "a", Type: survey.TypeMultipleChoice, Title: "t"}, false},
		{"checkbox", survey.Question{ID: "a", Type: survey.TypeCheckbox, Title: "t", Options: []string{"x"}}, true},
		{"unknown", survey.Question{ID: "a", Type: "slider", Title: "t"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.q.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, survey.ErrInvalidQuestion)
			}
		})
	}
}
