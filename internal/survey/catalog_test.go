package survey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveyhub/surveyhub/internal/survey"
)

func TestDefaultCatalog(t *testing.T) {
	catalog, err := survey.DefaultCatalog()
	require.NoError(t, err)

	s := catalog.Default()
	assert.Equal(t, "customer-satisfaction", s.ID)
	assert.Equal(t, "Customer Satisfaction Survey", s.Title)
	require.Len(t, s.Questions, 5)

	types := []survey.QuestionType{}
	for _, q := range s.Questions {
		types = append(types, q.Type)
	}
	assert.Equal(t, []survey.QuestionType{
		survey.TypeMultipleChoice, survey.TypeRating, survey.TypeCheckbox, survey.TypeTextarea, survey.TypeText,
	}, types)
	assert.True(t, s.Questions[0].Required)
	assert.True(t, s.Questions[1].Required)
	assert.False(t, s.Questions[2].Required)
}

func TestCatalogGetFallsBackToDefault(t *testing.T) {
	catalog, err := survey.DefaultCatalog()
	require.NoError(t, err)

	assert.Equal(t, "customer-satisfaction", catalog.Get("does-not-exist").ID)
	_, ok := catalog.Lookup("does-not-exist")
	assert.False(t, ok)
	assert.Len(t, catalog.List(), 1)
}

func TestParseCatalogRejectsBadDefinitions(t *testing.T) {
	cases := map[string]string{
		"empty":   `surveys: []`,
		"garbage": `surveys: [`,
		"duplicate question": `
surveys:
  - id: a
    title: A
    questions:
      - {id: "1", type: text, title: One}
      - {id: "1", type: text, title: Two}
`,
		"choice without options": `
surveys:
  - id: a
    title: A
    questions:
      - {id: "1", type: checkbox, title: One}
`,
		"missing default": `
default: b
surveys:
  - id: a
    title: A
    questions:
      - {id: "1", type: text, title: One}
`,
		"no questions": `
surveys:
  - id: a
    title: A
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := survey.ParseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseCatalogDefaultsToFirstSurvey(t *testing.T) {
	catalog, err := survey.ParseCatalog([]byte(`
surveys:
  - id: pulse
    title: Pulse
    questions:
      - {id: "1", type: rating, title: Mood, required: true}
  - id: exit
    title: Exit
    questions:
      - {id: "1", type: textarea, title: Why}
`))
	require.NoError(t, err)
	assert.Equal(t, "pulse", catalog.Default().ID)
	assert.Equal(t, "exit", catalog.Get("exit").ID)
}
