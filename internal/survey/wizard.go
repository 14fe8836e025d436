package survey

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNotLastQuestion = errors.New("survey: submit is only allowed on the last question")
	ErrAnswerRequired  = errors.New("survey: this question is required to continue")
)

// Survey is a fixed, ordered list of questions.
type Survey struct {
	ID          string     `json:"id" yaml:"id" validate:"required"`
	Title       string     `json:"title" yaml:"title" validate:"required"`
	Description string     `json:"description" yaml:"description"`
	Questions   []Question `json:"questions" yaml:"questions" validate:"required,min=1,dive"`
}

// Question returns the question with id.
func (s Survey) Question(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// State is the persisted position of one respondent in one survey.
type State struct {
	SurveyID     string            `json:"survey_id"`
	CurrentIndex int               `json:"current_index"`
	Answers      map[string]Answer `json:"answers"`
}

// Wizard walks a respondent through a survey one question at a time.
// Answers persist across back and forward navigation.
type Wizard struct {
	survey Survey
	state  State
}

// NewWizard starts at the first question with no answers.
func NewWizard(s Survey) *Wizard {
	return &Wizard{survey: s, state: State{SurveyID: s.ID, Answers: make(map[string]Answer)}}
}

// Resume rebuilds a wizard from saved state. Answers that no longer fit the
// survey are dropped and the index is clamped.
func Resume(s Survey, st State) *Wizard {
	w := NewWizard(s)
	for id, a := range st.Answers {
		q, ok := s.Question(id)
		if !ok || a.Validate(q) != nil {
			continue
		}
		w.state.Answers[id] = a.clone()
	}
	w.state.CurrentIndex = min(max(st.CurrentIndex, 0), max(len(s.Questions)-1, 0))
	return w
}

// Survey returns the survey being taken.
func (w *Wizard) Survey() Survey { return w.survey }

// State returns a copy of the wizard state.
func (w *Wizard) State() State {
	out := State{SurveyID: w.state.SurveyID, CurrentIndex: w.state.CurrentIndex, Answers: make(map[string]Answer, len(w.state.Answers))}
	for id, a := range w.state.Answers {
		out.Answers[id] = a.clone()
	}
	return out
}

// Index is the 0-based position of the current question.
func (w *Wizard) Index() int { return w.state.CurrentIndex }

// Total is the number of questions.
func (w *Wizard) Total() int { return len(w.survey.Questions) }

// Current returns the question being shown.
func (w *Wizard) Current() Question {
	if len(w.survey.Questions) == 0 {
		return Question{}
	}
	return w.survey.Questions[w.state.CurrentIndex]
}

// IsFirst reports whether the current question is the first.
func (w *Wizard) IsFirst() bool { return w.state.CurrentIndex == 0 }

// IsLast reports whether the current question is the last.
func (w *Wizard) IsLast() bool { return w.state.CurrentIndex >= len(w.survey.Questions)-1 }

// Answer returns the recorded answer for a question.
func (w *Wizard) Answer(id string) (Answer, bool) {
	a, ok := w.state.Answers[id]
	return a.clone(), ok
}

// RecordAnswer stores a for the question with id, replacing any earlier
// answer. The answer must fit the question's type and options.
func (w *Wizard) RecordAnswer(id string, a Answer) error {
	q, ok := w.survey.Question(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
	}
	if err := a.Validate(q); err != nil {
		return err
	}
	w.state.Answers[id] = a.clone()
	return nil
}

// ClearAnswer forgets the answer for id.
func (w *Wizard) ClearAnswer(id string) {
	delete(w.state.Answers, id)
}

// CanProceed reports whether the current question allows moving on.
func (w *Wizard) CanProceed() bool {
	if len(w.survey.Questions) == 0 {
		return false
	}
	q := w.Current()
	a, ok := w.state.Answers[q.ID]
	return Satisfies(q, a, ok)
}

// GoNext advances when not on the last question and the current question
// is satisfied. It reports whether the index moved.
func (w *Wizard) GoNext() bool {
	if w.IsLast() || !w.CanProceed() {
		return false
	}
	w.state.CurrentIndex++
	return true
}

// GoPrevious steps back without re-validating the question being left.
func (w *Wizard) GoPrevious() bool {
	if w.state.CurrentIndex <= 0 {
		return false
	}
	w.state.CurrentIndex--
	return true
}

// Submit returns every recorded answer. It is only allowed on the last
// question once that question is satisfied.
func (w *Wizard) Submit() (map[string]Answer, error) {
	if !w.IsLast() || len(w.survey.Questions) == 0 {
		return nil, ErrNotLastQuestion
	}
	if !w.CanProceed() {
		return nil, ErrAnswerRequired
	}
	out := make(map[string]Answer, len(w.state.Answers))
	for id, a := range w.state.Answers {
		out[id] = a.clone()
	}
	return out, nil
}

// Progress is the completion percentage including the current question.
func (w *Wizard) Progress() int {
	total := len(w.survey.Questions)
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(w.state.CurrentIndex+1) / float64(total) * 100))
}

// Values flattens answers for reporting.
func Values(answers map[string]Answer) map[string]any {
	out := make(map[string]any, len(answers))
	for id, a := range answers {
		out[id] = a.Value()
	}
	return out
}
