package survey

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

const (
	defaultDraftTitle    = "Untitled Survey"
	defaultQuestionTitle = "New Question"
)

// IDFunc generates question ids.
type IDFunc func() string

// NewQuestionID returns a time-ordered id, unique within an editing session.
func NewQuestionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Draft is an immutable snapshot of a survey being authored. Every
// operation returns a new Draft and leaves the receiver untouched.
type Draft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`

	newID IDFunc
}

// QuestionPatch carries the fields UpdateQuestion merges; nil fields are kept.
type QuestionPatch struct {
	Title    *string
	Required *bool
}

// NewDraft returns an empty draft with the default title.
func NewDraft() Draft {
	return Draft{Title: defaultDraftTitle}
}

// WithIDs returns a copy that generates question ids with fn.
func (d Draft) WithIDs(fn IDFunc) Draft {
	out := d.clone()
	out.newID = fn
	return out
}

// WithDetails sets the survey title and description.
func (d Draft) WithDetails(title, description string) Draft {
	out := d.clone()
	out.Title = title
	out.Description = description
	return out
}

// AddQuestion appends a question of type t. Choice questions start with two
// placeholder options. Unknown types leave the draft unchanged.
func (d Draft) AddQuestion(t QuestionType) Draft {
	if !t.Valid() {
		return d.clone()
	}
	q := Question{ID: d.nextID(), Type: t, Title: defaultQuestionTitle}
	if t.HasOptions() {
		q.Options = []string{"Option 1", "Option 2"}
	}
	out := d.clone()
	out.Questions = append(out.Questions, q)
	return out
}

// UpdateQuestion merges patch into the question with id.
func (d Draft) UpdateQuestion(id string, patch QuestionPatch) Draft {
	return d.modify(id, func(q *Question) {
		if patch.Title != nil {
			q.Title = *patch.Title
		}
		if patch.Required != nil {
			q.Required = *patch.Required
		}
	})
}

// DeleteQuestion removes the question with id. Other ids are untouched.
func (d Draft) DeleteQuestion(id string) Draft {
	out := d.clone()
	out.Questions = slices.DeleteFunc(out.Questions, func(q Question) bool { return q.ID == id })
	return out
}

// AddOption appends "Option n+1" to a choice question.
func (d Draft) AddOption(id string) Draft {
	return d.modify(id, func(q *Question) {
		if q.Options == nil {
			return
		}
		q.Options = append(q.Options, fmt.Sprintf("Option %d", len(q.Options)+1))
	})
}

// UpdateOption replaces the option at index.
func (d Draft) UpdateOption(id string, index int, value string) Draft {
	return d.modify(id, func(q *Question) {
		if index < 0 || index >= len(q.Options) {
			return
		}
		q.Options[index] = value
	})
}

// RemoveOption drops the option at index unless it is the last one left.
func (d Draft) RemoveOption(id string, index int) Draft {
	return d.modify(id, func(q *Question) {
		if len(q.Options) <= 1 || index < 0 || index >= len(q.Options) {
			return
		}
		q.Options = slices.Delete(q.Options, index, index+1)
	})
}

// Question returns the question with id.
func (d Draft) Question(id string) (Question, bool) {
	for _, q := range d.Questions {
		if q.ID == id {
			return q.clone(), true
		}
	}
	return Question{}, false
}

// Survey converts the draft into a takeable survey definition.
func (d Draft) Survey(id string) Survey {
	out := d.clone()
	return Survey{ID: id, Title: out.Title, Description: out.Description, Questions: out.Questions}
}

func (d Draft) modify(id string, fn func(q *Question)) Draft {
	out := d.clone()
	for i := range out.Questions {
		if out.Questions[i].ID == id {
			fn(&out.Questions[i])
			break
		}
	}
	return out
}

func (d Draft) nextID() string {
	if d.newID != nil {
		return d.newID()
	}
	return NewQuestionID()
}

func (d Draft) clone() Draft {
	out := d
	if d.Questions != nil {
		out.Questions = make([]Question, len(d.Questions))
		for i, q := range d.Questions {
			out.Questions[i] = q.clone()
		}
	}
	return out
}
