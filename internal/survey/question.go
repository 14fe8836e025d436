// Package survey holds the survey authoring model, the survey-taking wizard
// and the catalog of surveys respondents can take.
package survey

import (
	"errors"
	"fmt"
	"slices"
)

// QuestionType names the kind of answer a question collects.
type QuestionType string

const (
	TypeText           QuestionType = "text"
	TypeTextarea       QuestionType = "textarea"
	TypeMultipleChoice QuestionType = "multiple-choice"
	TypeCheckbox       QuestionType = "checkbox"
	TypeRating         QuestionType = "rating"
)

// QuestionTypes lists every type in display order.
var QuestionTypes = []QuestionType{TypeText, TypeTextarea, TypeMultipleChoice, TypeCheckbox, TypeRating}

var (
	ErrUnknownType     = errors.New("survey: unknown question type")
	ErrInvalidQuestion = errors.New("survey: invalid question")
)

// ParseQuestionType maps raw input to a known type.
func ParseQuestionType(raw string) (QuestionType, error) {
	t := QuestionType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, raw)
	}
	return t, nil
}

// Valid reports whether t is one of the known types.
func (t QuestionType) Valid() bool {
	return slices.Contains(QuestionTypes, t)
}

// HasOptions reports whether questions of this type carry an option list.
func (t QuestionType) HasOptions() bool {
	return t == TypeMultipleChoice || t == TypeCheckbox
}

// Label is the human readable name of the type.
func (t QuestionType) Label() string {
	switch t {
	case TypeText:
		return "Text Input"
	case TypeTextarea:
		return "Long Text"
	case TypeMultipleChoice:
		return "Multiple Choice"
	case TypeCheckbox:
		return "Checkboxes"
	case TypeRating:
		return "Rating Scale"
	default:
		return string(t)
	}
}

// Question is one unit of a survey's input schema. Options is nil for types
// that do not use it and never empty for types that do.
type Question struct {
	ID       string       `json:"id" yaml:"id" validate:"required"`
	Type     QuestionType `json:"type" yaml:"type" validate:"required"`
	Title    string       `json:"title" yaml:"title" validate:"required"`
	Options  []string     `json:"options,omitempty" yaml:"options,omitempty"`
	Required bool         `json:"required" yaml:"required"`
}

// Validate checks the options invariant for the question's type.
func (q Question) Validate() error {
	if !q.Type.Valid() {
		return fmt.Errorf("%w: question %s: %w", ErrInvalidQuestion, q.ID, ErrUnknownType)
	}
	if q.Type.HasOptions() {
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %s needs at least one option", ErrInvalidQuestion, q.ID)
		}
		return nil
	}
	if q.Options != nil {
		return fmt.Errorf("%w: question %s cannot carry options", ErrInvalidQuestion, q.ID)
	}
	return nil
}

// HasOption reports whether value is one of the question's options.
func (q Question) HasOption(value string) bool {
	return slices.Contains(q.Options, value)
}

func (q Question) clone() Question {
	out := q
	if q.Options != nil {
		out.Options = slices.Clone(q.Options)
	}
	return out
}
