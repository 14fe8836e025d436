package survey

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrUnknownQuestion = errors.New("survey: unknown question")
	ErrAnswerMismatch  = errors.New("survey: answer does not fit question type")
	ErrRatingRange     = errors.New("survey: rating out of range")
	ErrUnknownOption   = errors.New("survey: answer is not one of the options")
)

// AnswerKind tags the shape of an Answer.
type AnswerKind string

const (
	KindText    AnswerKind = "text"
	KindRating  AnswerKind = "rating"
	KindChoice  AnswerKind = "choice"
	KindChoices AnswerKind = "choices"
)

// KindFor returns the answer kind a question type accepts.
func KindFor(t QuestionType) AnswerKind {
	switch t {
	case TypeRating:
		return KindRating
	case TypeMultipleChoice:
		return KindChoice
	case TypeCheckbox:
		return KindChoices
	default:
		return KindText
	}
}

// Answer is a tagged value; only the field matching Kind is meaningful.
type Answer struct {
	Kind    AnswerKind `json:"kind"`
	Text    string     `json:"text,omitempty"`
	Rating  int        `json:"rating,omitempty"`
	Choice  string     `json:"choice,omitempty"`
	Choices []string   `json:"choices,omitempty"`
}

// TextAnswer answers text and textarea questions.
func TextAnswer(s string) Answer {
	return Answer{Kind: KindText, Text: s}
}

// RatingAnswer answers rating questions.
func RatingAnswer(n int) Answer {
	return Answer{Kind: KindRating, Rating: n}
}

// ChoiceAnswer answers multiple-choice questions.
func ChoiceAnswer(option string) Answer {
	return Answer{Kind: KindChoice, Choice: option}
}

// CheckboxAnswer answers checkbox questions. Duplicates are dropped.
func CheckboxAnswer(options ...string) Answer {
	seen := make(map[string]struct{}, len(options))
	out := make([]string, 0, len(options))
	for _, o := range options {
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return Answer{Kind: KindChoices, Choices: out}
}

// ParseAnswer builds the answer for q from submitted form values.
func ParseAnswer(q Question, values []string) (Answer, error) {
	first := ""
	if len(values) > 0 {
		first = values[0]
	}
	switch KindFor(q.Type) {
	case KindRating:
		if strings.TrimSpace(first) == "" {
			return RatingAnswer(0), nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(first))
		if err != nil {
			return Answer{}, fmt.Errorf("%w: %q", ErrRatingRange, first)
		}
		return RatingAnswer(n), nil
	case KindChoice:
		return ChoiceAnswer(first), nil
	case KindChoices:
		return CheckboxAnswer(values...), nil
	default:
		return TextAnswer(first), nil
	}
}

// Validate checks a against q. Empty answers are valid; whether they
// satisfy a required question is decided by Satisfies.
func (a Answer) Validate(q Question) error {
	if a.Kind != KindFor(q.Type) {
		return fmt.Errorf("%w: %s answer for %s question %s", ErrAnswerMismatch, a.Kind, q.Type, q.ID)
	}
	switch a.Kind {
	case KindRating:
		if a.Rating != 0 && (a.Rating < MinRating || a.Rating > MaxRating) {
			return fmt.Errorf("%w: %d", ErrRatingRange, a.Rating)
		}
	case KindChoice:
		if a.Choice != "" && !q.HasOption(a.Choice) {
			return fmt.Errorf("%w: %q", ErrUnknownOption, a.Choice)
		}
	case KindChoices:
		for _, c := range a.Choices {
			if !q.HasOption(c) {
				return fmt.Errorf("%w: %q", ErrUnknownOption, c)
			}
		}
	}
	return nil
}

// Empty reports whether the answer carries no value.
func (a Answer) Empty() bool {
	switch a.Kind {
	case KindRating:
		return a.Rating == 0
	case KindChoice:
		return a.Choice == ""
	case KindChoices:
		return len(a.Choices) == 0
	default:
		return a.Text == ""
	}
}

// Selected reports whether option is part of a choice answer.
func (a Answer) Selected(option string) bool {
	switch a.Kind {
	case KindChoice:
		return a.Choice == option
	case KindChoices:
		return slices.Contains(a.Choices, option)
	default:
		return false
	}
}

// Value returns the plain value for reporting.
func (a Answer) Value() any {
	switch a.Kind {
	case KindRating:
		return a.Rating
	case KindChoice:
		return a.Choice
	case KindChoices:
		return slices.Clone(a.Choices)
	default:
		return a.Text
	}
}

func (a Answer) String() string {
	switch a.Kind {
	case KindRating:
		return strconv.Itoa(a.Rating)
	case KindChoice:
		return a.Choice
	case KindChoices:
		return strings.Join(a.Choices, ", ")
	default:
		return a.Text
	}
}

func (a Answer) clone() Answer {
	out := a
	if a.Choices != nil {
		out.Choices = slices.Clone(a.Choices)
	}
	return out
}

// Satisfies reports whether a recorded answer lets the respondent move past q.
func Satisfies(q Question, a Answer, present bool) bool {
	if !q.Required {
		return true
	}
	return present && !a.Empty()
}
