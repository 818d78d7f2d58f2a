package domain

import (
	"fmt"
	"strings"
)

// ValidateQuiz checks q and returns a *ValidationError naming the first violated field.
func ValidateQuiz(q Quiz) error {
	if strings.TrimSpace(q.Question) == "" {
		return &ValidationError{Field: "question", Reason: "must be a non-empty string"}
	}
	if len(q.Options) != NumOptions {
		return &ValidationError{Field: "options", Reason: fmt.Sprintf("must have exactly %d elements", NumOptions)}
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return &ValidationError{Field: fmt.Sprintf("options[%d]", i), Reason: "must be a non-empty string"}
		}
	}
	if !ValidAnswerIndex(q.CorrectIndex) {
		return &ValidationError{Field: "correctIndex", Reason: fmt.Sprintf("must be between 0 and %d", NumOptions-1)}
	}
	return nil
}

// ValidAnswerIndex reports whether idx addresses one of the quiz options.
func ValidAnswerIndex(idx int) bool {
	return idx >= 0 && idx < NumOptions
}

// QuizInput is a quiz as submitted by an admin or a seed file, before
// validation. A missing correctIndex is distinguishable from 0.
type QuizInput struct {
	Question     string   `json:"question" yaml:"question"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex *int     `json:"correctIndex" yaml:"correctIndex"`
}

// Quiz validates in and returns the quiz it describes.
func (in QuizInput) Quiz() (Quiz, error) {
	q := Quiz{Question: in.Question, Options: in.Options}
	if in.CorrectIndex == nil {
		// Earlier fields still take precedence in the report.
		if err := ValidateQuiz(q); err != nil {
			return Quiz{}, err
		}
		return Quiz{}, &ValidationError{Field: "correctIndex", Reason: "must be an integer"}
	}
	q.CorrectIndex = *in.CorrectIndex
	if err := ValidateQuiz(q); err != nil {
		return Quiz{}, err
	}
	return q, nil
}
