package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidGeneratedContent = errors.New("invalid generated content")

// GenerationKind is the kind of practice material produced by the model.
type GenerationKind string

const (
	GenerateExamples  GenerationKind = "examples"
	GenerateQuestions GenerationKind = "questions"

	MaxGenerateCount = 10
)

func (k GenerationKind) Valid() bool {
	return k == GenerateExamples || k == GenerateQuestions
}

// ExampleSentence is a generated usage example for an item.
type ExampleSentence struct {
	Japanese    string `json:"japanese"`
	Reading     string `json:"reading"`
	Translation string `json:"translation"`
}

// PracticeQuestion is a generated multiple choice question.
type PracticeQuestion struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

// GeneratedContent is a stored batch of generated practice material.
type GeneratedContent struct {
	ID        string             `json:"id"` // ULID
	UserID    uuid.UUID          `json:"-"`
	ItemID    int64              `json:"item_id"`
	Kind      GenerationKind     `json:"kind"`
	Model     string             `json:"model"`
	Examples  []ExampleSentence  `json:"examples,omitempty"`
	Questions []PracticeQuestion `json:"questions,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// Validate checks the shape returned by the model before it is stored.
func (g *GeneratedContent) Validate() error {
	switch g.Kind {
	case GenerateExamples:
		if len(g.Examples) == 0 {
			return fmt.Errorf("%w: no examples", ErrInvalidGeneratedContent)
		}
		for i, e := range g.Examples {
			if strings.TrimSpace(e.Japanese) == "" {
				return fmt.Errorf("%w: example %d has no sentence", ErrInvalidGeneratedContent, i)
			}
		}
	case GenerateQuestions:
		if len(g.Questions) == 0 {
			return fmt.Errorf("%w: no questions", ErrInvalidGeneratedContent)
		}
		for i, q := range g.Questions {
			if strings.TrimSpace(q.Prompt) == "" || len(q.Options) < 2 {
				return fmt.Errorf("%w: question %d is incomplete", ErrInvalidGeneratedContent, i)
			}
			if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
				return fmt.Errorf("%w: question %d has no valid answer", ErrInvalidGeneratedContent, i)
			}
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidGeneratedContent, g.Kind)
	}
	return nil
}
