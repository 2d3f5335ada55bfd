package service

import (
	"fmt"
	"math/rand"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
)

// OptionsPerQuestion is the number of choices shown for a question when the
// catalog has enough distinct answers.
const OptionsPerQuestion = 4

// OptionGenerator generates multiple choice options for quiz questions.
type OptionGenerator struct{}

// NewOptionGenerator creates a new option generator.
func NewOptionGenerator() *OptionGenerator {
	return &OptionGenerator{}
}

// QuestionTypesFor lists the question types that can be asked about an item.
func QuestionTypesFor(item *entities.StudyItem) []entities.QuestionType {
	switch item.Kind {
	case entities.KindGrammar:
		return []entities.QuestionType{entities.QuestionGrammar, entities.QuestionMeaning}
	default:
		types := []entities.QuestionType{entities.QuestionMeaning, entities.QuestionExpression}
		if item.Reading != "" {
			types = append(types, entities.QuestionReading)
		}
		return types
	}
}

// AnswerFor returns the text that answers a question of type qt about item.
func AnswerFor(item *entities.StudyItem, qt entities.QuestionType) string {
	switch qt {
	case entities.QuestionExpression, entities.QuestionGrammar:
		return item.Expression
	case entities.QuestionReading:
		return item.Reading
	default:
		return item.Meaning
	}
}

// PromptFor returns the question text.
func PromptFor(item *entities.StudyItem, qt entities.QuestionType) string {
	switch qt {
	case entities.QuestionExpression:
		return fmt.Sprintf("Which word means \"%s\"?", item.Meaning)
	case entities.QuestionReading:
		return fmt.Sprintf("How is 「%s」 read?", item.Expression)
	case entities.QuestionGrammar:
		return fmt.Sprintf("Which grammar pattern expresses \"%s\"?", item.Meaning)
	default:
		return fmt.Sprintf("What does 「%s」 mean?", item.Expression)
	}
}

// RandomQuestionType picks one of the question types available for item.
func (g *OptionGenerator) RandomQuestionType(item *entities.StudyItem) entities.QuestionType {
	types := QuestionTypesFor(item)
	return types[rand.Intn(len(types))]
}

// GenerateOptions creates up to OptionsPerQuestion options including the
// correct answer. Returns the options and the index of the correct one.
func (g *OptionGenerator) GenerateOptions(
	item *entities.StudyItem,
	qt entities.QuestionType,
	distractors []*entities.StudyItem,
) ([]string, int) {
	correct := AnswerFor(item, qt)
	wrong := g.wrongOptions(correct, qt, distractors, OptionsPerQuestion-1)
	return buildOptionsWithCorrect(correct, wrong)
}

// wrongOptions picks distinct non-empty answers that differ from the correct one.
func (g *OptionGenerator) wrongOptions(correct string, qt entities.QuestionType, distractors []*entities.StudyItem, count int) []string {
	used := map[string]bool{correct: true}
	out := make([]string, 0, count)

	for _, d := range distractors {
		if len(out) >= count {
			break
		}
		text := AnswerFor(d, qt)
		if text == "" || used[text] {
			continue
		}
		used[text] = true
		out = append(out, text)
	}

	return out
}

func buildOptionsWithCorrect(correct string, distractors []string) ([]string, int) {
	options := make([]string, 0, 1+len(distractors))
	options = append(options, correct)
	options = append(options, distractors...)

	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	correctIndex := 0
	for i, opt := range options {
		if opt == correct {
			correctIndex = i
			break
		}
	}

	return options, correctIndex
}
