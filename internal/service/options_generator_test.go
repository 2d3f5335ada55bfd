package service

import (
	"testing"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
)

func TestQuestionTypesFor(t *testing.T) {
	tests := []struct {
		name string
		item *entities.StudyItem
		want []entities.QuestionType
	}{
		{
			"vocabulary with reading",
			catalogItem(1, entities.KindVocabulary, "曖昧", "あいまい", "vague"),
			[]entities.QuestionType{entities.QuestionMeaning, entities.QuestionExpression, entities.QuestionReading},
		},
		{
			"kanji without reading",
			catalogItem(2, entities.KindKanji, "鬱", "", "gloom"),
			[]entities.QuestionType{entities.QuestionMeaning, entities.QuestionExpression},
		},
		{
			"grammar",
			catalogItem(3, entities.KindGrammar, "～をもって", "", "by means of"),
			[]entities.QuestionType{entities.QuestionGrammar, entities.QuestionMeaning},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuestionTypesFor(tt.item)
			if len(got) != len(tt.want) {
				t.Fatalf("types = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("types = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestOptionGenerator_GenerateOptions(t *testing.T) {
	g := NewOptionGenerator()
	items := vocabulary()
	item := items[0]

	duplicate := catalogItem(9, entities.KindVocabulary, "漠然", "ばくぜん", "vague")
	noReading := catalogItem(10, entities.KindVocabulary, "X", "", "x")
	distractors := append([]*entities.StudyItem{duplicate, noReading}, items[1:]...)

	for _, qt := range QuestionTypesFor(item) {
		options, idx := g.GenerateOptions(item, qt, distractors)

		if len(options) != OptionsPerQuestion {
			t.Errorf("%s: %d options, want %d", qt, len(options), OptionsPerQuestion)
		}
		if options[idx] != AnswerFor(item, qt) {
			t.Errorf("%s: options[%d] = %q, want %q", qt, idx, options[idx], AnswerFor(item, qt))
		}

		seen := map[string]bool{}
		for _, o := range options {
			if o == "" {
				t.Errorf("%s: empty option in %v", qt, options)
			}
			if seen[o] {
				t.Errorf("%s: duplicate option %q", qt, o)
			}
			seen[o] = true
		}
	}
}

func TestOptionGenerator_FewDistractors(t *testing.T) {
	g := NewOptionGenerator()
	item := catalogItem(1, entities.KindGrammar, "～をもって", "", "by means of")

	options, idx := g.GenerateOptions(item, entities.QuestionGrammar, nil)
	if len(options) != 1 || idx != 0 {
		t.Errorf("options = %v, idx = %d", options, idx)
	}
}

func TestPromptFor(t *testing.T) {
	item := catalogItem(1, entities.KindVocabulary, "曖昧", "あいまい", "vague")

	tests := []struct {
		qt   entities.QuestionType
		want string
	}{
		{entities.QuestionMeaning, "What does 「曖昧」 mean?"},
		{entities.QuestionExpression, `Which word means "vague"?`},
		{entities.QuestionReading, "How is 「曖昧」 read?"},
	}
	for _, tt := range tests {
		if got := PromptFor(item, tt.qt); got != tt.want {
			t.Errorf("PromptFor(%s) = %q, want %q", tt.qt, got, tt.want)
		}
	}
}
