package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// AnswerValidator validates typed answers with fuzzy matching support.
type AnswerValidator struct {
	threshold float64 // similarity threshold (0.0 - 1.0)
	exactUpTo int     // answers this short must match exactly
}

// NewAnswerValidator creates a new AnswerValidator.
func NewAnswerValidator() *AnswerValidator {
	return &AnswerValidator{
		threshold: 0.8,
		exactUpTo: 4,
	}
}

// Validate checks if the user's answer matches the correct answer. The
// correct answer may list alternatives separated by ";", "," or "/".
func (v *AnswerValidator) Validate(userAnswer, correctAnswer string) bool {
	user := v.normalize(userAnswer)
	if user == "" {
		return false
	}

	for _, alt := range splitAlternatives(correctAnswer) {
		correct := v.normalize(alt)
		if correct == "" {
			continue
		}
		if user == correct {
			return true
		}
		if len([]rune(correct)) <= v.exactUpTo {
			continue
		}
		if v.similarity(user, correct) >= v.threshold {
			return true
		}
	}

	return false
}

func splitAlternatives(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ';', ',', '/', '；', '、', '／':
			return true
		}
		return false
	})
}

// normalize folds a string into a comparable form: NFKC, full-width
// katakana, half-width ASCII, katakana turned into hiragana, lowercase and
// collapsed whitespace. Sentence punctuation is dropped.
func (v *AnswerValidator) normalize(s string) string {
	s = norm.NFKC.String(s)
	s = width.Fold.String(s)
	s = toHiragana(s)
	s = strings.ToLower(s)

	s = strings.Map(func(r rune) rune {
		switch r {
		case '。', '．', '.', '!', '！', '?', '？', '「', '」', '『', '』', '・':
			return -1
		}
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// toHiragana maps katakana letters onto their hiragana counterparts. The
// prolonged sound mark is left as is.
func toHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'ァ' && r <= 'ヶ' {
			return r - 0x60
		}
		return r
	}, s)
}

// similarity calculates the similarity between two strings using Levenshtein distance.
func (v *AnswerValidator) similarity(s1, s2 string) float64 {
	distance := levenshteinDistance(s1, s2)
	maxLen := max(len([]rune(s1)), len([]rune(s2)))

	if maxLen == 0 {
		return 1.0
	}

	return 1.0 - float64(distance)/float64(maxLen)
}

// levenshteinDistance calculates the Levenshtein distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)

	rows := len(r1) + 1
	cols := len(r2) + 1

	// Two rows instead of the full matrix.
	prev := make([]int, cols)
	curr := make([]int, cols)

	for j := 0; j < cols; j++ {
		prev[j] = j
	}

	for i := 1; i < rows; i++ {
		curr[0] = i

		for j := 1; j < cols; j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}

			curr[j] = min(
				curr[j-1]+1,    // insertion
				prev[j]+1,      // deletion
				prev[j-1]+cost, // substitution
			)
		}

		prev, curr = curr, prev
	}

	return prev[cols-1]
}
