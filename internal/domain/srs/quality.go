package srs

import (
	"errors"
	"fmt"
)

// Fixed qualities for the boolean "known / unknown" review outcome.
const (
	QualityKnown   = 4
	QualityUnknown = 2
)

var ErrQualityOutOfRange = errors.New("quality must be between 0 and 5")

// FromKnown maps a boolean recall outcome onto the 0-5 scale.
func FromKnown(known bool) int {
	if known {
		return QualityKnown
	}
	return QualityUnknown
}

// ValidateQuality rejects values outside 0-5. Callers validate at the boundary
// so that Schedule never has to clamp a real request.
func ValidateQuality(q int) error {
	if q < MinQuality || q > MaxQuality {
		return fmt.Errorf("%w: got %d", ErrQualityOutOfRange, q)
	}
	return nil
}

// ClampQuality forces q into 0-5.
func ClampQuality(q int) int {
	return min(max(q, MinQuality), MaxQuality)
}

// IsCorrect reports whether a quality counts as a successful recall.
func IsCorrect(q int) bool {
	return q >= PassQuality
}
