// Package entities contains domain entities used across the application.
package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidItem = errors.New("invalid study item")

// ItemKind is the kind of study material an item represents.
type ItemKind string

const (
	KindVocabulary ItemKind = "vocabulary"
	KindKanji      ItemKind = "kanji"
	KindGrammar    ItemKind = "grammar"
)

// ItemKinds lists every supported kind.
var ItemKinds = []ItemKind{KindVocabulary, KindKanji, KindGrammar}

func (k ItemKind) Valid() bool {
	switch k {
	case KindVocabulary, KindKanji, KindGrammar:
		return true
	}
	return false
}

// StudyItem is a vocabulary word, kanji or grammar point.
// Catalog items have no owner; personal items belong to the user who added them.
type StudyItem struct {
	ID         int64      `json:"id"`
	OwnerID    *uuid.UUID `json:"owner_id,omitempty"`
	Kind       ItemKind   `json:"kind"`
	Expression string     `json:"expression"` // word, kanji character or grammar pattern
	Reading    string     `json:"reading,omitempty"`
	Meaning    string     `json:"meaning"`
	Example    string     `json:"example,omitempty"`
	JLPTLevel  int        `json:"jlpt_level"`
	Tags       []string   `json:"tags"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Normalize trims text fields and applies defaults.
func (i *StudyItem) Normalize() {
	i.Expression = strings.TrimSpace(i.Expression)
	i.Reading = strings.TrimSpace(i.Reading)
	i.Meaning = strings.TrimSpace(i.Meaning)
	i.Example = strings.TrimSpace(i.Example)
	if i.JLPTLevel == 0 {
		i.JLPTLevel = 1
	}

	tags := make([]string, 0, len(i.Tags))
	seen := make(map[string]struct{}, len(i.Tags))
	for _, t := range i.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	i.Tags = tags
}

// Validate checks the fields a user may submit.
func (i *StudyItem) Validate() error {
	switch {
	case !i.Kind.Valid():
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidItem, i.Kind)
	case i.Expression == "":
		return fmt.Errorf("%w: expression is required", ErrInvalidItem)
	case i.Meaning == "":
		return fmt.Errorf("%w: meaning is required", ErrInvalidItem)
	case i.JLPTLevel < 1 || i.JLPTLevel > 5:
		return fmt.Errorf("%w: jlpt level must be between 1 and 5", ErrInvalidItem)
	}
	return nil
}

// IsCatalog reports whether the item is part of the shared catalog.
func (i *StudyItem) IsCatalog() bool {
	return i.OwnerID == nil
}

// OwnedBy reports whether userID may modify the item.
func (i *StudyItem) OwnedBy(userID uuid.UUID) bool {
	return i.OwnerID != nil && *i.OwnerID == userID
}

// VisibleTo reports whether userID may read and review the item.
func (i *StudyItem) VisibleTo(userID uuid.UUID) bool {
	return i.IsCatalog() || i.OwnedBy(userID)
}

// ItemFilter narrows item listings. Zero values mean "no filter".
type ItemFilter struct {
	Kind   ItemKind
	Tag    string
	Search string
	Limit  int
	Offset int
}

const (
	DefaultItemLimit = 50
	MaxItemLimit     = 200
)

// Normalize clamps paging and trims text filters.
func (f *ItemFilter) Normalize() {
	f.Tag = strings.ToLower(strings.TrimSpace(f.Tag))
	f.Search = strings.TrimSpace(f.Search)
	if f.Limit <= 0 {
		f.Limit = DefaultItemLimit
	}
	f.Limit = min(f.Limit, MaxItemLimit)
	f.Offset = max(f.Offset, 0)
}
