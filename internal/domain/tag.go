package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyTagName is returned when a tag name normalizes to the empty string.
var ErrEmptyTagName = errors.New("tag name cannot be empty")

// Tag is a name with an optional display color, attached to both sources and
// cards. Names are unique case-insensitively and stored lower-cased.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeTagName lower-cases and trims a tag name. Every path that attaches
// or looks up tags goes through this so uniqueness is case-insensitive.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewTag creates a Tag with a normalized name.
// Returns ErrEmptyTagName if the name normalizes to nothing.
func NewTag(name, color string) (*Tag, error) {
	normalized := NormalizeTagName(name)
	if normalized == "" {
		return nil, ErrEmptyTagName
	}

	return &Tag{
		ID:        uuid.New(),
		Name:      normalized,
		Color:     color,
		CreatedAt: time.Now().UTC(),
	}, nil
}
