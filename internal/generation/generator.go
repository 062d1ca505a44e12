package generation

import "context"

// CardDraft is a provider-agnostic card proposal. The service layer converts
// drafts into domain cards linked to their source.
type CardDraft struct {
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Hint  string   `json:"hint,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// Generator produces card drafts from a source text.
type Generator interface {
	// GenerateCards proposes question/answer drafts for the given text.
	// Implementations classify failures with the sentinel errors in this
	// package so callers can distinguish retryable conditions from
	// permanent ones.
	GenerateCards(ctx context.Context, sourceText string) ([]CardDraft, error)
}
