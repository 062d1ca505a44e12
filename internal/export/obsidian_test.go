package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The exporter only reads ListApproved and List; embedding the interfaces
// keeps the stubs small and panics loudly if anything else gets called.

type stubSourceStore struct {
	store.SourceStore
	approved []*domain.Source
}

func (s stubSourceStore) ListApproved(context.Context) ([]*domain.Source, error) {
	return s.approved, nil
}

type stubCardStore struct {
	store.CardStore
	active []*domain.Card
}

func (s stubCardStore) List(context.Context, store.CardFilter) ([]*domain.Card, int, error) {
	return s.active, len(s.active), nil
}

func approvedSource(t *testing.T) *domain.Source {
	t.Helper()
	source, err := domain.NewSource("The Roman Empire fell in 476 CE.", domain.SourceKindRaindrop)
	require.NoError(t, err)
	source.Title = "Fall of Rome"
	source.URL = "https://example.com/rome"
	source.Status = domain.SourceStatusApproved
	source.Tags = []domain.Tag{{ID: uuid.New(), Name: "history"}}
	return source
}

func activeCard(t *testing.T, sourceID uuid.UUID) *domain.Card {
	t.Helper()
	card, err := domain.NewCard("When did the Roman Empire fall?", "476 CE", "Fifth century")
	require.NoError(t, err)
	card.SourceID = &sourceID
	return card
}

func TestExportAllWritesVaultFiles(t *testing.T) {
	t.Parallel()

	vault := t.TempDir()
	source := approvedSource(t)
	card := activeCard(t, source.ID)

	exporter := NewObsidianExporter(vault, "learnings",
		stubSourceStore{approved: []*domain.Source{source}},
		stubCardStore{active: []*domain.Card{card}},
		nil)

	result, err := exporter.ExportAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.SourcesExported)
	assert.Equal(t, 1, result.CardsExported)
	assert.Equal(t, filepath.Join(vault, "learnings"), result.ExportPath)

	sourceBytes, err := os.ReadFile(filepath.Join(vault, "learnings", "sources", sourceFileName(source)+".md"))
	require.NoError(t, err)
	sourceMD := string(sourceBytes)
	assert.Contains(t, sourceMD, "type: source")
	assert.Contains(t, sourceMD, "# Fall of Rome")
	assert.Contains(t, sourceMD, "> The Roman Empire fell in 476 CE.")
	assert.Contains(t, sourceMD, "tags: [history]")
	assert.Contains(t, sourceMD, "[[cards/"+cardFileName(card))

	cardBytes, err := os.ReadFile(filepath.Join(vault, "learnings", "cards", cardFileName(card)+".md"))
	require.NoError(t, err)
	cardMD := string(cardBytes)
	assert.Contains(t, cardMD, "## Question\n\nWhen did the Roman Empire fall?")
	assert.Contains(t, cardMD, "## Answer\n\n476 CE")
	assert.Contains(t, cardMD, "## Hint\n\nFifth century")

	indexBytes, err := os.ReadFile(filepath.Join(vault, "learnings", "index.md"))
	require.NoError(t, err)
	indexMD := string(indexBytes)
	assert.Contains(t, indexMD, "**1** sources | **1** cards")
	assert.Contains(t, indexMD, "- #history")
}

func TestExportAllRequiresExistingVault(t *testing.T) {
	t.Parallel()

	exporter := NewObsidianExporter("", "learnings", stubSourceStore{}, stubCardStore{}, nil)
	_, err := exporter.ExportAll(context.Background())
	assert.Error(t, err)

	missing := filepath.Join(t.TempDir(), "nope")
	exporter = NewObsidianExporter(missing, "learnings", stubSourceStore{}, stubCardStore{}, nil)
	_, err = exporter.ExportAll(context.Background())
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	t.Parallel()

	unconfigured := NewObsidianExporter("", "", stubSourceStore{}, stubCardStore{}, nil)
	status := unconfigured.Status()
	assert.False(t, status.Configured)

	vault := t.TempDir()
	ready := NewObsidianExporter(vault, "learnings", stubSourceStore{}, stubCardStore{}, nil)
	status = ready.Status()
	assert.True(t, status.Configured)
	assert.True(t, status.Exists)
	assert.Equal(t, "learnings", status.LearningsFolder)
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Fall of Rome", "fall-of-rome"},
		{"what/is: this?", "what-is-this"},
		{"--weird--input--", "weird-input"},
		{"", "untitled"},
		{"???", "untitled"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), "slugify(%q)", tt.in)
	}
}

func TestRenderCardFrontmatter(t *testing.T) {
	t.Parallel()

	card, err := domain.NewCard("q", "a", "")
	require.NoError(t, err)
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	card.NextReviewAt = &due
	card.IntervalDays = 6
	card.Repetitions = 2

	md := renderCard(card)
	assert.Contains(t, md, "ease_factor: 2.5")
	assert.Contains(t, md, "interval_days: 6")
	assert.Contains(t, md, "repetitions: 2")
	assert.Contains(t, md, "next_review: 2026-04-01T00:00:00Z")
}
