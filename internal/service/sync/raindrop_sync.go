// Package sync imports captures from external highlight services and turns
// them into sources awaiting review.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/platform/raindrop"
	"github.com/lociapp/loci-api/internal/service"
)

// HighlightLister is the slice of the Raindrop client the sync needs.
type HighlightLister interface {
	ListHighlights(ctx context.Context, since time.Time) ([]raindrop.Highlight, error)
	TestConnection(ctx context.Context) (string, error)
}

// SourceCreator is the slice of the source service the sync needs.
type SourceCreator interface {
	CreateSource(ctx context.Context, input service.CreateSourceInput) (*domain.Source, bool, error)
}

// Result summarizes one sync run.
type Result struct {
	Synced            int    `json:"synced"`
	SkippedDuplicates int    `json:"skipped_duplicates"`
	FlashcardReady    int    `json:"flashcard_ready"`
	TotalHighlights   int    `json:"total_highlights"`
	Message           string `json:"message"`
}

// RaindropSync imports Raindrop.io highlights as sources. Re-running a sync
// is safe: already-imported highlights are recognized by their external key
// and skipped.
type RaindropSync struct {
	client  HighlightLister
	sources SourceCreator
	logger  *slog.Logger
}

// NewRaindropSync creates a RaindropSync.
func NewRaindropSync(client HighlightLister, sources SourceCreator, logger *slog.Logger) *RaindropSync {
	if client == nil {
		panic("raindrop client cannot be nil")
	}
	if sources == nil {
		panic("source creator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RaindropSync{
		client:  client,
		sources: sources,
		logger:  logger.With(slog.String("component", "raindrop_sync")),
	}
}

// Sync fetches highlights (optionally only those created after since) and
// creates a pending_review source for each new one. Highlights whose color
// marks them flashcard-ready are counted so clients can prompt generation.
func (s *RaindropSync) Sync(ctx context.Context, since time.Time) (*Result, error) {
	highlights, err := s.client.ListHighlights(ctx, since)
	if err != nil {
		return nil, err
	}

	result := &Result{TotalHighlights: len(highlights)}

	for _, h := range highlights {
		source, created, err := s.sources.CreateSource(ctx, service.CreateSourceInput{
			Text:           h.Text,
			Kind:           domain.SourceKindRaindrop,
			URL:            h.Link,
			Title:          h.Title,
			ExternalKey:    h.ExternalKey(),
			HighlightColor: h.Color,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to import highlight %s: %w", h.ID, err)
		}

		if !created {
			result.SkippedDuplicates++
			continue
		}

		result.Synced++
		if h.FlashcardReady() {
			result.FlashcardReady++
		}

		s.logger.Debug("highlight imported",
			slog.String("source_id", source.ID.String()),
			slog.String("external_key", h.ExternalKey()))
	}

	result.Message = fmt.Sprintf("Synced %d new highlights, %d ready for card generation",
		result.Synced, result.FlashcardReady)

	s.logger.Info("raindrop sync finished",
		slog.Int("total", result.TotalHighlights),
		slog.Int("created", result.Synced),
		slog.Int("skipped", result.SkippedDuplicates),
		slog.Int("flashcard_ready", result.FlashcardReady))

	return result, nil
}

// Status probes the Raindrop connection. Returns the connected account's
// email when the token works.
func (s *RaindropSync) Status(ctx context.Context) (bool, string) {
	email, err := s.client.TestConnection(ctx)
	if err != nil {
		return false, err.Error()
	}

	return true, fmt.Sprintf("Connected as %s", email)
}
