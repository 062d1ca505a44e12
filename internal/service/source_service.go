package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/generation"
	"github.com/lociapp/loci-api/internal/store"
)

// SourceService owns the source lifecycle: capture, card generation,
// approval and archival. All multi-entity mutations run in one transaction
// with the source row locked, so concurrent transitions on the same source
// serialize instead of interleaving.
type SourceService struct {
	db        *sql.DB
	sources   store.SourceStore
	cards     store.CardStore
	tags      store.TagStore
	generator generation.Generator
	logger    *slog.Logger
}

// NewSourceService creates a SourceService. generator may be nil, in which
// case GenerateCards returns ErrGeneratorUnavailable.
func NewSourceService(
	db *sql.DB,
	sources store.SourceStore,
	cards store.CardStore,
	tags store.TagStore,
	generator generation.Generator,
	logger *slog.Logger,
) *SourceService {
	if db == nil {
		panic("db cannot be nil")
	}
	if sources == nil || cards == nil || tags == nil {
		panic("stores cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SourceService{
		db:        db,
		sources:   sources,
		cards:     cards,
		tags:      tags,
		generator: generator,
		logger:    logger.With(slog.String("component", "source_service")),
	}
}

// CreateSourceInput carries the fields for capturing a new source.
type CreateSourceInput struct {
	Text           string
	Kind           domain.SourceKind
	URL            string
	Title          string
	ExternalKey    string
	HighlightColor string
	Tags           []string

	// FailOnDuplicate makes a repeated external key an error instead of a
	// no-op returning the previously imported source.
	FailOnDuplicate bool
}

// CreateSource captures a source in pending_review. When the input carries an
// external key that was already imported for the same kind, the default
// behavior is idempotent: the existing source is returned and created is
// false. Strict mode surfaces store.ErrDuplicateExternalKey instead.
func (s *SourceService) CreateSource(ctx context.Context, input CreateSourceInput) (*domain.Source, bool, error) {
	source, err := domain.NewSource(input.Text, input.Kind)
	if err != nil {
		return nil, false, err
	}
	source.URL = input.URL
	source.Title = input.Title
	source.ExternalKey = input.ExternalKey
	source.HighlightColor = input.HighlightColor

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		tags, err := s.tags.WithTx(tx).GetOrCreate(ctx, input.Tags)
		if err != nil {
			return err
		}
		source.Tags = tags

		return s.sources.WithTx(tx).Create(ctx, source)
	})
	if err == nil {
		s.logger.Info("source created",
			slog.String("source_id", source.ID.String()),
			slog.String("kind", string(source.Kind)))
		return source, true, nil
	}

	if store.IsDuplicateError(err) && !input.FailOnDuplicate {
		existing, lookupErr := s.sources.GetByExternalKey(ctx, input.Kind, input.ExternalKey)
		if lookupErr != nil {
			return nil, false, NewServiceError("source", "create", "duplicate lookup failed", lookupErr)
		}
		return existing, false, nil
	}

	return nil, false, err
}

// GetSource returns one source with its tags and card count.
func (s *SourceService) GetSource(ctx context.Context, id uuid.UUID) (*domain.Source, error) {
	return s.sources.GetByID(ctx, id)
}

// ListSources returns sources matching the filter plus the total count over
// the filtered set.
func (s *SourceService) ListSources(ctx context.Context, filter store.SourceFilter) ([]*domain.Source, int, error) {
	return s.sources.List(ctx, filter)
}

// UpdateSourceInput carries the editable source fields. Nil pointers leave
// the field untouched.
type UpdateSourceInput struct {
	Text  *string
	URL   *string
	Title *string
	Tags  *[]string
}

// UpdateSource edits a source's content fields and tag set. Status is never
// changed here; transitions have their own operations.
func (s *SourceService) UpdateSource(ctx context.Context, id uuid.UUID, input UpdateSourceInput) (*domain.Source, error) {
	var updated *domain.Source

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		sources := s.sources.WithTx(tx)

		source, err := sources.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if input.Text != nil {
			source.Text = *input.Text
		}
		if input.URL != nil {
			source.URL = *input.URL
		}
		if input.Title != nil {
			source.Title = *input.Title
		}
		source.UpdatedAt = time.Now().UTC()

		if err := sources.Update(ctx, source); err != nil {
			return err
		}

		if input.Tags != nil {
			tags, err := s.tags.WithTx(tx).GetOrCreate(ctx, *input.Tags)
			if err != nil {
				return err
			}
			if err := sources.ReplaceTags(ctx, id, tags); err != nil {
				return err
			}
			source.Tags = tags
		}

		updated = source
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// GenerateCards asks the drafting collaborator for card proposals and
// persists them as draft cards linked to the source. Valid from
// pending_review and from cards_generated, where the new batch supersedes
// every prior unapproved draft. Collaborator failures surface unchanged and
// leave the source untouched.
func (s *SourceService) GenerateCards(ctx context.Context, sourceID uuid.UUID) ([]*domain.Card, error) {
	if s.generator == nil {
		return nil, ErrGeneratorUnavailable
	}

	source, err := s.sources.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if err := canGenerate(source.Status); err != nil {
		return nil, err
	}

	// The LLM call happens outside the transaction: it is slow, retried
	// internally and must not hold a row lock.
	drafts, err := s.generator.GenerateCards(ctx, source.Text)
	if err != nil {
		return nil, err
	}

	var cards []*domain.Card

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		sources := s.sources.WithTx(tx)
		cardStore := s.cards.WithTx(tx)
		tagStore := s.tags.WithTx(tx)

		locked, err := sources.GetForUpdate(ctx, sourceID)
		if err != nil {
			return err
		}
		if err := canGenerate(locked.Status); err != nil {
			return err
		}

		superseded, err := cardStore.DeleteDraftsBySource(ctx, sourceID)
		if err != nil {
			return err
		}

		cards = cards[:0]
		for _, draft := range drafts {
			card, err := domain.NewDraftCard(sourceID, draft.Front, draft.Back, draft.Hint)
			if err != nil {
				return NewServiceError("source", "generate_cards", "invalid draft from generator", err)
			}
			if len(draft.Tags) > 0 {
				tags, err := tagStore.GetOrCreate(ctx, draft.Tags)
				if err != nil {
					return err
				}
				card.Tags = tags
			}
			cards = append(cards, card)
		}

		if err := cardStore.CreateBatch(ctx, cards); err != nil {
			return err
		}

		if locked.Status == domain.SourceStatusPendingReview {
			if err := locked.TransitionTo(domain.SourceStatusCardsGenerated); err != nil {
				return err
			}
		} else {
			locked.UpdatedAt = time.Now().UTC()
		}
		if err := sources.Update(ctx, locked); err != nil {
			return err
		}

		s.logger.Info("cards generated",
			slog.String("source_id", sourceID.String()),
			slog.Int("drafts", len(cards)),
			slog.Int64("superseded", superseded))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cards, nil
}

// Approve moves a source from cards_generated to approved and activates
// every linked draft card with a fresh schedule, all in one transaction. A
// source whose drafts were all deleted still advances; there is just nothing
// to activate.
func (s *SourceService) Approve(ctx context.Context, sourceID uuid.UUID) (*domain.Source, error) {
	var approved *domain.Source

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		sources := s.sources.WithTx(tx)
		cardStore := s.cards.WithTx(tx)

		source, err := sources.GetForUpdate(ctx, sourceID)
		if err != nil {
			return err
		}
		if err := source.TransitionTo(domain.SourceStatusApproved); err != nil {
			return err
		}

		draftStatus := domain.CardStatusDraft
		drafts, err := cardStore.ListBySource(ctx, sourceID, &draftStatus)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, card := range drafts {
			if err := card.Activate(now); err != nil {
				return err
			}
			if err := cardStore.Update(ctx, card); err != nil {
				return err
			}
		}

		if err := sources.Update(ctx, source); err != nil {
			return err
		}

		s.logger.Info("source approved",
			slog.String("source_id", sourceID.String()),
			slog.Int("activated", len(drafts)))

		approved = source
		return nil
	})
	if err != nil {
		return nil, err
	}

	return approved, nil
}

// Archive moves a source to the terminal archived status. Valid from any
// non-archived status. Linked cards are untouched and keep their schedules.
func (s *SourceService) Archive(ctx context.Context, sourceID uuid.UUID) (*domain.Source, error) {
	var archived *domain.Source

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		sources := s.sources.WithTx(tx)

		source, err := sources.GetForUpdate(ctx, sourceID)
		if err != nil {
			return err
		}
		if err := source.TransitionTo(domain.SourceStatusArchived); err != nil {
			return err
		}
		if err := sources.Update(ctx, source); err != nil {
			return err
		}

		archived = source
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("source archived", slog.String("source_id", sourceID.String()))

	return archived, nil
}

// canGenerate gates card generation on the source status. Approved and
// archived sources are frozen.
func canGenerate(status domain.SourceStatus) error {
	switch status {
	case domain.SourceStatusPendingReview, domain.SourceStatusCardsGenerated:
		return nil
	default:
		return fmt.Errorf("%w: generate cards from %s", domain.ErrInvalidTransition, status)
	}
}
