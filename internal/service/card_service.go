package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/store"
)

// CardService owns card CRUD and manual status transitions. Review
// submissions live in ReviewService.
type CardService struct {
	db     *sql.DB
	cards  store.CardStore
	tags   store.TagStore
	logger *slog.Logger
}

// NewCardService creates a CardService.
func NewCardService(db *sql.DB, cards store.CardStore, tags store.TagStore, logger *slog.Logger) *CardService {
	if db == nil {
		panic("db cannot be nil")
	}
	if cards == nil || tags == nil {
		panic("stores cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CardService{
		db:     db,
		cards:  cards,
		tags:   tags,
		logger: logger.With(slog.String("component", "card_service")),
	}
}

// CardContentInput carries card content fields for create and update.
type CardContentInput struct {
	Front string
	Back  string
	Hint  string
	Tags  []string
}

// CreateCard creates a manually authored card. It enters the rotation
// immediately: active status, default scheduling state, due now.
func (s *CardService) CreateCard(ctx context.Context, input CardContentInput) (*domain.Card, error) {
	card, err := domain.NewCard(input.Front, input.Back, input.Hint)
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		tags, err := s.tags.WithTx(tx).GetOrCreate(ctx, input.Tags)
		if err != nil {
			return err
		}
		card.Tags = tags

		return s.cards.WithTx(tx).Create(ctx, card)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("card created", slog.String("card_id", card.ID.String()))

	return card, nil
}

// GetCard returns one card with its tags.
func (s *CardService) GetCard(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return s.cards.GetByID(ctx, id)
}

// ListCards returns cards matching the filter plus the total count over the
// filtered set.
func (s *CardService) ListCards(ctx context.Context, filter store.CardFilter) ([]*domain.Card, int, error) {
	return s.cards.List(ctx, filter)
}

// UpdateCardInput carries the editable card fields. Nil pointers leave the
// field untouched.
type UpdateCardInput struct {
	Front *string
	Back  *string
	Hint  *string
	Tags  *[]string
}

// UpdateCard edits a card's content and tag set. Content edits never touch
// the scheduling state, whatever the card's status.
func (s *CardService) UpdateCard(ctx context.Context, id uuid.UUID, input UpdateCardInput) (*domain.Card, error) {
	var updated *domain.Card

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)

		card, err := cards.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		front, back, hint := card.Front, card.Back, card.Hint
		if input.Front != nil {
			front = *input.Front
		}
		if input.Back != nil {
			back = *input.Back
		}
		if input.Hint != nil {
			hint = *input.Hint
		}
		if err := card.UpdateContent(front, back, hint); err != nil {
			return err
		}

		if err := cards.Update(ctx, card); err != nil {
			return err
		}

		if input.Tags != nil {
			tags, err := s.tags.WithTx(tx).GetOrCreate(ctx, *input.Tags)
			if err != nil {
				return err
			}
			if err := cards.ReplaceTags(ctx, id, tags); err != nil {
				return err
			}
			card.Tags = tags
		}

		updated = card
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteCard removes a draft card. Cards that ever entered the rotation are
// not deletable; suspend them instead. Returns ErrCardNotDraft otherwise.
func (s *CardService) DeleteCard(ctx context.Context, id uuid.UUID) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)

		card, err := cards.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if card.Status != domain.CardStatusDraft {
			return ErrCardNotDraft
		}

		return cards.Delete(ctx, id)
	})
}

// SetCardStatus moves a card along the status transition table. Disallowed
// edges return domain.ErrInvalidTransition. Activating a draft resets its
// schedule so it is due immediately.
func (s *CardService) SetCardStatus(ctx context.Context, id uuid.UUID, target domain.CardStatus) (*domain.Card, error) {
	var updated *domain.Card

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)

		card, err := cards.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if card.Status == domain.CardStatusDraft && target == domain.CardStatusActive {
			if err := card.Activate(time.Now().UTC()); err != nil {
				return err
			}
		} else if err := card.TransitionTo(target); err != nil {
			return err
		}

		if err := cards.Update(ctx, card); err != nil {
			return err
		}

		updated = card
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("card status changed",
		slog.String("card_id", id.String()),
		slog.String("status", string(updated.Status)))

	return updated, nil
}
