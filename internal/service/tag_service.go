package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/store"
)

// TagService exposes tag management. Attachment happens implicitly through
// source and card operations; this service covers the explicit endpoints.
type TagService struct {
	tags   store.TagStore
	logger *slog.Logger
}

// NewTagService creates a TagService.
func NewTagService(tags store.TagStore, logger *slog.Logger) *TagService {
	if tags == nil {
		panic("tag store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TagService{
		tags:   tags,
		logger: logger.With(slog.String("component", "tag_service")),
	}
}

// ListTags returns all tags ordered by name.
func (s *TagService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	return s.tags.List(ctx)
}

// CreateTag creates a tag with a normalized name. A taken name returns
// store.ErrDuplicateTagName.
func (s *TagService) CreateTag(ctx context.Context, name, color string) (*domain.Tag, error) {
	tag, err := domain.NewTag(name, color)
	if err != nil {
		return nil, err
	}

	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, err
	}

	s.logger.Info("tag created", slog.String("name", tag.Name))

	return tag, nil
}

// GetTag returns a single tag. Returns store.ErrTagNotFound if it does not
// exist.
func (s *TagService) GetTag(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	return s.tags.GetByID(ctx, id)
}

// TagStats returns a tag along with its usage counts.
func (s *TagService) TagStats(ctx context.Context, id uuid.UUID) (*domain.Tag, *store.TagUsage, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	usage, err := s.tags.Usage(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return tag, usage, nil
}

// DeleteTag removes a tag and detaches it everywhere.
func (s *TagService) DeleteTag(ctx context.Context, id uuid.UUID) error {
	return s.tags.Delete(ctx, id)
}
