package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/generation"
	"github.com/lociapp/loci-api/internal/store"
	"github.com/stretchr/testify/require"
)

// The services only use *sql.DB to open and close transactions; the fake
// stores below hold the data. This stub driver gives RunInTransaction a real
// handle whose transactions are no-ops.

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

var registerStubOnce sync.Once

func newStubDB(t *testing.T) *sql.DB {
	t.Helper()
	registerStubOnce.Do(func() { sql.Register("servicestub", stubDriver{}) })

	db, err := sql.Open("servicestub", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeSourceStore is an in-memory store.SourceStore.
type fakeSourceStore struct {
	mu      sync.Mutex
	sources map[uuid.UUID]*domain.Source
}

var _ store.SourceStore = (*fakeSourceStore)(nil)

func newFakeSourceStore() *fakeSourceStore {
	return &fakeSourceStore{sources: make(map[uuid.UUID]*domain.Source)}
}

func (f *fakeSourceStore) Create(_ context.Context, source *domain.Source) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if source.ExternalKey != "" {
		for _, existing := range f.sources {
			if existing.Kind == source.Kind && existing.ExternalKey == source.ExternalKey {
				return store.ErrDuplicateExternalKey
			}
		}
	}

	copied := *source
	f.sources[source.ID] = &copied
	return nil
}

func (f *fakeSourceStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	source, ok := f.sources[id]
	if !ok {
		return nil, store.ErrSourceNotFound
	}
	copied := *source
	return &copied, nil
}

func (f *fakeSourceStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Source, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeSourceStore) GetByExternalKey(_ context.Context, kind domain.SourceKind, key string) (*domain.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, source := range f.sources {
		if source.Kind == kind && source.ExternalKey == key {
			copied := *source
			return &copied, nil
		}
	}
	return nil, store.ErrSourceNotFound
}

func (f *fakeSourceStore) List(_ context.Context, filter store.SourceFilter) ([]*domain.Source, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []*domain.Source
	for _, source := range f.sources {
		if filter.Status != nil && source.Status != *filter.Status {
			continue
		}
		if filter.Kind != nil && source.Kind != *filter.Kind {
			continue
		}
		if filter.Tag != "" && !hasTag(source.Tags, filter.Tag) {
			continue
		}
		copied := *source
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeSourceStore) ListApproved(ctx context.Context) ([]*domain.Source, error) {
	status := domain.SourceStatusApproved
	sources, _, err := f.List(ctx, store.SourceFilter{Status: &status})
	return sources, err
}

func (f *fakeSourceStore) Update(_ context.Context, source *domain.Source) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.sources[source.ID]; !ok {
		return store.ErrSourceNotFound
	}
	copied := *source
	f.sources[source.ID] = &copied
	return nil
}

func (f *fakeSourceStore) ReplaceTags(_ context.Context, sourceID uuid.UUID, tags []domain.Tag) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	source, ok := f.sources[sourceID]
	if !ok {
		return store.ErrSourceNotFound
	}
	source.Tags = append([]domain.Tag(nil), tags...)
	return nil
}

func (f *fakeSourceStore) WithTx(*sql.Tx) store.SourceStore { return f }

// fakeCardStore is an in-memory store.CardStore.
type fakeCardStore struct {
	mu    sync.Mutex
	cards map[uuid.UUID]*domain.Card
}

var _ store.CardStore = (*fakeCardStore)(nil)

func newFakeCardStore() *fakeCardStore {
	return &fakeCardStore{cards: make(map[uuid.UUID]*domain.Card)}
}

func (f *fakeCardStore) Create(_ context.Context, card *domain.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := *card
	f.cards[card.ID] = &copied
	return nil
}

func (f *fakeCardStore) CreateBatch(ctx context.Context, cards []*domain.Card) error {
	for _, card := range cards {
		if err := f.Create(ctx, card); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeCardStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	card, ok := f.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	copied := *card
	return &copied, nil
}

func (f *fakeCardStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeCardStore) List(_ context.Context, filter store.CardFilter) ([]*domain.Card, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []*domain.Card
	for _, card := range f.cards {
		if filter.Status != nil && card.Status != *filter.Status {
			continue
		}
		if filter.SourceID != nil && (card.SourceID == nil || *card.SourceID != *filter.SourceID) {
			continue
		}
		if filter.Tag != "" && !hasTag(card.Tags, filter.Tag) {
			continue
		}
		copied := *card
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter.Offset > 0 && filter.Offset < len(matched) {
		matched = matched[filter.Offset:]
	} else if filter.Offset >= len(matched) && filter.Offset > 0 {
		matched = nil
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeCardStore) ListBySource(_ context.Context, sourceID uuid.UUID, status *domain.CardStatus) ([]*domain.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []*domain.Card
	for _, card := range f.cards {
		if card.SourceID == nil || *card.SourceID != sourceID {
			continue
		}
		if status != nil && card.Status != *status {
			continue
		}
		copied := *card
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

func (f *fakeCardStore) ListDue(_ context.Context, now time.Time, tag string, limit int) ([]*domain.Card, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var due []*domain.Card
	for _, card := range f.cards {
		if card.Status != domain.CardStatusActive {
			continue
		}
		if card.NextReviewAt != nil && card.NextReviewAt.After(now) {
			continue
		}
		if tag != "" && !hasTag(card.Tags, tag) {
			continue
		}
		copied := *card
		due = append(due, &copied)
	}
	sort.Slice(due, func(i, j int) bool {
		a, b := due[i], due[j]
		switch {
		case a.NextReviewAt == nil && b.NextReviewAt != nil:
			return true
		case a.NextReviewAt != nil && b.NextReviewAt == nil:
			return false
		case a.NextReviewAt != nil && !a.NextReviewAt.Equal(*b.NextReviewAt):
			return a.NextReviewAt.Before(*b.NextReviewAt)
		default:
			return a.ID.String() < b.ID.String()
		}
	})

	total := len(due)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, total, nil
}

func (f *fakeCardStore) Update(_ context.Context, card *domain.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.cards[card.ID]; !ok {
		return store.ErrCardNotFound
	}
	copied := *card
	f.cards[card.ID] = &copied
	return nil
}

func (f *fakeCardStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.cards[id]; !ok {
		return store.ErrCardNotFound
	}
	delete(f.cards, id)
	return nil
}

func (f *fakeCardStore) DeleteDraftsBySource(_ context.Context, sourceID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var deleted int64
	for id, card := range f.cards {
		if card.SourceID != nil && *card.SourceID == sourceID && card.Status == domain.CardStatusDraft {
			delete(f.cards, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeCardStore) ReplaceTags(_ context.Context, cardID uuid.UUID, tags []domain.Tag) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	card, ok := f.cards[cardID]
	if !ok {
		return store.ErrCardNotFound
	}
	card.Tags = append([]domain.Tag(nil), tags...)
	return nil
}

func (f *fakeCardStore) WithTx(*sql.Tx) store.CardStore { return f }

// fakeTagStore is an in-memory store.TagStore.
type fakeTagStore struct {
	mu   sync.Mutex
	tags map[string]domain.Tag // keyed by normalized name
}

var _ store.TagStore = (*fakeTagStore)(nil)

func newFakeTagStore() *fakeTagStore {
	return &fakeTagStore{tags: make(map[string]domain.Tag)}
}

func (f *fakeTagStore) Create(_ context.Context, tag *domain.Tag) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tags[tag.Name]; ok {
		return store.ErrDuplicateTagName
	}
	f.tags[tag.Name] = *tag
	return nil
}

func (f *fakeTagStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, tag := range f.tags {
		if tag.ID == id {
			copied := tag
			return &copied, nil
		}
	}
	return nil, store.ErrTagNotFound
}

func (f *fakeTagStore) GetOrCreate(_ context.Context, names []string) ([]domain.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []domain.Tag
	seen := make(map[string]bool)
	for _, raw := range names {
		name := domain.NormalizeTagName(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		tag, ok := f.tags[name]
		if !ok {
			created, err := domain.NewTag(name, "")
			if err != nil {
				return nil, err
			}
			tag = *created
			f.tags[name] = tag
		}
		result = append(result, tag)
	}
	return result, nil
}

func (f *fakeTagStore) List(_ context.Context) ([]domain.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var tags []domain.Tag
	for _, tag := range f.tags {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (f *fakeTagStore) Usage(ctx context.Context, id uuid.UUID) (*store.TagUsage, error) {
	if _, err := f.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return &store.TagUsage{}, nil
}

func (f *fakeTagStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, tag := range f.tags {
		if tag.ID == id {
			delete(f.tags, name)
			return nil
		}
	}
	return store.ErrTagNotFound
}

func (f *fakeTagStore) WithTx(*sql.Tx) store.TagStore { return f }

// fakeReviewLogStore is an in-memory store.ReviewLogStore.
type fakeReviewLogStore struct {
	mu   sync.Mutex
	logs []*domain.ReviewLog
}

var _ store.ReviewLogStore = (*fakeReviewLogStore)(nil)

func newFakeReviewLogStore() *fakeReviewLogStore {
	return &fakeReviewLogStore{}
}

func (f *fakeReviewLogStore) Create(_ context.Context, log *domain.ReviewLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := *log
	f.logs = append(f.logs, &copied)
	return nil
}

func (f *fakeReviewLogStore) ListByCard(_ context.Context, cardID uuid.UUID) ([]*domain.ReviewLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []*domain.ReviewLog
	for _, log := range f.logs {
		if log.CardID == cardID {
			copied := *log
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ReviewedAt.After(matched[j].ReviewedAt)
	})
	return matched, nil
}

func (f *fakeReviewLogStore) WithTx(*sql.Tx) store.ReviewLogStore { return f }

// fakeGenerator is a scripted generation.Generator.
type fakeGenerator struct {
	drafts []generation.CardDraft
	err    error
	calls  int
}

var _ generation.Generator = (*fakeGenerator)(nil)

func (f *fakeGenerator) GenerateCards(context.Context, string) ([]generation.CardDraft, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.drafts, nil
}

func hasTag(tags []domain.Tag, name string) bool {
	normalized := domain.NormalizeTagName(name)
	for _, tag := range tags {
		if tag.Name == normalized {
			return true
		}
	}
	return false
}
