// Package export renders sources and cards into Obsidian-style markdown for
// browsing, search and git-friendly backup. Export is read-only: it never
// mutates domain state.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/store"
)

const slugMaxLength = 50

// Result summarizes one export run.
type Result struct {
	SourcesExported int    `json:"sources_exported"`
	CardsExported   int    `json:"cards_exported"`
	ExportPath      string `json:"export_path"`
}

// Status reports whether export is configured and usable.
type Status struct {
	Configured      bool   `json:"configured"`
	Path            string `json:"path,omitempty"`
	Exists          bool   `json:"exists"`
	LearningsFolder string `json:"learnings_folder,omitempty"`
	Message         string `json:"message"`
}

// ObsidianExporter writes approved sources and active cards as markdown
// files under <vault>/<learnings folder>/{sources,cards} plus an index.
type ObsidianExporter struct {
	vaultPath       string
	learningsFolder string
	sources         store.SourceStore
	cards           store.CardStore
	logger          *slog.Logger
}

// NewObsidianExporter creates an exporter. An empty vault path is allowed;
// ExportAll will refuse to run until one is configured.
func NewObsidianExporter(
	vaultPath, learningsFolder string,
	sources store.SourceStore,
	cards store.CardStore,
	logger *slog.Logger,
) *ObsidianExporter {
	if learningsFolder == "" {
		learningsFolder = "learnings"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ObsidianExporter{
		vaultPath:       vaultPath,
		learningsFolder: learningsFolder,
		sources:         sources,
		cards:           cards,
		logger:          logger.With(slog.String("component", "obsidian_exporter")),
	}
}

// Configured reports whether a vault path is set.
func (e *ObsidianExporter) Configured() bool {
	return e.vaultPath != ""
}

func (e *ObsidianExporter) basePath() string {
	return filepath.Join(e.vaultPath, e.learningsFolder)
}

// Status describes the export configuration without touching the database.
func (e *ObsidianExporter) Status() Status {
	if !e.Configured() {
		return Status{Message: "export vault path not configured"}
	}

	if _, err := os.Stat(e.vaultPath); err != nil {
		return Status{
			Configured: true,
			Path:       e.vaultPath,
			Message:    fmt.Sprintf("vault path does not exist: %s", e.vaultPath),
		}
	}

	return Status{
		Configured:      true,
		Path:            e.vaultPath,
		Exists:          true,
		LearningsFolder: e.learningsFolder,
		Message:         "ready to export",
	}
}

// ExportAll writes every approved source and every active card to the vault
// and regenerates the index file.
func (e *ObsidianExporter) ExportAll(ctx context.Context) (*Result, error) {
	if !e.Configured() {
		return nil, fmt.Errorf("export vault path not configured")
	}
	if _, err := os.Stat(e.vaultPath); err != nil {
		return nil, fmt.Errorf("vault not found at %s: %w", e.vaultPath, err)
	}

	if err := e.ensureDirectories(); err != nil {
		return nil, err
	}

	sources, err := e.sources.ListApproved(ctx)
	if err != nil {
		return nil, err
	}

	activeStatus := domain.CardStatusActive
	cards, _, err := e.cards.List(ctx, store.CardFilter{Status: &activeStatus})
	if err != nil {
		return nil, err
	}

	cardsBySource := make(map[string][]*domain.Card)
	for _, card := range cards {
		if card.SourceID != nil {
			key := card.SourceID.String()
			cardsBySource[key] = append(cardsBySource[key], card)
		}
	}

	for _, source := range sources {
		if err := e.writeSource(source, cardsBySource[source.ID.String()]); err != nil {
			return nil, err
		}
	}
	for _, card := range cards {
		if err := e.writeCard(card); err != nil {
			return nil, err
		}
	}
	if err := e.writeIndex(sources, cards); err != nil {
		return nil, err
	}

	e.logger.Info("export finished",
		slog.Int("sources", len(sources)),
		slog.Int("cards", len(cards)),
		slog.String("path", e.basePath()))

	return &Result{
		SourcesExported: len(sources),
		CardsExported:   len(cards),
		ExportPath:      e.basePath(),
	}, nil
}

func (e *ObsidianExporter) ensureDirectories() error {
	for _, dir := range []string{"sources", "cards"} {
		if err := os.MkdirAll(filepath.Join(e.basePath(), dir), 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	return nil
}

func (e *ObsidianExporter) writeSource(source *domain.Source, cards []*domain.Card) error {
	path := filepath.Join(e.basePath(), "sources", sourceFileName(source)+".md")
	return writeFile(path, renderSource(source, cards))
}

func (e *ObsidianExporter) writeCard(card *domain.Card) error {
	path := filepath.Join(e.basePath(), "cards", cardFileName(card)+".md")
	return writeFile(path, renderCard(card))
}

func (e *ObsidianExporter) writeIndex(sources []*domain.Source, cards []*domain.Card) error {
	path := filepath.Join(e.basePath(), "index.md")
	return writeFile(path, renderIndex(sources, cards, time.Now().UTC()))
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func sourceFileName(source *domain.Source) string {
	title := source.Title
	if title == "" {
		title = truncate(source.Text, 30)
	}
	return source.ID.String() + "-" + slugify(title)
}

func cardFileName(card *domain.Card) string {
	name := card.ID.String() + "-" + slugify(truncate(card.Front, 30))
	if card.SourceID != nil {
		name = card.SourceID.String() + "-" + name
	}
	return name
}

// slugify turns text into a safe markdown filename fragment.
func slugify(text string) string {
	slug := strings.ToLower(text)
	slug = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '#', '[', ']', ' ':
			return '-'
		default:
			return r
		}
	}, slug)
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")
	if len(slug) > slugMaxLength {
		slug = strings.Trim(slug[:slugMaxLength], "-")
	}
	if slug == "" {
		return "untitled"
	}
	return slug
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}

func renderSource(source *domain.Source, cards []*domain.Card) string {
	var b strings.Builder

	b.WriteString("---\n")
	fmt.Fprintf(&b, "id: %s\n", source.ID)
	b.WriteString("type: source\n")
	fmt.Fprintf(&b, "source_kind: %s\n", source.Kind)
	fmt.Fprintf(&b, "status: %s\n", source.Status)
	fmt.Fprintf(&b, "created: %s\n", source.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "updated: %s\n", source.UpdatedAt.Format(time.RFC3339))
	if len(source.Tags) > 0 {
		fmt.Fprintf(&b, "tags: [%s]\n", joinTagNames(source.Tags))
	}
	if source.URL != "" {
		fmt.Fprintf(&b, "url: %q\n", source.URL)
	}
	b.WriteString("---\n\n")

	title := source.Title
	if title == "" {
		title = "Source"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if source.URL != "" {
		fmt.Fprintf(&b, "[Original Source](%s)\n\n", source.URL)
	}

	b.WriteString("## Highlight\n\n")
	fmt.Fprintf(&b, "> %s\n", source.Text)

	if len(cards) > 0 {
		b.WriteString("\n## Cards\n\n")
		for _, card := range cards {
			fmt.Fprintf(&b, "- [[cards/%s|%s]]\n", cardFileName(card), truncate(card.Front, 50))
		}
	}

	return b.String()
}

func renderCard(card *domain.Card) string {
	var b strings.Builder

	b.WriteString("---\n")
	fmt.Fprintf(&b, "id: %s\n", card.ID)
	b.WriteString("type: card\n")
	fmt.Fprintf(&b, "status: %s\n", card.Status)
	fmt.Fprintf(&b, "ease_factor: %g\n", card.EaseFactor)
	fmt.Fprintf(&b, "interval_days: %d\n", card.IntervalDays)
	fmt.Fprintf(&b, "repetitions: %d\n", card.Repetitions)
	fmt.Fprintf(&b, "created: %s\n", card.CreatedAt.Format(time.RFC3339))
	if card.NextReviewAt != nil {
		fmt.Fprintf(&b, "next_review: %s\n", card.NextReviewAt.Format(time.RFC3339))
	}
	if len(card.Tags) > 0 {
		fmt.Fprintf(&b, "tags: [%s]\n", joinTagNames(card.Tags))
	}
	if card.SourceID != nil {
		fmt.Fprintf(&b, "source_id: %s\n", card.SourceID)
	}
	b.WriteString("---\n\n")

	b.WriteString("## Question\n\n")
	b.WriteString(card.Front)
	b.WriteString("\n\n## Answer\n\n")
	b.WriteString(card.Back)
	b.WriteString("\n")

	if card.Hint != "" {
		b.WriteString("\n## Hint\n\n")
		b.WriteString(card.Hint)
		b.WriteString("\n")
	}

	return b.String()
}

func renderIndex(sources []*domain.Source, cards []*domain.Card, now time.Time) string {
	var b strings.Builder

	b.WriteString("---\n")
	fmt.Fprintf(&b, "updated: %s\n", now.Format(time.RFC3339))
	b.WriteString("---\n\n")
	b.WriteString("# Learnings Index\n\n")
	fmt.Fprintf(&b, "**%d** sources | **%d** cards\n\n", len(sources), len(cards))

	b.WriteString("## Recent Sources\n\n")
	recent := append([]*domain.Source(nil), sources...)
	sort.Slice(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > 20 {
		recent = recent[:20]
	}
	for _, source := range recent {
		title := source.Title
		if title == "" {
			title = truncate(source.Text, 50)
		}
		fmt.Fprintf(&b, "- [[sources/%s|%s]]\n", sourceFileName(source), title)
	}

	tagSet := make(map[string]bool)
	for _, source := range sources {
		for _, tag := range source.Tags {
			tagSet[tag.Name] = true
		}
	}
	for _, card := range cards {
		for _, tag := range card.Tags {
			tagSet[tag.Name] = true
		}
	}
	if len(tagSet) > 0 {
		b.WriteString("\n## Tags\n\n")
		names := make([]string, 0, len(tagSet))
		for name := range tagSet {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "- #%s\n", name)
		}
	}

	return b.String()
}

func joinTagNames(tags []domain.Tag) string {
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return strings.Join(names, ", ")
}
