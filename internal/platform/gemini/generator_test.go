package gemini

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/lociapp/loci-api/internal/config"
	"github.com/lociapp/loci-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T, cfg config.LLMConfig) *Generator {
	t.Helper()

	tmpl, err := loadPromptTemplate("")
	require.NoError(t, err)

	return &Generator{
		logger:         slog.Default(),
		config:         cfg,
		promptTemplate: tmpl,
		model:          cfg.ModelName,
	}
}

func TestParseCardJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantCards int
		wantErr   error
	}{
		{
			name:      "plain object",
			input:     `{"cards": [{"front": "Q1", "back": "A1"}, {"front": "Q2", "back": "A2"}]}`,
			wantCards: 2,
		},
		{
			name:      "bare array",
			input:     `[{"front": "Q", "back": "A"}]`,
			wantCards: 1,
		},
		{
			name:      "markdown fenced",
			input:     "```json\n{\"cards\": [{\"front\": \"Q\", \"back\": \"A\"}]}\n```",
			wantCards: 1,
		},
		{
			name:    "empty text",
			input:   "   ",
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name:    "malformed JSON",
			input:   `{"cards": [{`,
			wantErr: generation.ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			response, err := parseCardJSON(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}

			require.NoError(t, err)
			assert.Len(t, response.Cards, tt.wantCards)
		})
	}
}

func TestParseResponse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("valid cards become drafts", func(t *testing.T) {
		t.Parallel()
		g := newTestGenerator(t, config.LLMConfig{ModelName: "gemini-2.0-flash"})

		drafts, err := g.parseResponse(ctx, &responseSchema{Cards: []cardSchema{
			{Front: "Q1", Back: "A1", Hint: "h", Tags: []string{"go"}},
			{Front: "Q2", Back: "A2"},
		}})
		require.NoError(t, err)
		require.Len(t, drafts, 2)
		assert.Equal(t, "Q1", drafts[0].Front)
		assert.Equal(t, "h", drafts[0].Hint)
		assert.Equal(t, []string{"go"}, drafts[0].Tags)
	})

	t.Run("empty response rejected", func(t *testing.T) {
		t.Parallel()
		g := newTestGenerator(t, config.LLMConfig{ModelName: "gemini-2.0-flash"})

		_, err := g.parseResponse(ctx, &responseSchema{})
		assert.True(t, errors.Is(err, generation.ErrInvalidResponse))
	})

	t.Run("missing front rejected", func(t *testing.T) {
		t.Parallel()
		g := newTestGenerator(t, config.LLMConfig{ModelName: "gemini-2.0-flash"})

		_, err := g.parseResponse(ctx, &responseSchema{Cards: []cardSchema{{Back: "A"}}})
		assert.True(t, errors.Is(err, generation.ErrInvalidResponse))
	})

	t.Run("oversized batch truncated to max", func(t *testing.T) {
		t.Parallel()
		g := newTestGenerator(t, config.LLMConfig{ModelName: "gemini-2.0-flash", MaxCardsPerSource: 2})

		drafts, err := g.parseResponse(ctx, &responseSchema{Cards: []cardSchema{
			{Front: "Q1", Back: "A1"},
			{Front: "Q2", Back: "A2"},
			{Front: "Q3", Back: "A3"},
		}})
		require.NoError(t, err)
		assert.Len(t, drafts, 2)
	})
}

func TestCreatePrompt(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, config.LLMConfig{ModelName: "gemini-2.0-flash", MaxCardsPerSource: 4})

	prompt, err := g.createPrompt("Paris is the capital of France.")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Paris is the capital of France.")
	assert.Contains(t, prompt, "at most 4 cards")

	_, err = g.createPrompt("")
	assert.ErrorIs(t, err, ErrEmptySourceText)
}

func TestNewGeneratorValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := NewGenerator(ctx, nil, config.LLMConfig{GeminiAPIKey: "k", ModelName: "m"})
	assert.Error(t, err)

	_, err = NewGenerator(ctx, slog.Default(), config.LLMConfig{ModelName: "m"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewGenerator(ctx, slog.Default(), config.LLMConfig{GeminiAPIKey: "k"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}
