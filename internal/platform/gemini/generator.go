package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"text/template"
	"time"

	"github.com/lociapp/loci-api/internal/config"
	"github.com/lociapp/loci-api/internal/generation"
	"google.golang.org/genai"
)

// ErrEmptySourceText is returned when a generation request carries no text.
var ErrEmptySourceText = errors.New("source text cannot be empty")

// Generator implements generation.Generator using Google's Gemini API.
type Generator struct {
	logger         *slog.Logger
	config         config.LLMConfig
	promptTemplate *template.Template
	client         *genai.Client
	model          string
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Gemini-backed generator. It validates the
// configuration, loads the prompt template and initializes the API client.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	promptTemplate, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger:         logger.With(slog.String("component", "gemini_generator")),
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}, nil
}

// GenerateCards implements generation.Generator.
func (g *Generator) GenerateCards(ctx context.Context, sourceText string) ([]generation.CardDraft, error) {
	prompt, err := g.createPrompt(sourceText)
	if err != nil {
		return nil, err
	}

	response, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return g.parseResponse(ctx, response)
}

func (g *Generator) createPrompt(sourceText string) (string, error) {
	if sourceText == "" {
		return "", ErrEmptySourceText
	}

	maxCards := g.config.MaxCardsPerSource
	if maxCards <= 0 {
		maxCards = 5
	}

	var buf bytes.Buffer
	err := g.promptTemplate.Execute(&buf, promptData{
		SourceText: sourceText,
		MaxCards:   maxCards,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return buf.String(), nil
}

// callWithRetry calls the Gemini API with exponential backoff and jitter.
// Permanent failures (blocked content, malformed responses) are returned
// immediately; everything else is treated as transient and retried.
func (g *Generator) callWithRetry(ctx context.Context, prompt string) (*responseSchema, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	baseDelaySeconds := g.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		g.logger.InfoContext(ctx, "calling Gemini API",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1),
			slog.String("model", g.model))

		response, err := g.callOnce(ctx, prompt)
		if err == nil {
			return response, nil
		}

		g.logger.WarnContext(ctx, "Gemini API call failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			return nil, err
		}

		if attempt >= maxRetries {
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, maxRetries, err)
		}

		// delay = baseDelay * 2^attempt * jitter in [0.5, 1.0)
		backoff := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5) * float64(time.Second))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

func (g *Generator) callOnce(ctx context.Context, prompt string) (*responseSchema, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, candidate.FinishReason)
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	response, err := parseCardJSON(text.String())
	if err != nil {
		return nil, err
	}

	return response, nil
}

// parseCardJSON decodes the model's reply. Replies sometimes arrive fenced in
// markdown or as a bare array, so both shapes are tolerated.
func parseCardJSON(text string) (*responseSchema, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response text", generation.ErrInvalidResponse)
	}

	var response responseSchema
	if strings.HasPrefix(cleaned, "[") {
		if err := json.Unmarshal([]byte(cleaned), &response.Cards); err != nil {
			return nil, fmt.Errorf("%w: failed to parse JSON array: %v",
				generation.ErrInvalidResponse, err)
		}
		return &response, nil
	}

	if err := json.Unmarshal([]byte(cleaned), &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}

	return &response, nil
}

func (g *Generator) parseResponse(ctx context.Context, response *responseSchema) ([]generation.CardDraft, error) {
	if response == nil || len(response.Cards) == 0 {
		return nil, fmt.Errorf("%w: no cards in response", generation.ErrInvalidResponse)
	}

	maxCards := g.config.MaxCardsPerSource
	cards := response.Cards
	if maxCards > 0 && len(cards) > maxCards {
		g.logger.DebugContext(ctx, "truncating oversized generation batch",
			slog.Int("returned", len(cards)),
			slog.Int("max", maxCards))
		cards = cards[:maxCards]
	}

	drafts := make([]generation.CardDraft, 0, len(cards))
	for i, card := range cards {
		if card.Front == "" {
			return nil, fmt.Errorf("%w: card %d missing front side", generation.ErrInvalidResponse, i)
		}
		if card.Back == "" {
			return nil, fmt.Errorf("%w: card %d missing back side", generation.ErrInvalidResponse, i)
		}

		drafts = append(drafts, generation.CardDraft{
			Front: card.Front,
			Back:  card.Back,
			Hint:  card.Hint,
			Tags:  card.Tags,
		})
	}

	g.logger.InfoContext(ctx, "parsed generation response",
		slog.Int("card_count", len(drafts)))

	return drafts, nil
}
