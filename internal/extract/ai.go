package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/finatracker/finatracker/internal/model"
)

// Model identifiers for the ranked fallback sequence.
const (
	ModelFlash = "gemini-2.5-flash"
	ModelPro   = "gemini-2.5-pro"
)

// inferenceTimeout bounds each individual model attempt.
const inferenceTimeout = 30 * time.Second

// ContentGenerator issues one inference request and returns the raw response
// text. The production implementation wraps the genai SDK; tests substitute
// a fake to drive the fallback state machine without the network.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, modelName string, content Content, prompt string) (string, error)
}

// GeminiGenerator is the ContentGenerator backed by the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiGenerator{client: client}, nil
}

// GenerateContent sends the document content plus the instruction prompt as
// one user turn and returns the model's text response.
func (g *GeminiGenerator) GenerateContent(ctx context.Context, modelName string, content Content, prompt string) (string, error) {
	var parts []*genai.Part
	if content.IsText() {
		parts = append(parts, &genai.Part{Text: content.Text})
	} else {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: content.MIMEType,
				Data:     content.Data,
			},
		})
	}
	parts = append(parts, &genai.Part{Text: prompt})

	contents := []*genai.Content{{Role: "user", Parts: parts}}

	resp, err := g.client.Models.GenerateContent(ctx, modelName, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

// attempt tracks progress through the model sequence for one upload: the
// ranked models, the one currently being tried and the last failure reason.
type attempt struct {
	sequence []string
	index    int
	lastErr  string
}

func (a *attempt) current() string {
	return a.sequence[a.index]
}

func (a *attempt) exhausted() bool {
	return a.index >= len(a.sequence)
}

func (a *attempt) advance(reason string) {
	a.lastErr = reason
	a.index++
}

// ModelParser turns document content into transactions by walking a ranked
// model sequence. Timeouts, transport failures and empty responses advance to
// the next model; a response that parses but violates the schema aborts the
// whole sequence with a DataError.
type ModelParser struct {
	gen     ContentGenerator
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// NewModelParser creates a parser with the default 30-second per-model
// timeout.
func NewModelParser(gen ContentGenerator, log zerolog.Logger) *ModelParser {
	return &ModelParser{
		gen:     gen,
		timeout: inferenceTimeout,
		now:     time.Now,
		log:     log,
	}
}

// sequenceFor ranks the models for the given content. Pre-extracted text
// tends to be a large table dump, so it leads with the higher-capacity model;
// inline payloads lead with the faster one.
func sequenceFor(content Content) []string {
	if content.IsText() {
		return []string{ModelPro, ModelFlash}
	}
	return []string{ModelFlash, ModelPro}
}

// Parse runs the fallback state machine to completion. It returns the first
// successful model's transactions, a DataError on a structurally bad
// response, or an AvailabilityError once the sequence is exhausted.
func (p *ModelParser) Parse(ctx context.Context, content Content) ([]model.Transaction, error) {
	att := &attempt{
		sequence: sequenceFor(content),
		lastErr:  "no models could be reached",
	}

	for !att.exhausted() {
		modelName := att.current()
		p.log.Info().Str("model", modelName).Msg("attempting parse")

		txs, err := p.tryModel(ctx, modelName, content)
		if err == nil {
			p.log.Info().Str("model", modelName).Int("transactions", len(txs)).Msg("parse succeeded")
			return txs, nil
		}

		var dataErr *DataError
		if errors.As(err, &dataErr) {
			// Don't mask a structurally bad response by silently
			// switching models.
			return nil, err
		}

		reason := failureReason(err, p.timeout)
		p.log.Warn().Str("model", modelName).Str("reason", reason).Msg("model attempt failed")
		att.advance(reason)
	}

	return nil, &AvailabilityError{LastErr: att.lastErr}
}

// tryModel issues a single bounded inference call and validates the result.
func (p *ModelParser) tryModel(ctx context.Context, modelName string, content Content) ([]model.Transaction, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.gen.GenerateContent(callCtx, modelName, content, extractionPrompt)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("model returned an empty response")
	}

	clean := cleanModelJSON(raw)

	var parsed any
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, &DataError{
			Model:  modelName,
			Reason: "the response contained malformed JSON; the file may be too complex",
			Err:    err,
		}
	}
	items, ok := parsed.([]any)
	if !ok {
		return nil, &DataError{
			Model:  modelName,
			Reason: "the response was not a JSON array",
		}
	}

	return p.mapTransactions(items), nil
}

// mapTransactions normalizes raw model output into the canonical shape.
// Missing descriptions and categories get defaults, a missing date falls back
// to the processing date, an unparseable date rejects the entry, and
// zero-amount entries are discarded.
func (p *ModelParser) mapTransactions(items []any) []model.Transaction {
	today := p.now().Format(isoDate)

	out := make([]model.Transaction, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		tx := model.Transaction{
			Description: stringField(obj, "description", "Unknown"),
			Category:    stringField(obj, "category", "Uncategorized"),
			Amount:      amountField(obj["amount"]),
		}

		rawDate, present := obj["date"]
		if !present || rawDate == nil {
			tx.Date = today
		} else if s, ok := rawDate.(string); ok {
			tx.Date = NormalizeDate(s)
		}
		if tx.Date == "" {
			continue
		}

		if tx.Amount == 0 {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// stringField pulls a non-empty string out of a model object, falling back to
// a default.
func stringField(obj map[string]any, key, fallback string) string {
	if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

// amountField accepts either a JSON number or a currency-formatted string.
func amountField(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		return ParseAmount(val)
	default:
		return 0
	}
}

// cleanModelJSON peels markdown fences and surrounding prose off a model
// response, keeping only the substring from the first '[' to the last ']'.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}

// failureReason classifies a retryable attempt failure for the attempt log.
func failureReason(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("request timed out after %d seconds", int(timeout.Seconds()))
	}
	return err.Error()
}
