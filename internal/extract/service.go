package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/finatracker/finatracker/internal/model"
)

// Strategy identifies one way of turning an uploaded file into transactions.
type Strategy int

const (
	// StrategyCSV runs the deterministic header-driven CSV extractor.
	StrategyCSV Strategy = iota
	// StrategyTextAI feeds the raw file bytes to the AI parser as plain
	// text. Used as the fallback when the CSV classifier maps nothing.
	StrategyTextAI
	// StrategyDocumentAI runs the document text extractor and then the AI
	// parser. The route for PDFs, images and everything else.
	StrategyDocumentAI
)

func (s Strategy) String() string {
	switch s {
	case StrategyCSV:
		return "csv"
	case StrategyTextAI:
		return "ai-text"
	case StrategyDocumentAI:
		return "ai-document"
	default:
		return "unknown"
	}
}

// Plan maps file metadata to the ordered list of strategies to try. It is a
// pure function so the routing policy stays independently testable.
func Plan(filename string) []Strategy {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return []Strategy{StrategyCSV, StrategyTextAI}
	}
	return []Strategy{StrategyDocumentAI}
}

// Result is the outcome of one successful extraction run. Advisory is set on
// zero-result success so the boundary layer can report "valid file, nothing
// found" distinctly from a failure.
type Result struct {
	Transactions []model.Transaction
	Advisory     string
}

// Service is the extraction orchestrator: per uploaded file it decides which
// extractors to run and in what order, and guarantees the temp file is
// deleted whether or not extraction succeeds.
type Service struct {
	csv  *CSVExtractor
	docs *DocumentExtractor
	ai   *ModelParser
	log  zerolog.Logger
}

// NewService wires the three extractors into an orchestrator.
func NewService(csv *CSVExtractor, docs *DocumentExtractor, ai *ModelParser, log zerolog.Logger) *Service {
	return &Service{csv: csv, docs: docs, ai: ai, log: log}
}

// ExtractFile runs the routing policy for one uploaded file and returns the
// normalized transactions.
func (s *Service) ExtractFile(ctx context.Context, path, originalName, mimeType string) (Result, error) {
	defer s.cleanup(path)

	plan := Plan(originalName)

	var txs []model.Transaction
	for i, strategy := range plan {
		var err error
		txs, err = s.run(ctx, strategy, path, mimeType)
		if err != nil {
			return Result{}, err
		}
		if len(txs) > 0 {
			break
		}
		if i < len(plan)-1 {
			s.log.Info().
				Str("file", originalName).
				Str("strategy", strategy.String()).
				Str("next", plan[i+1].String()).
				Msg("extractor produced no transactions, falling back")
		}
	}

	if len(txs) == 0 {
		s.log.Warn().Str("file", originalName).Msg("file yielded zero transactions")
		return Result{
			Transactions: []model.Transaction{},
			Advisory:     "File processed, but zero transactions were extracted.",
		}, nil
	}

	s.log.Info().Str("file", originalName).Int("transactions", len(txs)).Msg("extraction complete")
	return Result{Transactions: txs}, nil
}

// run executes a single strategy.
func (s *Service) run(ctx context.Context, strategy Strategy, path, mimeType string) ([]model.Transaction, error) {
	switch strategy {
	case StrategyCSV:
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		return s.csv.Extract(raw), nil

	case StrategyTextAI:
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		return s.ai.Parse(ctx, Content{Data: raw, MIMEType: "text/plain"})

	case StrategyDocumentAI:
		content, err := s.docs.Extract(path, mimeType)
		if err != nil {
			return nil, err
		}
		return s.ai.Parse(ctx, content)

	default:
		return nil, fmt.Errorf("unknown strategy %d", strategy)
	}
}

// cleanup deletes the temp upload. Failure to delete is a warning, never an
// error surfaced to the caller.
func (s *Service) cleanup(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", path).Msg("could not delete temp file")
	}
}
