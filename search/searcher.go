package search

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/catalogit/ai"
	"github.com/poiesic/catalogit/core"
	"github.com/poiesic/catalogit/storage"
)

const (
	// DefaultLimit is used when a search asks for zero results.
	DefaultLimit = 5
	// MaxLimit caps the number of results of one search.
	MaxLimit = 10
	// DefaultMinScore drops weakly related products.
	DefaultMinScore = 0.3
	// candidateFactor widens vector retrieval so re-ranking has room to reorder.
	candidateFactor = 4
)

// Searcher ranks catalog products against free-text queries.
type Searcher struct {
	repository   storage.CatalogRepository
	embedder     ai.Embedder
	vectorWeight float32
	textWeight   float32
	minScore     float32
	logger       *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithWeights sets the blend of vector similarity and term coverage.
// Default is 0.7 and 0.3.
func WithWeights(vector, text float32) Option {
	return func(s *Searcher) error {
		if vector < 0 || text < 0 || vector+text == 0 {
			return ErrInvalidWeights
		}
		s.vectorWeight = vector
		s.textWeight = text
		return nil
	}
}

// WithMinScore sets the minimum blended score of a result.
// Default is DefaultMinScore.
func WithMinScore(score float32) Option {
	return func(s *Searcher) error {
		s.minScore = score
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repository storage.CatalogRepository, provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if repository == nil {
		return nil, ErrCatalogRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		repository:   repository,
		embedder:     provider.Embedder(),
		vectorWeight: 0.7,
		textWeight:   0.3,
		minScore:     DefaultMinScore,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// ClampLimit maps a requested result count onto 1..MaxLimit. Zero or a
// negative count yields DefaultLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// Search returns up to limit products ranked by relevance to query.
// Failures are logged and yield an empty result with a nil error.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, limit, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, limit int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	limit = ClampLimit(limit)
	monitor.Start(query)

	empty := []*core.SearchResult{}
	if strings.TrimSpace(query) == "" {
		monitor.Finish(empty)
		return empty, nil
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		monitor.Failed(err)
		return empty, nil
	}

	candidates, err := s.repository.FindSimilar(ctx, embedding, 0, limit*candidateFactor)
	if err != nil {
		s.logger.Error("error querying for similar products", "err", err)
		monitor.Failed(err)
		return empty, nil
	}
	monitor.AfterCandidateRetrieval(candidates)

	results := make([]*core.SearchResult, 0, len(candidates))
	for _, candidate := range candidates {
		textScore := termCoverage(searchableText(candidate.Product), query)
		score := s.vectorWeight*candidate.Score + s.textWeight*textScore
		monitor.Scored(candidate.Product, candidate.Score, textScore, score)
		if score < s.minScore {
			continue
		}
		results = append(results, &core.SearchResult{Product: candidate.Product, Score: score})
	}

	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(results) > limit {
		results = results[:limit]
	}

	s.logger.Info("product search", "query", query, "results", len(results), "min_score", s.minScore)
	monitor.Finish(results)
	return results, nil
}

func searchableText(p *core.Product) string {
	parts := append([]string{p.Name, p.Description}, p.Metadata.ProblemMappings()...)
	return strings.Join(parts, " ")
}
