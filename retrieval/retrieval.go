package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/brunobiangulo/legigraph/store"
)

// ---------------------------------------------------------------------------
// Instrument-number detection for query routing.
// When a query carries a structured instrument reference ("loi n° 18-05",
// "décret 93-01") we boost FTS weight and reduce vector weight so that
// exact-match retrieval is preferred over term-overlap similarity.
// ---------------------------------------------------------------------------
var instrumentNumberPatterns = []*regexp.Regexp{
	// Numbered references: n° 18-05, no 93-01
	regexp.MustCompile(`(?i)n[°o]\s*\d{1,4}[-/]\d{1,4}`),
	// Bare instrument numbers: 18-05, 66-156
	regexp.MustCompile(`\b\d{2}-\d{2,3}\b`),
	// JORADP issue references: JO n° 37, journal officiel n° 37
	regexp.MustCompile(`(?i)(?:jo|journal\s+officiel)\s+n[°o]\s*\d+`),
}

// detectInstrumentNumbers returns true if the query contains at least one
// structured instrument reference.
func detectInstrumentNumbers(query string) bool {
	for _, p := range instrumentNumberPatterns {
		if p.MatchString(query) {
			return true
		}
	}
	return false
}

// Config holds retrieval engine configuration.
type Config struct {
	WeightVector float64
	WeightFTS    float64
}

// SearchOptions configures a single search operation.
type SearchOptions struct {
	MaxResults int
	WeightVec  float64
	WeightFTS  float64
}

// SearchTrace records the full breakdown of a hybrid search operation.
type SearchTrace struct {
	VecResults        int                       `json:"vec_results"`
	FTSResults        int                       `json:"fts_results"`
	FusedResults      int                       `json:"fused_results"`
	VecWeight         float64                   `json:"vec_weight"`
	FTSWeight         float64                   `json:"fts_weight"`
	InstrumentQuery   bool                      `json:"instrument_query"`
	MaxRequested      int                       `json:"max_requested"`
	FTSQuery          string                    `json:"fts_query"`
	ElapsedMs         int64                     `json:"elapsed_ms"`
	PerResult         map[int64]FusedResultInfo `json:"per_result,omitempty"`
}

// Engine performs hybrid retrieval combining vector and FTS search.
type Engine struct {
	store *store.Store
	vec   *Vectorizer
	cfg   Config
}

// New creates a new retrieval engine. The vectorizer dimension must match
// the store's vec0 table.
func New(s *store.Store, vec *Vectorizer, cfg Config) *Engine {
	return &Engine{store: s, vec: vec, cfg: cfg}
}

// Vectorizer returns the engine's vectorizer, shared with ingestion so
// query and section vectors live in the same space.
func (e *Engine) Vectorizer() *Vectorizer {
	return e.vec
}

// Search performs hybrid retrieval using RRF to fuse vector and FTS5
// results. Returns fused results and a SearchTrace with the breakdown.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) ([]store.RetrievalResult, *SearchTrace, error) {
	if opts.MaxResults == 0 {
		opts.MaxResults = 20
	}
	if opts.WeightVec == 0 {
		opts.WeightVec = e.cfg.WeightVector
	}
	if opts.WeightFTS == 0 {
		opts.WeightFTS = e.cfg.WeightFTS
	}

	trace := &SearchTrace{
		VecWeight:    opts.WeightVec,
		FTSWeight:    opts.WeightFTS,
		MaxRequested: opts.MaxResults,
	}

	// Instrument-aware query routing: boost FTS weight by 2x and reduce
	// vector weight by 0.5x when the query names a specific instrument.
	if detectInstrumentNumbers(query) {
		slog.Debug("retrieval: instrument reference detected, boosting FTS weight",
			"query", query,
			"original_fts", opts.WeightFTS,
			"original_vec", opts.WeightVec)
		opts.WeightFTS *= 2.0
		opts.WeightVec *= 0.5
		trace.InstrumentQuery = true
		trace.VecWeight = opts.WeightVec
		trace.FTSWeight = opts.WeightFTS
	}

	ftsQuery := sanitizeFTSQuery(query)
	trace.FTSQuery = ftsQuery

	slog.Debug("retrieval: starting hybrid search",
		"query_len", len(query), "max_results", opts.MaxResults,
		"weights", fmt.Sprintf("vec=%.1f fts=%.1f", opts.WeightVec, opts.WeightFTS))
	searchStart := time.Now()

	type result struct {
		results []store.RetrievalResult
		err     error
	}

	vecCh := make(chan result, 1)
	ftsCh := make(chan result, 1)

	go func() {
		r, err := e.vectorSearch(ctx, query, opts.MaxResults)
		vecCh <- result{r, err}
	}()

	go func() {
		r, err := e.store.FTSSearch(ctx, ftsQuery, opts.MaxResults)
		ftsCh <- result{r, err}
	}()

	vecRes := <-vecCh
	ftsRes := <-ftsCh

	if vecRes.err != nil {
		slog.Warn("retrieval: vector search failed", "error", vecRes.err)
	}
	if ftsRes.err != nil {
		slog.Warn("retrieval: fts search failed", "error", ftsRes.err)
	}
	trace.VecResults = len(vecRes.results)
	trace.FTSResults = len(ftsRes.results)

	fused, infoMap := fuseRRF(
		vecRes.results, ftsRes.results,
		opts.WeightVec, opts.WeightFTS,
		opts.MaxResults,
	)

	trace.FusedResults = len(fused)
	trace.PerResult = infoMap
	trace.ElapsedMs = time.Since(searchStart).Milliseconds()

	if len(fused) == 0 {
		// If both methods failed, return the first error
		if vecRes.err != nil {
			return nil, trace, fmt.Errorf("vector search: %w", vecRes.err)
		}
		if ftsRes.err != nil {
			return nil, trace, fmt.Errorf("fts search: %w", ftsRes.err)
		}
	}

	return fused, trace, nil
}

// vectorSearch hashes the query into the section vector space and runs KNN.
func (e *Engine) vectorSearch(ctx context.Context, query string, k int) ([]store.RetrievalResult, error) {
	vec := e.vec.Vectorize(query)
	return e.store.VectorSearch(ctx, vec, k)
}
