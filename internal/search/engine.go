// Package search implements hybrid vector+lexical retrieval with Reciprocal
// Rank Fusion and authority-weighted reranking, plus the three-bucket
// hierarchical retrieval protocol used by the RAG orchestrator.
package search

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"legalrag/internal/embedding"
	"legalrag/internal/models"
	"legalrag/internal/store"
)

// ErrRetrieval is returned by Hybrid when both the vector path (embedding
// or vector search) and the lexical search fail; a failure on only one
// side degrades to the other side's results.
var ErrRetrieval = errors.New("search: retrieval failed")

// Options tunes RRF weights and bucket sizes.
type Options struct {
	Kappa     float64
	WeightVec float64
	WeightLex float64

	NormativaLimit      int
	DoctrinaLimit       int
	JurisprudenciaLimit int
}

func DefaultOptions() Options {
	return Options{
		Kappa: 60, WeightVec: 0.6, WeightLex: 0.4,
		NormativaLimit: 5, DoctrinaLimit: 3, JurisprudenciaLimit: 2,
	}
}

// Engine is the hybrid/hierarchical search engine.
type Engine struct {
	store    store.ChunkStore
	embedder embedding.Embedder
	opts     Options
	logger   *zap.Logger
}

func NewEngine(s store.ChunkStore, e embedding.Embedder, opts Options, logger *zap.Logger) *Engine {
	return &Engine{store: s, embedder: e, opts: opts, logger: logger}
}

// Result is one hybrid-search hit with its fused/boosted score and the
// underlying vector distance (used only for tie-breaking).
type Result struct {
	Chunk         models.DocumentChunk
	Score         float64
	VectorDistance float64
}

// Hybrid runs vector search, lexical search, RRF fusion, authority
// reranking and a deterministic tie-break, returning the top k results.
//
// The lexical fetch is never blocked on the embedding call: both are
// launched concurrently and only joined once both are needed.
func (e *Engine) Hybrid(ctx context.Context, q string, filter store.Filter, k int) ([]Result, error) {
	type vecOutcome struct {
		hits []store.ScoredChunk
		err  error
	}
	type lexOutcome struct {
		hits []store.ScoredChunk
		err  error
	}

	vecCh := make(chan vecOutcome, 1)
	lexCh := make(chan lexOutcome, 1)

	go func() {
		qVec, err := e.embedder.Embed(ctx, q)
		if err != nil {
			vecCh <- vecOutcome{err: err}
			return
		}
		hits, err := e.store.VectorSearch(ctx, qVec, filter, 2*k)
		vecCh <- vecOutcome{hits: hits, err: err}
	}()

	go func() {
		hits, err := e.store.LexicalSearch(ctx, q, filter, 2*k)
		lexCh <- lexOutcome{hits: hits, err: err}
	}()

	vec := <-vecCh
	lex := <-lexCh

	if vec.err != nil {
		if lex.err != nil {
			return nil, errors.Join(ErrRetrieval, vec.err)
		}
		if e.logger != nil {
			e.logger.Warn("embedder degraded, falling back to lexical-only search",
				zap.String("component", "search_engine"),
				zap.String("event", "embedder_degraded"),
				zap.Error(vec.err))
		}
		vec.hits = nil
	}
	if lex.err != nil && e.logger != nil {
		e.logger.Warn("lexical search failed, falling back to vector-only",
			zap.String("component", "search_engine"),
			zap.String("event", "lexical_degraded"),
			zap.Error(lex.err))
		lex.hits = nil
	}

	return fuseAndRerank(vec.hits, lex.hits, e.opts, k), nil
}

// fuseAndRerank applies RRF, authority multiplication and
// the deterministic sort/tie-break.
func fuseAndRerank(vecHits, lexHits []store.ScoredChunk, opts Options, k int) []Result {
	type accum struct {
		chunk          models.DocumentChunk
		fused          float64
		vectorDistance float64
		hasVector      bool
	}

	byID := make(map[string]*accum)
	order := make([]string, 0, len(vecHits)+len(lexHits))

	ensure := func(c models.DocumentChunk) *accum {
		a, ok := byID[c.ID]
		if !ok {
			a = &accum{chunk: c}
			byID[c.ID] = a
			order = append(order, c.ID)
		}
		return a
	}

	for rank, hit := range vecHits {
		a := ensure(hit.Chunk)
		a.fused += opts.WeightVec * (1.0 / (opts.Kappa + float64(rank+1)))
		a.vectorDistance = hit.Score
		a.hasVector = true
	}
	for rank, hit := range lexHits {
		a := ensure(hit.Chunk)
		a.fused += opts.WeightLex * (1.0 / (opts.Kappa + float64(rank+1)))
	}

	results := make([]Result, 0, len(order))
	for _, id := range order {
		a := byID[id]
		boosted := a.fused * a.chunk.Metadata.AuthorityLevel.Multiplier()
		dist := a.vectorDistance
		if !a.hasVector {
			dist = 1.0 // unknown distance sorts after vector-backed hits on tie-break
		}
		results = append(results, Result{Chunk: a.chunk, Score: boosted, VectorDistance: dist})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		ri, rj := results[i].Chunk.Metadata.AuthorityLevel.Rank(), results[j].Chunk.Metadata.AuthorityLevel.Rank()
		if ri != rj {
			return ri < rj
		}
		if results[i].VectorDistance != results[j].VectorDistance {
			return results[i].VectorDistance < results[j].VectorDistance
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// Buckets is the three-bucket hierarchical retrieval response, always in
// the fixed order normativa, doctrina, jurisprudencia.
type Buckets struct {
	Normativa      []Result
	Doctrina       []Result
	Jurisprudencia []Result
}

// Hierarchical retrieves normativa, then doctrina (only if normativa is
// non-empty), then jurisprudencia, optionally narrowed by legal area.
func (e *Engine) Hierarchical(ctx context.Context, q string, area string) (Buckets, error) {
	var buckets Buckets

	normativaFilter := store.Filter{Nature: models.NatureNormativa, Priority: models.PriorityP1, Area: area}
	normativa, err := e.Hybrid(ctx, q, normativaFilter, e.opts.NormativaLimit)
	if err != nil {
		return buckets, err
	}
	buckets.Normativa = normativa

	if len(normativa) > 0 {
		doctrinaFilter := store.Filter{Nature: models.NatureDoctrina, Area: area}
		doctrina, err := e.Hybrid(ctx, q, doctrinaFilter, e.opts.DoctrinaLimit)
		if err != nil {
			return buckets, err
		}
		buckets.Doctrina = doctrina
	}

	jpFilter := store.Filter{Nature: models.NatureJurisprudencia, Area: area}
	jurisprudencia, err := e.Hybrid(ctx, q, jpFilter, e.opts.JurisprudenciaLimit)
	if err != nil {
		return buckets, err
	}
	buckets.Jurisprudencia = jurisprudencia

	return buckets, nil
}
