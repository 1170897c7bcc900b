// Package store defines the ChunkStore interface and a Postgres + pgvector
// implementation. The rest of the core never imports pgx directly — vector-
// index specifics stay behind this narrow interface.
package store

import (
	"context"
	"errors"

	"legalrag/internal/models"
)

// ErrDuplicateOfficialID is returned by UpsertDocument when a different
// source already owns the official_id.
var ErrDuplicateOfficialID = errors.New("store: official_id already exists for another source")

// ErrNotFound is returned by GetDocument/GetSource when no row matches.
var ErrNotFound = errors.New("store: not found")

// Filter is an AND of optional equality predicates on chunk metadata. A
// zero value on a field means "no constraint on this dimension".
type Filter struct {
	Nature         models.Nature
	Area           string
	Priority       models.Priority
	AuthorityLevel models.AuthorityLevel
}

// ScoredChunk pairs a chunk with its raw retrieval score: cosine distance
// for vector search (ascending is better), lexical rank for lexical search
// (descending is better).
type ScoredChunk struct {
	Chunk models.DocumentChunk
	Score float64
}

// Page describes pagination for ListSources.
type Page struct {
	Offset int
	Limit  int
}

// SourceFilter narrows ListSources by catalog fields.
type SourceFilter struct {
	Priority models.Priority
	Nature   models.Nature
	Area     string
	State    models.SourceState
}

// ChunkStore is the narrow persistence interface the rest of the core
// depends on.
type ChunkStore interface {
	// UpsertDocument atomically replaces any existing document for srcID
	// and all of its chunks.
	UpsertDocument(ctx context.Context, srcID int64, doc models.LegalDocument, chunks []models.DocumentChunk) error

	VectorSearch(ctx context.Context, qVec []float32, filter Filter, k int) ([]ScoredChunk, error)
	LexicalSearch(ctx context.Context, qText string, filter Filter, k int) ([]ScoredChunk, error)

	GetDocument(ctx context.Context, officialID string) (models.LegalDocument, []models.DocumentChunk, error)
	ListSources(ctx context.Context, filter SourceFilter, page Page) ([]models.CorpusSource, error)

	// Source catalog / ingestion state machine plumbing.
	GetSource(ctx context.Context, id int64) (models.CorpusSource, error)
	ClaimPendingSources(ctx context.Context, priority models.Priority) ([]models.CorpusSource, error)
	MarkIngesting(ctx context.Context, id int64) error
	MarkIngested(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, cause string) error
	MarkPending(ctx context.Context, id int64) error
	ReclaimStaleIngesting(ctx context.Context, olderThanSeconds int64) (int, error)
}
