// Package models holds the domain types shared by every component of the
// legal RAG pipeline: the corpus catalog, ingested documents, and the
// retrievable chunks that carry embeddings and lexical search metadata.
package models

import "time"

// CorpusSource is a catalog entry for one legal source awaiting, or already
// through, ingestion.
type CorpusSource struct {
	ID             int64
	OfficialID     string
	Priority       Priority
	Nature         Nature
	Area           string
	Scope          string
	AuthorityLevel AuthorityLevel
	Title          string
	SourceURL      string
	DocumentKind   string
	State          SourceState
	ClaimedAt      *time.Time
	LastIngestedAt *time.Time
	LastError      string
}

// LegalDocument is one successfully ingested source.
type LegalDocument struct {
	ID         string // UUID
	SourceID   int64
	Title      string
	OfficialID string
	URL        string
	Metadata   DocumentMetadata
}

// DocumentMetadata carries provenance attributes that don't belong on the
// chunk-level filtering path but are useful for display and /documents reads.
type DocumentMetadata struct {
	PublicationDate string `json:"publication_date,omitempty"`
	Section         string `json:"section,omitempty"`
	IssuingBody     string `json:"issuing_body,omitempty"`
}

// ChunkMetadata is the denormalised, filterable metadata carried on every
// chunk. Fields absent from the closed enums are
// treated as "unknown" and exclude the chunk from filtered searches — see
// store.Filter.
type ChunkMetadata struct {
	Nature          Nature
	Area            string
	Priority        Priority
	AuthorityLevel  AuthorityLevel
	Kind            ChunkKind
	Scope           string
	DocTitle        string
	OfficialID      string
	URL             string
	Position        int
	PublicationDate string
	IsFallback      bool
}

// DocumentChunk is the atomic retrievable unit.
type DocumentChunk struct {
	ID         string // UUID
	DocumentID string
	Kind       ChunkKind
	Label      string
	Text       string
	Embedding  []float32
	Metadata   ChunkMetadata
	// LexicalText is the precomputed label ⊕ text lexical-search
	// representation.
	LexicalText string
}
