package models

import "fmt"

// Nature is the legal-authority tier of a source or chunk. The hierarchical
// retriever partitions on this value, so it is a closed enum rather than a
// free string threaded through a generic metadata map.
type Nature string

const (
	NatureNormativa      Nature = "Normativa"
	NatureDoctrina       Nature = "Doctrina"
	NatureJurisprudencia Nature = "Jurisprudencia"
)

func ParseNature(s string) (Nature, error) {
	switch Nature(s) {
	case NatureNormativa, NatureDoctrina, NatureJurisprudencia:
		return Nature(s), nil
	default:
		return "", fmt.Errorf("unknown nature %q", s)
	}
}

// Priority is the ingestion/retrieval priority tier of a CorpusSource.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityP1, PriorityP2, PriorityP3:
		return Priority(s), nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}

// AuthorityLevel ranks legal force strictly from constitution down to case
// law. Rank() gives the tie-break order used by the search engine.
type AuthorityLevel string

const (
	AuthorityConstitucion           AuthorityLevel = "Constitución"
	AuthorityLey                    AuthorityLevel = "Ley"
	AuthorityRealDecretoLegislativo AuthorityLevel = "Real Decreto Legislativo"
	AuthorityRealDecreto            AuthorityLevel = "Real Decreto"
	AuthorityOrden                  AuthorityLevel = "Orden"
	AuthorityDoctrinaAdministrativa AuthorityLevel = "Doctrina administrativa"
	AuthorityJurisprudencia         AuthorityLevel = "Jurisprudencia"
	AuthorityOther                  AuthorityLevel = "other"
)

func ParseAuthorityLevel(s string) (AuthorityLevel, error) {
	switch AuthorityLevel(s) {
	case AuthorityConstitucion, AuthorityLey, AuthorityRealDecretoLegislativo,
		AuthorityRealDecreto, AuthorityOrden, AuthorityDoctrinaAdministrativa,
		AuthorityJurisprudencia:
		return AuthorityLevel(s), nil
	case "":
		return AuthorityOther, nil
	default:
		return AuthorityOther, nil
	}
}

// Multiplier returns the authority-reranking score boost for this level.
func (a AuthorityLevel) Multiplier() float64 {
	switch a {
	case AuthorityConstitucion:
		return 2.0
	case AuthorityLey:
		return 1.5
	case AuthorityRealDecretoLegislativo:
		return 1.4
	case AuthorityRealDecreto:
		return 1.3
	case AuthorityOrden:
		return 1.1
	case AuthorityDoctrinaAdministrativa:
		return 1.0
	case AuthorityJurisprudencia:
		return 0.9
	default:
		return 1.0
	}
}

// rank orders authority levels from strongest (0) to weakest, used as a
// tie-break in hybrid search; unknown levels sort last.
func (a AuthorityLevel) rank() int {
	order := []AuthorityLevel{
		AuthorityConstitucion, AuthorityLey, AuthorityRealDecretoLegislativo,
		AuthorityRealDecreto, AuthorityOrden, AuthorityDoctrinaAdministrativa,
		AuthorityJurisprudencia,
	}
	for i, v := range order {
		if v == a {
			return i
		}
	}
	return len(order)
}

// Rank exposes rank() for use outside the package (search tie-breaks).
func (a AuthorityLevel) Rank() int { return a.rank() }

// SourceState is the CorpusSource ingestion state machine.
type SourceState string

const (
	StatePending   SourceState = "pending"
	StateIngesting SourceState = "ingesting"
	StateIngested  SourceState = "ingested"
	StateFailed    SourceState = "failed"
	StateSkipped   SourceState = "skipped"
)

// ChunkKind is the structural kind of a DocumentChunk.
type ChunkKind string

const (
	ChunkArticle      ChunkKind = "article"
	ChunkSection      ChunkKind = "section"
	ChunkDisposition  ChunkKind = "disposition"
	ChunkConsulta     ChunkKind = "consulta"
	ChunkContestacion ChunkKind = "contestacion"
	ChunkFullText     ChunkKind = "full_text"
)
