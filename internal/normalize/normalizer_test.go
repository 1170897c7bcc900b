package normalize

import (
	"testing"

	"legalrag/internal/connectors"
	"legalrag/internal/models"
)

func testSource() models.CorpusSource {
	return models.CorpusSource{
		ID: 1, OfficialID: "BOE-A-2020-1", Priority: models.PriorityP1,
		Nature: models.NatureNormativa, Area: "Fiscal", Scope: "Estatal",
		AuthorityLevel: models.AuthorityLey, Title: "Ley de ejemplo", SourceURL: "https://boe.es/x",
	}
}

func TestNormalizeStructuralUnits(t *testing.T) {
	src := testSource()
	units := []connectors.StructuralUnit{
		{Kind: "article", Label: "Artículo 1", Text: "Contenido del artículo uno.", Position: 0},
		{Kind: "article", Label: "Artículo 2", Text: "Contenido del artículo dos.", Position: 1},
	}

	res, err := Normalize(src, "<html></html>", units, connectors.Metadata{PublicationDate: "2020-01-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(res.Chunks))
	}
	if res.Chunks[0].Metadata.IsFallback {
		t.Fatalf("structural chunk should not be marked fallback")
	}
	if res.Chunks[0].LexicalText != "Artículo 1 Contenido del artículo uno." {
		t.Fatalf("unexpected lexical text: %q", res.Chunks[0].LexicalText)
	}
}

func TestNormalizeFallsBackToFullTextChunk(t *testing.T) {
	src := testSource()
	res, err := Normalize(src, "<html><body>Texto completo sin estructura detectable.</body></html>", nil, connectors.Metadata{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Chunks) != 1 {
		t.Fatalf("expected 1 fallback chunk, got %d", len(res.Chunks))
	}
	if !res.Chunks[0].Metadata.IsFallback {
		t.Fatalf("expected fallback chunk to be marked IsFallback")
	}
	if res.Chunks[0].Kind != models.ChunkFullText {
		t.Fatalf("expected full_text kind, got %q", res.Chunks[0].Kind)
	}
}

func TestNormalizeEmptyDocumentErrors(t *testing.T) {
	src := testSource()
	_, err := Normalize(src, "<html><body>   </body></html>", nil, connectors.Metadata{})
	if err != ErrEmptyDocument {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestNormalizeSkipsEmptyUnitsAndFallsBack(t *testing.T) {
	src := testSource()
	units := []connectors.StructuralUnit{{Kind: "article", Label: "Artículo 1", Text: "   ", Position: 0}}
	res, err := Normalize(src, "<html><body>Contenido alternativo disponible.</body></html>", units, connectors.Metadata{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Chunks) != 1 || !res.Chunks[0].Metadata.IsFallback {
		t.Fatalf("expected single fallback chunk when all units are empty")
	}
}
