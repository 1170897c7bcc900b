package rag

import (
	"context"
	"errors"
	"testing"

	"legalrag/internal/models"
	"legalrag/internal/search"
	"legalrag/internal/store"
)

type fakeChunkStore struct {
	hits []store.ScoredChunk
}

func (f *fakeChunkStore) UpsertDocument(ctx context.Context, srcID int64, doc models.LegalDocument, chunks []models.DocumentChunk) error {
	return nil
}
func (f *fakeChunkStore) VectorSearch(ctx context.Context, qVec []float32, filter store.Filter, k int) ([]store.ScoredChunk, error) {
	return f.hits, nil
}
func (f *fakeChunkStore) LexicalSearch(ctx context.Context, qText string, filter store.Filter, k int) ([]store.ScoredChunk, error) {
	return nil, nil
}
func (f *fakeChunkStore) GetDocument(ctx context.Context, officialID string) (models.LegalDocument, []models.DocumentChunk, error) {
	return models.LegalDocument{}, nil, nil
}
func (f *fakeChunkStore) ListSources(ctx context.Context, filter store.SourceFilter, page store.Page) ([]models.CorpusSource, error) {
	return nil, nil
}
func (f *fakeChunkStore) GetSource(ctx context.Context, id int64) (models.CorpusSource, error) {
	return models.CorpusSource{}, nil
}
func (f *fakeChunkStore) ClaimPendingSources(ctx context.Context, priority models.Priority) ([]models.CorpusSource, error) {
	return nil, nil
}
func (f *fakeChunkStore) MarkIngesting(ctx context.Context, id int64) error            { return nil }
func (f *fakeChunkStore) MarkIngested(ctx context.Context, id int64) error             { return nil }
func (f *fakeChunkStore) MarkFailed(ctx context.Context, id int64, cause string) error  { return nil }
func (f *fakeChunkStore) MarkPending(ctx context.Context, id int64) error               { return nil }
func (f *fakeChunkStore) ReclaimStaleIngesting(ctx context.Context, olderThanSeconds int64) (int, error) {
	return 0, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}
func (fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

type fakeGenerator struct {
	text string
	err  error
}

func (g *fakeGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	return g.text, g.err
}
func (g *fakeGenerator) Model() string { return "fake-model" }

func TestAnswerQueryGreetingShortCircuits(t *testing.T) {
	s := &fakeChunkStore{}
	engine := search.NewEngine(s, fakeEmbedder{}, search.DefaultOptions(), nil)
	o := NewOrchestrator(engine, &fakeGenerator{text: "no debería usarse"}, nil)

	answer, err := o.AnswerQuery(context.Background(), "Buenos días")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Text != greetingReply {
		t.Fatalf("expected greeting reply, got %q", answer.Text)
	}
	if len(answer.Sources) != 0 {
		t.Fatalf("expected no sources on greeting short-circuit")
	}
}

func TestAnswerQueryUsesGeneratorOutput(t *testing.T) {
	s := &fakeChunkStore{hits: []store.ScoredChunk{{
		Chunk: models.DocumentChunk{ID: "c1", Text: "texto legal", Label: "Artículo 1",
			Metadata: models.ChunkMetadata{Nature: models.NatureNormativa, AuthorityLevel: models.AuthorityLey, DocTitle: "Ley X"}},
		Score: 0.1,
	}}}
	engine := search.NewEngine(s, fakeEmbedder{}, search.DefaultOptions(), nil)
	o := NewOrchestrator(engine, &fakeGenerator{text: "## Resumen\nRespuesta generada."}, nil)

	answer, err := o.AnswerQuery(context.Background(), "¿Qué impuestos debo declarar como autónomo?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Text != "## Resumen\nRespuesta generada." {
		t.Fatalf("expected generator output verbatim, got %q", answer.Text)
	}
	if answer.Metadata.GenerationFailed {
		t.Fatalf("did not expect generation to be marked as failed")
	}
	if len(answer.Sources) == 0 {
		t.Fatalf("expected sources to be attached")
	}
}

func TestAnswerQueryFallsBackOnGenerationFailure(t *testing.T) {
	s := &fakeChunkStore{}
	engine := search.NewEngine(s, fakeEmbedder{}, search.DefaultOptions(), nil)
	o := NewOrchestrator(engine, &fakeGenerator{err: errors.New("llm unavailable")}, nil)

	answer, err := o.AnswerQuery(context.Background(), "¿Qué impuestos debo declarar como autónomo?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Text != fallbackAnswerNoSources {
		t.Fatalf("expected deterministic no-sources fallback answer")
	}
	if !answer.Metadata.GenerationFailed {
		t.Fatalf("expected GenerationFailed to be true")
	}
}

func TestAnswerQueryFallsBackWithSourcesOnGenerationFailure(t *testing.T) {
	s := &fakeChunkStore{hits: []store.ScoredChunk{{
		Chunk: models.DocumentChunk{ID: "c1", Text: "texto legal", Label: "Artículo 1",
			Metadata: models.ChunkMetadata{Nature: models.NatureNormativa, AuthorityLevel: models.AuthorityLey, DocTitle: "Ley X"}},
		Score: 0.1,
	}}}
	engine := search.NewEngine(s, fakeEmbedder{}, search.DefaultOptions(), nil)
	o := NewOrchestrator(engine, &fakeGenerator{err: errors.New("llm unavailable")}, nil)

	answer, err := o.AnswerQuery(context.Background(), "¿Qué impuestos debo declarar como autónomo?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Text != fallbackAnswerWithSources {
		t.Fatalf("expected deterministic with-sources fallback answer")
	}
	if len(answer.Sources) == 0 {
		t.Fatalf("expected sources to still be attached on generation failure")
	}
}
