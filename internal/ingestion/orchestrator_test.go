package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"legalrag/internal/connectors"
	"legalrag/internal/models"
	"legalrag/internal/store"
)

type fakeStore struct {
	mu      sync.Mutex
	sources map[int64]models.CorpusSource
	upserts int
}

func newFakeStore(sources ...models.CorpusSource) *fakeStore {
	m := make(map[int64]models.CorpusSource)
	for _, s := range sources {
		m[s.ID] = s
	}
	return &fakeStore{sources: m}
}

func (f *fakeStore) state(id int64) models.SourceState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sources[id].State
}

func (f *fakeStore) UpsertDocument(ctx context.Context, srcID int64, doc models.LegalDocument, chunks []models.DocumentChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	return nil
}
func (f *fakeStore) VectorSearch(ctx context.Context, qVec []float32, filter store.Filter, k int) ([]store.ScoredChunk, error) {
	return nil, nil
}
func (f *fakeStore) LexicalSearch(ctx context.Context, qText string, filter store.Filter, k int) ([]store.ScoredChunk, error) {
	return nil, nil
}
func (f *fakeStore) GetDocument(ctx context.Context, officialID string) (models.LegalDocument, []models.DocumentChunk, error) {
	return models.LegalDocument{}, nil, nil
}
func (f *fakeStore) ListSources(ctx context.Context, filter store.SourceFilter, page store.Page) ([]models.CorpusSource, error) {
	return nil, nil
}
func (f *fakeStore) GetSource(ctx context.Context, id int64) (models.CorpusSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sources[id], nil
}
func (f *fakeStore) ClaimPendingSources(ctx context.Context, priority models.Priority) ([]models.CorpusSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CorpusSource
	for _, s := range f.sources {
		if s.Priority == priority && s.State == models.StatePending {
			out = append(out, s)
		}
	}
	return out, nil
}
func (f *fakeStore) MarkIngesting(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sources[id]
	s.State = models.StateIngesting
	f.sources[id] = s
	return nil
}
func (f *fakeStore) MarkIngested(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sources[id]
	s.State = models.StateIngested
	f.sources[id] = s
	return nil
}
func (f *fakeStore) MarkFailed(ctx context.Context, id int64, cause string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sources[id]
	s.State = models.StateFailed
	s.LastError = cause
	f.sources[id] = s
	return nil
}
func (f *fakeStore) MarkPending(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sources[id]
	s.State = models.StatePending
	f.sources[id] = s
	return nil
}
func (f *fakeStore) ReclaimStaleIngesting(ctx context.Context, olderThanSeconds int64) (int, error) {
	return 0, nil
}

// fakeConnector lets tests control Fetch's outcome directly, without a real
// network call.
type fakeConnector struct {
	units []connectors.StructuralUnit
	meta  connectors.Metadata
	err   error
	calls int
}

func (c *fakeConnector) Fetch(ctx context.Context, url string, hints connectors.FetchHints) (string, []connectors.StructuralUnit, connectors.Metadata, error) {
	c.calls++
	if c.err != nil {
		return "", nil, connectors.Metadata{}, c.err
	}
	return "<html></html>", c.units, c.meta, nil
}

type fakeRegistry struct{ conn connectors.Connector }

func (r fakeRegistry) For(sourceURL string) connectors.Connector { return r.conn }

type fakeEmbedder struct{ err error }

func (e fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1}, nil
}
func (fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func testSource(id int64, state models.SourceState) models.CorpusSource {
	return models.CorpusSource{
		ID: id, OfficialID: "BOE-A-2020-1", Priority: models.PriorityP1,
		Nature: models.NatureNormativa, Area: "Fiscal", AuthorityLevel: models.AuthorityLey,
		Title: "Ley de ejemplo", SourceURL: "https://www.boe.es/buscar/doc.php?id=BOE-A-2020-1",
		State: state,
	}
}

func testOptions() Options {
	return Options{MaxAttempts: 3, BaseDelay: time.Millisecond, Exponent: 2.0, Workers: 1}
}

func TestIngestOneSucceedsAndMarksIngested(t *testing.T) {
	src := testSource(1, models.StatePending)
	s := newFakeStore(src)
	conn := &fakeConnector{units: []connectors.StructuralUnit{
		{Kind: "article", Label: "Artículo 1", Text: "Texto del artículo uno.", Position: 0},
	}}
	o := NewOrchestrator(s, fakeRegistry{conn}, fakeEmbedder{}, testOptions(), "ua", "contact", nil)

	if err := o.ingestOne(context.Background(), src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.state(1) != models.StateIngested {
		t.Fatalf("expected source marked ingested, got %q", s.state(1))
	}
	if conn.calls != 1 {
		t.Fatalf("expected exactly 1 fetch call on success, got %d", conn.calls)
	}
}

func TestIngestOnePermanentFetchErrorIsNotRetried(t *testing.T) {
	src := testSource(2, models.StatePending)
	s := newFakeStore(src)
	conn := &fakeConnector{err: &connectors.FetchError{URL: src.SourceURL, Status: 404, Permanent: true, Err: errors.New("not found")}}
	o := NewOrchestrator(s, fakeRegistry{conn}, fakeEmbedder{}, testOptions(), "ua", "contact", nil)

	err := o.ingestOne(context.Background(), src)
	if err == nil {
		t.Fatalf("expected failure")
	}
	if s.state(2) != models.StateFailed {
		t.Fatalf("expected source marked failed, got %q", s.state(2))
	}
	if conn.calls != 1 {
		t.Fatalf("expected permanent error to short-circuit retries, got %d calls", conn.calls)
	}
}

func TestIngestOneRetriesTransientFetchError(t *testing.T) {
	src := testSource(3, models.StatePending)
	s := newFakeStore(src)
	conn := &fakeConnector{err: &connectors.FetchError{URL: src.SourceURL, Status: 503, Permanent: false, Err: errors.New("service unavailable")}}
	o := NewOrchestrator(s, fakeRegistry{conn}, fakeEmbedder{}, testOptions(), "ua", "contact", nil)

	err := o.ingestOne(context.Background(), src)
	if err == nil {
		t.Fatalf("expected failure after exhausting retries")
	}
	if conn.calls != testOptions().MaxAttempts {
		t.Fatalf("expected %d attempts, got %d", testOptions().MaxAttempts, conn.calls)
	}
	if s.state(3) != models.StateFailed {
		t.Fatalf("expected source marked failed after exhausting retries, got %q", s.state(3))
	}
}

func TestIngestOneEmptyDocumentIsPermanent(t *testing.T) {
	src := testSource(4, models.StatePending)
	s := newFakeStore(src)
	conn := &fakeConnector{units: nil} // zero units, and html has no body text
	o := NewOrchestrator(s, fakeRegistry{conn}, fakeEmbedder{}, testOptions(), "ua", "contact", nil)

	err := o.ingestOne(context.Background(), src)
	if err == nil {
		t.Fatalf("expected failure")
	}
	if conn.calls != 1 {
		t.Fatalf("expected empty-document failure to short-circuit retries, got %d calls", conn.calls)
	}
	if s.state(4) != models.StateFailed {
		t.Fatalf("expected source marked failed, got %q", s.state(4))
	}
}

func TestIngestOneRevertsToPendingOnCancellation(t *testing.T) {
	src := testSource(5, models.StatePending)
	s := newFakeStore(src)
	conn := &fakeConnector{units: []connectors.StructuralUnit{
		{Kind: "article", Label: "Artículo 1", Text: "Texto.", Position: 0},
	}}
	o := NewOrchestrator(s, fakeRegistry{conn}, fakeEmbedder{}, testOptions(), "ua", "contact", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := o.ingestOne(ctx, src)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s.state(5) != models.StatePending {
		t.Fatalf("expected source reverted to pending, got %q", s.state(5))
	}
}

func TestIngestAllByPriorityCountsOutcomes(t *testing.T) {
	good := testSource(10, models.StatePending)
	bad := testSource(11, models.StatePending)
	bad.SourceURL = "https://www.boe.es/buscar/doc.php?id=BOE-A-2020-2"
	s := newFakeStore(good, bad)

	goodConn := &fakeConnector{units: []connectors.StructuralUnit{{Kind: "article", Label: "A1", Text: "texto", Position: 0}}}
	o := NewOrchestrator(s, fakeRegistry{goodConn}, fakeEmbedder{}, testOptions(), "ua", "contact", nil)

	ingested, failed, err := o.IngestAllByPriority(context.Background(), models.PriorityP1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ingested+failed != 2 {
		t.Fatalf("expected 2 sources processed, got ingested=%d failed=%d", ingested, failed)
	}
}
