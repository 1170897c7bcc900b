// Package ingestion implements the per-source ingestion pipeline and state
// machine: claim → fetch → parse+normalise → embed → store, with
// retry/backoff for transient failures and direct-to-failed for permanent
// ones.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"legalrag/internal/connectors"
	"legalrag/internal/embedding"
	"legalrag/internal/metrics"
	"legalrag/internal/models"
	"legalrag/internal/normalize"
	"legalrag/internal/store"
)

// Options tunes the retry policy (3 attempts, 60s base delay, exponent 2.0
// by default) and ingestion concurrency.
type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Exponent    float64
	Workers     int
}

func DefaultOptions() Options {
	return Options{
		MaxAttempts: 3,
		BaseDelay:   60 * time.Second,
		Exponent:    2.0,
		Workers:     4,
	}
}

// connectorRegistry is the narrow seam the orchestrator needs from
// *connectors.Registry: dispatch a source URL to its connector. Typing
// against the interface rather than the concrete registry keeps this
// package testable without live network calls.
type connectorRegistry interface {
	For(sourceURL string) connectors.Connector
}

// Orchestrator drives the ingestion state machine for one CorpusSource at a
// time, dispatched across a worker pool.
type Orchestrator struct {
	store      store.ChunkStore
	registry   connectorRegistry
	embedder   embedding.Embedder
	opts       Options
	logger     *zap.Logger
	userAgent  string
	contact    string
}

func NewOrchestrator(s store.ChunkStore, registry connectorRegistry, embedder embedding.Embedder, opts Options, userAgent, contact string, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:     s,
		registry:  registry,
		embedder:  embedder,
		opts:      opts,
		logger:    logger,
		userAgent: userAgent,
		contact:   contact,
	}
}

// permanentError marks a failure that must not be retried:
// parse/empty-document and validation failures.
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// IngestAllByPriority claims every pending source at the given priority and
// ingests them across a bounded worker pool.
func (o *Orchestrator) IngestAllByPriority(ctx context.Context, priority models.Priority) (ingested, failed int, err error) {
	sources, err := o.store.ClaimPendingSources(ctx, priority)
	if err != nil {
		return 0, 0, fmt.Errorf("claim pending sources: %w", err)
	}
	if len(sources) == 0 {
		return 0, 0, nil
	}

	jobs := make(chan models.CorpusSource)
	results := make(chan error, len(sources))

	workers := o.opts.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go func() {
			for src := range jobs {
				results <- o.ingestOne(ctx, src)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, src := range sources {
			jobs <- src
		}
	}()

	for range sources {
		if err := <-results; err != nil {
			failed++
		} else {
			ingested++
		}
	}
	return ingested, failed, nil
}

// ingestOne runs one source through claim→fetch→normalise→embed→store, with
// retry/backoff on transient failures, and the source left in "pending"
// (not "ingesting") if ctx is cancelled mid-flight.
func (o *Orchestrator) ingestOne(ctx context.Context, src models.CorpusSource) error {
	if err := o.store.MarkIngesting(ctx, src.ID); err != nil {
		return fmt.Errorf("mark ingesting source %d: %w", src.ID, err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.opts.BaseDelay
	b.Multiplier = o.opts.Exponent

	op := func() (struct{}, error) {
		if err := o.runPipeline(ctx, src); err != nil {
			var perm *permanentError
			if errors.As(err, &perm) {
				return struct{}{}, backoff.Permanent(perm.err)
			}
			var fe *connectors.FetchError
			if errors.As(err, &fe) && fe.Permanent {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(o.opts.MaxAttempts)))

	if err != nil {
		if ctx.Err() != nil {
			// Cancelled mid-flight: leave the source claimable again rather
			// than recording a false failure.
			if markErr := o.store.MarkPending(ctx, src.ID); markErr != nil && o.logger != nil {
				o.logger.Error("failed to revert source to pending after cancellation",
					zap.Int64("source_id", src.ID), zap.Error(markErr))
			}
			return ctx.Err()
		}

		if o.logger != nil {
			o.logger.Error("source ingestion failed permanently",
				zap.String("component", "ingestion_orchestrator"),
				zap.String("event", "source_failed"),
				zap.Int64("source_id", src.ID),
				zap.String("official_id", src.OfficialID),
				zap.Error(err))
		}
		if markErr := o.store.MarkFailed(ctx, src.ID, err.Error()); markErr != nil {
			return fmt.Errorf("mark failed source %d: %w (original: %v)", src.ID, markErr, err)
		}
		metrics.IngestionsTotal.WithLabelValues("failed").Inc()
		return err
	}

	if err := o.store.MarkIngested(ctx, src.ID); err != nil {
		return fmt.Errorf("mark ingested source %d: %w", src.ID, err)
	}
	metrics.IngestionsTotal.WithLabelValues("ingested").Inc()
	return nil
}

// runPipeline performs one fetch+normalise+embed+store attempt for src.
func (o *Orchestrator) runPipeline(ctx context.Context, src models.CorpusSource) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn := o.registry.For(src.SourceURL)
	hints := connectors.FetchHints{OfficialID: src.OfficialID, UserAgent: o.userAgent, Contact: o.contact}

	fetchStart := time.Now()
	rawHTML, units, meta, err := conn.Fetch(ctx, src.SourceURL, hints)
	metrics.IngestionDuration.WithLabelValues("fetch").Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		return err // *FetchError already classified permanent/transient
	}

	normalizeStart := time.Now()
	result, err := normalize.Normalize(src, rawHTML, units, meta)
	metrics.IngestionDuration.WithLabelValues("normalize").Observe(time.Since(normalizeStart).Seconds())
	if err != nil {
		return &permanentError{err}
	}

	embedStart := time.Now()
	for i := range result.Chunks {
		vec, err := o.embedder.Embed(ctx, result.Chunks[i].Text)
		if err != nil {
			return fmt.Errorf("embed chunk %d of source %d: %w", i, src.ID, err)
		}
		result.Chunks[i].Embedding = vec
		// Dimension is already guaranteed by the adapter; Validate here
		// only re-checks the text invariants.
		if verr := result.Chunks[i].Validate(0); verr != nil {
			return &permanentError{verr}
		}
	}
	metrics.IngestionDuration.WithLabelValues("embed").Observe(time.Since(embedStart).Seconds())

	doc := models.LegalDocument{
		ID:         uuid.NewString(),
		SourceID:   src.ID,
		Title:      result.Title,
		OfficialID: result.OfficialID,
		URL:        src.SourceURL,
		Metadata: models.DocumentMetadata{
			PublicationDate: result.PublicationDate,
			Section:         meta.Section,
			IssuingBody:     meta.IssuingBody,
		},
	}

	storeStart := time.Now()
	err = o.store.UpsertDocument(ctx, src.ID, doc, result.Chunks)
	metrics.IngestionDuration.WithLabelValues("store").Observe(time.Since(storeStart).Seconds())
	if err != nil {
		if errors.Is(err, store.ErrDuplicateOfficialID) {
			return &permanentError{err}
		}
		return fmt.Errorf("store document for source %d: %w", src.ID, err)
	}

	return nil
}
