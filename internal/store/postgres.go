package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"legalrag/internal/models"
)

// PostgresOptions configures the HNSW approximate index: index tuning is a
// constructor option, not something the ChunkStore interface exposes.
type PostgresOptions struct {
	Dim              int
	HNSWM            int
	HNSWEfConstruction int
}

func DefaultPostgresOptions(dim int) PostgresOptions {
	return PostgresOptions{Dim: dim, HNSWM: 16, HNSWEfConstruction: 64}
}

// PostgresStore implements ChunkStore on Postgres + pgvector.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
	opts   PostgresOptions
}

func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger, opts PostgresOptions) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &PostgresStore{db: db, logger: logger, opts: opts}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() { s.db.Close() }

func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE EXTENSION IF NOT EXISTS pgcrypto;

		CREATE TABLE IF NOT EXISTS corpus_sources (
			id BIGSERIAL PRIMARY KEY,
			official_id TEXT NOT NULL UNIQUE,
			priority TEXT NOT NULL,
			nature TEXT NOT NULL,
			area TEXT NOT NULL DEFAULT '',
			scope TEXT NOT NULL DEFAULT '',
			authority_level TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			source_url TEXT NOT NULL,
			document_kind TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT 'pending',
			claimed_at TIMESTAMPTZ,
			last_ingested_at TIMESTAMPTZ,
			last_error TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS legal_documents (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			source_id BIGINT NOT NULL UNIQUE REFERENCES corpus_sources(id),
			title TEXT NOT NULL,
			official_id TEXT NOT NULL,
			url TEXT NOT NULL,
			publication_date TEXT NOT NULL DEFAULT '',
			section TEXT NOT NULL DEFAULT '',
			issuing_body TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS document_chunks (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			document_id UUID NOT NULL REFERENCES legal_documents(id) ON DELETE CASCADE,
			position INTEGER NOT NULL DEFAULT 0,
			kind TEXT NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			embedding vector(%d),
			nature TEXT NOT NULL,
			area TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT '',
			authority_level TEXT NOT NULL DEFAULT '',
			scope TEXT NOT NULL DEFAULT '',
			doc_title TEXT NOT NULL DEFAULT '',
			official_id TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			publication_date TEXT NOT NULL DEFAULT '',
			is_fallback BOOLEAN NOT NULL DEFAULT FALSE,
			lexical_text TEXT NOT NULL,
			lexical_tsv tsvector GENERATED ALWAYS AS (to_tsvector('spanish', lexical_text)) STORED
		);

		CREATE INDEX IF NOT EXISTS idx_chunks_document ON document_chunks(document_id);
		CREATE INDEX IF NOT EXISTS idx_chunks_nature ON document_chunks(nature);
		CREATE INDEX IF NOT EXISTS idx_chunks_priority ON document_chunks(priority);
		CREATE INDEX IF NOT EXISTS idx_chunks_area ON document_chunks(area);
		CREATE INDEX IF NOT EXISTS idx_chunks_authority ON document_chunks(authority_level);
		CREATE INDEX IF NOT EXISTS idx_chunks_lexical ON document_chunks USING GIN(lexical_tsv);
		CREATE INDEX IF NOT EXISTS idx_chunks_hnsw ON document_chunks
			USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);
	`, s.opts.Dim, s.opts.HNSWM, s.opts.HNSWEfConstruction)

	_, err := s.db.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	s.logger.Info("schema initialised", zap.Int("embedding_dim", s.opts.Dim))
	return nil
}

// UpsertDocument replaces any existing document for srcID and all of its
// chunks within a single transaction: no window in which a source has an
// orphaned document or partial chunk set.
func (s *PostgresStore) UpsertDocument(ctx context.Context, srcID int64, doc models.LegalDocument, chunks []models.DocumentChunk) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var existingID string
	err = tx.QueryRow(ctx, `SELECT id FROM legal_documents WHERE source_id = $1`, srcID).Scan(&existingID)
	if err == nil {
		if _, err := tx.Exec(ctx, `DELETE FROM legal_documents WHERE id = $1`, existingID); err != nil {
			return fmt.Errorf("delete prior document: %w", err)
		}
	} else if err != pgx.ErrNoRows {
		return fmt.Errorf("lookup prior document: %w", err)
	}

	var conflict string
	err = tx.QueryRow(ctx,
		`SELECT id::text FROM corpus_sources WHERE official_id = $1 AND id != $2`,
		doc.OfficialID, srcID).Scan(&conflict)
	if err == nil {
		return ErrDuplicateOfficialID
	} else if err != pgx.ErrNoRows {
		return fmt.Errorf("check official_id uniqueness: %w", err)
	}

	var docID string
	err = tx.QueryRow(ctx, `
		INSERT INTO legal_documents (source_id, title, official_id, url, publication_date, section, issuing_body)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, srcID, doc.Title, doc.OfficialID, doc.URL,
		doc.Metadata.PublicationDate, doc.Metadata.Section, doc.Metadata.IssuingBody).Scan(&docID)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	for i, c := range chunks {
		var emb *pgvector.Vector
		if len(c.Embedding) > 0 {
			v := pgvector.NewVector(c.Embedding)
			emb = &v
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO document_chunks
				(document_id, position, kind, label, text, embedding,
				 nature, area, priority, authority_level, scope,
				 doc_title, official_id, url, publication_date, is_fallback, lexical_text)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		`, docID, i, string(c.Kind), c.Label, c.Text, emb,
			string(c.Metadata.Nature), c.Metadata.Area, string(c.Metadata.Priority),
			string(c.Metadata.AuthorityLevel), c.Metadata.Scope,
			c.Metadata.DocTitle, c.Metadata.OfficialID, c.Metadata.URL,
			c.Metadata.PublicationDate, c.Metadata.IsFallback, c.LexicalText)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

func appendFilter(query string, filter Filter, args []interface{}) (string, []interface{}) {
	idx := len(args)
	var clauses []string
	if filter.Nature != "" {
		idx++
		args = append(args, string(filter.Nature))
		clauses = append(clauses, fmt.Sprintf("nature = $%d", idx))
	}
	if filter.Area != "" {
		idx++
		args = append(args, filter.Area)
		clauses = append(clauses, fmt.Sprintf("area = $%d", idx))
	}
	if filter.Priority != "" {
		idx++
		args = append(args, string(filter.Priority))
		clauses = append(clauses, fmt.Sprintf("priority = $%d", idx))
	}
	if filter.AuthorityLevel != "" {
		idx++
		args = append(args, string(filter.AuthorityLevel))
		clauses = append(clauses, fmt.Sprintf("authority_level = $%d", idx))
	}
	if len(clauses) > 0 {
		query += " AND " + strings.Join(clauses, " AND ")
	}
	return query, args
}

// VectorSearch returns chunks ordered by cosine distance ascending.
func (s *PostgresStore) VectorSearch(ctx context.Context, qVec []float32, filter Filter, k int) ([]ScoredChunk, error) {
	q := `
		SELECT id, document_id, position, kind, label, text, embedding,
			nature, area, priority, authority_level, scope, doc_title, official_id, url,
			publication_date, is_fallback, lexical_text, (embedding <=> $1) AS distance
		FROM document_chunks
		WHERE embedding IS NOT NULL`
	args := []interface{}{pgvector.NewVector(qVec)}
	q, args = appendFilter(q, filter, args)
	q += fmt.Sprintf(" ORDER BY distance ASC LIMIT %d", k)

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()
	return scanScoredChunks(rows, true)
}

// LexicalSearch returns chunks ordered by Spanish-stemmed ts_rank descending.
func (s *PostgresStore) LexicalSearch(ctx context.Context, qText string, filter Filter, k int) ([]ScoredChunk, error) {
	q := `
		SELECT id, document_id, position, kind, label, text, embedding,
			nature, area, priority, authority_level, scope, doc_title, official_id, url,
			publication_date, is_fallback, lexical_text,
			ts_rank(lexical_tsv, plainto_tsquery('spanish', $1)) AS rank
		FROM document_chunks
		WHERE lexical_tsv @@ plainto_tsquery('spanish', $1)`
	args := []interface{}{qText}
	q, args = appendFilter(q, filter, args)
	q += fmt.Sprintf(" ORDER BY rank DESC LIMIT %d", k)

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	defer rows.Close()
	return scanScoredChunks(rows, false)
}

func scanScoredChunks(rows pgx.Rows, isDistance bool) ([]ScoredChunk, error) {
	var out []ScoredChunk
	for rows.Next() {
		var c models.DocumentChunk
		var emb *pgvector.Vector
		var kind, nature, priority, authority string
		var score float64
		err := rows.Scan(&c.ID, &c.DocumentID, &c.Metadata.Position, &kind, &c.Label, &c.Text, &emb,
			&nature, &c.Metadata.Area, &priority, &authority, &c.Metadata.Scope,
			&c.Metadata.DocTitle, &c.Metadata.OfficialID, &c.Metadata.URL,
			&c.Metadata.PublicationDate, &c.Metadata.IsFallback, &c.LexicalText, &score)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.Kind = models.ChunkKind(kind)
		c.Metadata.Nature = models.Nature(nature)
		c.Metadata.Priority = models.Priority(priority)
		c.Metadata.AuthorityLevel = models.AuthorityLevel(authority)
		c.Metadata.Kind = c.Kind
		if emb != nil {
			c.Embedding = emb.Slice()
		}
		out = append(out, ScoredChunk{Chunk: c, Score: score})
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetDocument(ctx context.Context, officialID string) (models.LegalDocument, []models.DocumentChunk, error) {
	var doc models.LegalDocument
	err := s.db.QueryRow(ctx, `
		SELECT id, source_id, title, official_id, url, publication_date, section, issuing_body
		FROM legal_documents WHERE official_id = $1
	`, officialID).Scan(&doc.ID, &doc.SourceID, &doc.Title, &doc.OfficialID, &doc.URL,
		&doc.Metadata.PublicationDate, &doc.Metadata.Section, &doc.Metadata.IssuingBody)
	if err == pgx.ErrNoRows {
		return doc, nil, ErrNotFound
	} else if err != nil {
		return doc, nil, fmt.Errorf("get document: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, document_id, position, kind, label, text, embedding,
			nature, area, priority, authority_level, scope, doc_title, official_id, url,
			publication_date, is_fallback, lexical_text, 0
		FROM document_chunks WHERE document_id = $1 ORDER BY position ASC
	`, doc.ID)
	if err != nil {
		return doc, nil, fmt.Errorf("get chunks: %w", err)
	}
	defer rows.Close()
	scored, err := scanScoredChunks(rows, false)
	if err != nil {
		return doc, nil, err
	}
	chunks := make([]models.DocumentChunk, len(scored))
	for i, sc := range scored {
		chunks[i] = sc.Chunk
	}
	return doc, chunks, nil
}

func (s *PostgresStore) ListSources(ctx context.Context, filter SourceFilter, page Page) ([]models.CorpusSource, error) {
	q := `SELECT id, official_id, priority, nature, area, scope, authority_level,
		title, source_url, document_kind, state, claimed_at, last_ingested_at, last_error
		FROM corpus_sources WHERE 1=1`
	var args []interface{}
	idx := 0
	addEq := func(col, val string) {
		if val == "" {
			return
		}
		idx++
		args = append(args, val)
		q += fmt.Sprintf(" AND %s = $%d", col, idx)
	}
	addEq("priority", string(filter.Priority))
	addEq("nature", string(filter.Nature))
	addEq("area", filter.Area)
	addEq("state", string(filter.State))

	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}
	idx++
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY id ASC LIMIT $%d", idx)
	idx++
	args = append(args, page.Offset)
	q += fmt.Sprintf(" OFFSET $%d", idx)

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var out []models.CorpusSource
	for rows.Next() {
		var src models.CorpusSource
		var priority, nature, authority, state string
		if err := rows.Scan(&src.ID, &src.OfficialID, &priority, &nature, &src.Area, &src.Scope,
			&authority, &src.Title, &src.SourceURL, &src.DocumentKind, &state,
			&src.ClaimedAt, &src.LastIngestedAt, &src.LastError); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		src.Priority = models.Priority(priority)
		src.Nature = models.Nature(nature)
		src.AuthorityLevel = models.AuthorityLevel(authority)
		src.State = models.SourceState(state)
		out = append(out, src)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetSource(ctx context.Context, id int64) (models.CorpusSource, error) {
	var src models.CorpusSource
	var priority, nature, authority, state string
	err := s.db.QueryRow(ctx, `
		SELECT id, official_id, priority, nature, area, scope, authority_level,
			title, source_url, document_kind, state, claimed_at, last_ingested_at, last_error
		FROM corpus_sources WHERE id = $1
	`, id).Scan(&src.ID, &src.OfficialID, &priority, &nature, &src.Area, &src.Scope,
		&authority, &src.Title, &src.SourceURL, &src.DocumentKind, &state,
		&src.ClaimedAt, &src.LastIngestedAt, &src.LastError)
	if err == pgx.ErrNoRows {
		return src, ErrNotFound
	} else if err != nil {
		return src, fmt.Errorf("get source: %w", err)
	}
	src.Priority = models.Priority(priority)
	src.Nature = models.Nature(nature)
	src.AuthorityLevel = models.AuthorityLevel(authority)
	src.State = models.SourceState(state)
	return src, nil
}

// ClaimPendingSources atomically transitions pending sources at priority to
// ingesting and returns them, so that concurrent workers never double-claim
// the same source.
func (s *PostgresStore) ClaimPendingSources(ctx context.Context, priority models.Priority) ([]models.CorpusSource, error) {
	rows, err := s.db.Query(ctx, `
		UPDATE corpus_sources SET state = 'ingesting', claimed_at = NOW()
		WHERE id IN (
			SELECT id FROM corpus_sources
			WHERE state = 'pending' AND priority = $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, official_id, priority, nature, area, scope, authority_level,
			title, source_url, document_kind, state, claimed_at, last_ingested_at, last_error
	`, string(priority))
	if err != nil {
		return nil, fmt.Errorf("claim pending sources: %w", err)
	}
	defer rows.Close()

	var out []models.CorpusSource
	for rows.Next() {
		var src models.CorpusSource
		var p, n, a, st string
		if err := rows.Scan(&src.ID, &src.OfficialID, &p, &n, &src.Area, &src.Scope,
			&a, &src.Title, &src.SourceURL, &src.DocumentKind, &st,
			&src.ClaimedAt, &src.LastIngestedAt, &src.LastError); err != nil {
			return nil, fmt.Errorf("scan claimed source: %w", err)
		}
		src.Priority, src.Nature, src.AuthorityLevel, src.State = models.Priority(p), models.Nature(n), models.AuthorityLevel(a), models.SourceState(st)
		out = append(out, src)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkIngesting(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `UPDATE corpus_sources SET state = 'ingesting', claimed_at = NOW() WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) MarkIngested(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `UPDATE corpus_sources SET state = 'ingested', last_ingested_at = $2, last_error = '' WHERE id = $1`, id, time.Now())
	return err
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id int64, cause string) error {
	_, err := s.db.Exec(ctx, `UPDATE corpus_sources SET state = 'failed', last_error = $2 WHERE id = $1`, id, cause)
	return err
}

func (s *PostgresStore) MarkPending(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `UPDATE corpus_sources SET state = 'pending', claimed_at = NULL WHERE id = $1`, id)
	return err
}

// ReclaimStaleIngesting returns sources stuck in `ingesting` past the
// heartbeat back to `pending`, for the janitor to pick up.
func (s *PostgresStore) ReclaimStaleIngesting(ctx context.Context, olderThanSeconds int64) (int, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE corpus_sources SET state = 'pending', claimed_at = NULL
		WHERE state = 'ingesting'
		AND claimed_at < NOW() - ($1 || ' seconds')::interval
	`, olderThanSeconds)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale ingesting: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
