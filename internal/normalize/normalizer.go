// Package normalize maps a CorpusSource plus raw connector output into the
// canonical chunk form, applying the single-chunk fallback policy
// when no structure was parseable.
package normalize

import (
	"errors"
	"strings"

	"legalrag/internal/connectors"
	"legalrag/internal/models"
)

// ErrEmptyDocument is raised when neither structural units nor a non-empty
// raw body are available. This is a permanent failure: the pipeline marks
// the source failed rather than retrying.
var ErrEmptyDocument = errors.New("normalize: source has neither structure nor text")

// Result is the canonical normalised form.
type Result struct {
	Title           string
	OfficialID      string
	PublicationDate string
	Nature          models.Nature
	Chunks          []models.DocumentChunk
}

// Normalize turns connector output into the canonical chunk list.
func Normalize(src models.CorpusSource, rawHTML string, units []connectors.StructuralUnit, meta connectors.Metadata) (Result, error) {
	res := Result{
		Title:           src.Title,
		OfficialID:      src.OfficialID,
		PublicationDate: meta.PublicationDate,
		Nature:          src.Nature,
	}

	if len(units) == 0 {
		body := models.SanitizeText(stripTags(rawHTML))
		if body == "" {
			return res, ErrEmptyDocument
		}
		res.Chunks = []models.DocumentChunk{
			fallbackChunk(src, body),
		}
		return res, nil
	}

	res.Chunks = make([]models.DocumentChunk, 0, len(units))
	for _, u := range units {
		text := models.SanitizeText(u.Text)
		if text == "" {
			continue
		}
		label := u.Label
		res.Chunks = append(res.Chunks, models.DocumentChunk{
			Kind:        models.ChunkKind(u.Kind),
			Label:       label,
			Text:        text,
			LexicalText: label + " " + text,
			Metadata: models.ChunkMetadata{
				Nature:          src.Nature,
				Area:            src.Area,
				Priority:        src.Priority,
				AuthorityLevel:  src.AuthorityLevel,
				Kind:            models.ChunkKind(u.Kind),
				Scope:           src.Scope,
				DocTitle:        src.Title,
				OfficialID:      src.OfficialID,
				URL:             src.SourceURL,
				Position:        u.Position,
				PublicationDate: meta.PublicationDate,
				IsFallback:      false,
			},
		})
	}

	if len(res.Chunks) == 0 {
		body := models.SanitizeText(stripTags(rawHTML))
		if body == "" {
			return res, ErrEmptyDocument
		}
		res.Chunks = []models.DocumentChunk{fallbackChunk(src, body)}
	}

	return res, nil
}

// fallbackChunk builds the single full_text chunk used when structural
// parsing yields zero units but a non-empty body was fetched.
func fallbackChunk(src models.CorpusSource, body string) models.DocumentChunk {
	return models.DocumentChunk{
		Kind:        models.ChunkFullText,
		Label:       src.Title,
		Text:        body,
		LexicalText: src.Title + " " + body,
		Metadata: models.ChunkMetadata{
			Nature:         src.Nature,
			Area:           src.Area,
			Priority:       src.Priority,
			AuthorityLevel: src.AuthorityLevel,
			Kind:           models.ChunkFullText,
			Scope:          src.Scope,
			DocTitle:       src.Title,
			OfficialID:     src.OfficialID,
			URL:            src.SourceURL,
			Position:       0,
			IsFallback:     true,
		},
	}
}

// stripTags removes HTML tags from connector raw bodies for the fallback
// path; structural units arrive already tag-free.
func stripTags(html string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
