// Package rag implements the query-time orchestration: classify,
// hierarchical retrieve, assemble the prompt, generate, and shape the
// answer into the source-annotated response the HTTP layer serialises.
package rag

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"legalrag/internal/classifier"
	"legalrag/internal/metrics"
	"legalrag/internal/search"
)

// ErrGeneration marks a non-fatal generator failure: the orchestrator
// still answers, with the deterministic fallback text.
var ErrGeneration = errors.New("rag: generation failed")

const fallbackAnswerWithSources = `## Resumen
No ha sido posible generar una respuesta con el modelo de lenguaje en este momento, pero se han localizado las siguientes fuentes relevantes para tu consulta.

## Normativa aplicable
Consulta las fuentes normativas listadas a continuación.

## Criterios administrativos
Consulta las fuentes de doctrina administrativa listadas a continuación, si las hay.

## Jurisprudencia relevante
Consulta las fuentes jurisprudenciales listadas a continuación, si las hay.

## Requisitos y notas
Por favor, revisa directamente las fuentes citadas o inténtalo de nuevo más tarde.

Esta respuesta tiene carácter meramente informativo y no sustituye el asesoramiento de un profesional del derecho.`

const fallbackAnswerNoSources = `## Resumen
No ha sido posible generar una respuesta con el modelo de lenguaje en este momento, y no se ha localizado ninguna fuente normativa, administrativa o jurisprudencial aplicable a tu consulta.

## Normativa aplicable
No dispongo de información suficiente.

## Criterios administrativos
No dispongo de información suficiente.

## Jurisprudencia relevante
No dispongo de información suficiente.

## Requisitos y notas
Inténtalo de nuevo más tarde o consulta directamente a un profesional del derecho.

Esta respuesta tiene carácter meramente informativo y no sustituye el asesoramiento de un profesional del derecho.`

var greetings = map[string]bool{
	"hola": true, "buenas": true, "buenos dias": true, "buenos días": true,
	"buenas tardes": true, "buenas noches": true, "hey": true, "hi": true,
	"hello": true, "gracias": true,
}

const greetingReply = `## Resumen
¡Hola! Soy un asistente especializado en normativa legal española aplicada a artistas y profesionales de la cultura (fiscalidad, ámbito laboral, propiedad intelectual, subvenciones y materias afines). Pregúntame sobre cualquiera de estos temas y buscaré las fuentes normativas, administrativas y jurisprudenciales aplicables.

## Normativa aplicable
(sin resultados)

## Criterios administrativos
(sin resultados)

## Jurisprudencia relevante
(sin resultados)

## Requisitos y notas
Ninguno.

Esta respuesta tiene carácter meramente informativo y no sustituye el asesoramiento de un profesional del derecho.`

// SourceRecord is one source annotation attached to an Answer.
type SourceRecord struct {
	ID             string
	Category       string // "normativa" | "doctrina" | "jurisprudencia"
	Label          string // e.g. "N1", "D2", "J1"
	Snippet        string // truncated to ≤500 chars for display
	Text           string // full chunk text
	DocTitle       string
	OfficialID     string
	URL            string
	AuthorityLevel string
	Nature         string
	Score          float64
}

// Metadata carries the orchestration trace attached to an Answer.
type Metadata struct {
	Area                string
	Model               string
	NormativaCount      int
	DoctrinaCount       int
	JurisprudenciaCount int
	Duration            time.Duration
	GenerationFailed    bool
}

// Answer is the full response of AnswerQuery.
type Answer struct {
	Text     string
	Sources  []SourceRecord
	Metadata Metadata
}

// Orchestrator wires classification, hierarchical retrieval, prompt
// assembly and generation into the single AnswerQuery entrypoint.
type Orchestrator struct {
	engine     *search.Engine
	generator  Generator
	logger     *zap.Logger
}

func NewOrchestrator(engine *search.Engine, generator Generator, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{engine: engine, generator: generator, logger: logger}
}

func isGreeting(query string) bool {
	normalized := strings.ToLower(strings.TrimSpace(query))
	normalized = strings.Trim(normalized, "!¡.,¿?")
	return greetings[normalized]
}

// AnswerQuery runs the full query pipeline end to end.
func (o *Orchestrator) AnswerQuery(ctx context.Context, query string) (Answer, error) {
	start := time.Now()
	defer func() { metrics.QueryDuration.Observe(time.Since(start).Seconds()) }()

	if isGreeting(query) {
		return Answer{
			Text: greetingReply,
			Metadata: Metadata{
				Area:     string(classifier.AreaNone),
				Model:    o.generator.Model(),
				Duration: time.Since(start),
			},
		}, nil
	}

	area := classifier.Classify(query)
	metrics.QueriesByArea.WithLabelValues(string(area)).Inc()

	buckets, err := o.engine.Hierarchical(ctx, query, string(area))
	if err != nil {
		return Answer{}, err
	}

	prompt := buildPrompt(query, buckets)

	hasSources := len(buckets.Normativa) > 0 || len(buckets.Doctrina) > 0 || len(buckets.Jurisprudencia) > 0
	text := fallbackAnswerNoSources
	if hasSources {
		text = fallbackAnswerWithSources
	}
	generationFailed := false
	generated, genErr := o.generator.Complete(ctx, prompt)
	if genErr != nil {
		if o.logger != nil {
			o.logger.Warn("generation failed, serving deterministic fallback",
				zap.String("component", "rag_orchestrator"),
				zap.String("event", "generation_degraded"),
				zap.Error(genErr))
		}
		generationFailed = true
	} else if strings.TrimSpace(generated) == "" {
		generationFailed = true
	} else {
		text = generated
	}

	sources := collectSources(buckets)

	return Answer{
		Text:    text,
		Sources: sources,
		Metadata: Metadata{
			Area:                string(area),
			Model:               o.generator.Model(),
			NormativaCount:      len(buckets.Normativa),
			DoctrinaCount:       len(buckets.Doctrina),
			JurisprudenciaCount: len(buckets.Jurisprudencia),
			Duration:            time.Since(start),
			GenerationFailed:    generationFailed,
		},
	}, nil
}

const maxSnippetChars = 500

func snippet(s string) string {
	runes := []rune(s)
	if len(runes) <= maxSnippetChars {
		return s
	}
	return string(runes[:maxSnippetChars]) + "…"
}

func collectSources(buckets search.Buckets) []SourceRecord {
	var out []SourceRecord
	out = append(out, bucketSources("normativa", "N", buckets.Normativa)...)
	out = append(out, bucketSources("doctrina", "D", buckets.Doctrina)...)
	out = append(out, bucketSources("jurisprudencia", "J", buckets.Jurisprudencia)...)
	return out
}

func bucketSources(category, prefix string, results []search.Result) []SourceRecord {
	out := make([]SourceRecord, 0, len(results))
	for i, r := range results {
		out = append(out, SourceRecord{
			ID:             r.Chunk.ID,
			Category:       category,
			Label:          referenceLabel(prefix, i),
			Snippet:        snippet(r.Chunk.Text),
			Text:           r.Chunk.Text,
			DocTitle:       r.Chunk.Metadata.DocTitle,
			OfficialID:     r.Chunk.Metadata.OfficialID,
			URL:            r.Chunk.Metadata.URL,
			AuthorityLevel: string(r.Chunk.Metadata.AuthorityLevel),
			Nature:         string(r.Chunk.Metadata.Nature),
			Score:          r.Score,
		})
	}
	return out
}
