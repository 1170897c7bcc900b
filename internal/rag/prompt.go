package rag

import (
	"fmt"
	"strings"

	"legalrag/internal/search"
)

const maxSourceChars = 900 // within the 800-1000 char display cap

const systemPreamble = `Eres un asistente jurídico especializado en derecho español aplicado a artistas y profesionales de la cultura.
Respondes únicamente con la información de las fuentes recuperadas a continuación.

Jerarquía normativa: la Normativa prevalece sobre la Doctrina administrativa, que a su vez prevalece sobre la Jurisprudencia. Una fuente de menor rango nunca puede contradecir a una de rango superior; si hay conflicto, sigue siempre la fuente de mayor jerarquía.

Regla de no fabricación: si ninguna fuente recuperada respalda una afirmación, debes admitir explícitamente que no dispones de información suficiente. Nunca inventes artículos, cifras o citas.

Estructura tu respuesta exactamente con las siguientes secciones:
## Resumen
## Normativa aplicable
## Criterios administrativos
## Jurisprudencia relevante
## Requisitos y notas

Termina siempre con el siguiente aviso:
"Esta respuesta tiene carácter meramente informativo y no sustituye el asesoramiento de un profesional del derecho."
`

// truncateForPrompt caps chunk text at the 800-1000 char display limit.
func truncateForPrompt(s string) string {
	runes := []rune(s)
	if len(runes) <= maxSourceChars {
		return s
	}
	return string(runes[:maxSourceChars]) + "…"
}

// referenceLabel builds the N1/D1/J1 reference labels used both inside the
// prompt's [Fuente ...] markers and in the rendered source records.
func referenceLabel(bucketPrefix string, index int) string {
	return fmt.Sprintf("%s%d", bucketPrefix, index+1)
}

func renderBucket(title, prefix string, results []search.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("%s: (sin resultados)\n", title)
	}
	var sb strings.Builder
	sb.WriteString(title + ":\n")
	for i, r := range results {
		label := referenceLabel(prefix, i)
		sb.WriteString(fmt.Sprintf("[Fuente %s] %s — %s (%s): %s\n",
			label, r.Chunk.Metadata.DocTitle, r.Chunk.Label,
			r.Chunk.Metadata.AuthorityLevel, truncateForPrompt(r.Chunk.Text)))
	}
	return sb.String()
}

// buildPrompt assembles the full prompt: system role + hierarchy rule +
// no-fabrication rule + output template (all in
// systemPreamble), then each bucket serialised with labelled references,
// then the verbatim user query.
func buildPrompt(query string, buckets search.Buckets) string {
	var sb strings.Builder
	sb.WriteString(systemPreamble)
	sb.WriteString("\n--- Fuentes recuperadas ---\n\n")
	sb.WriteString(renderBucket("Normativa", "N", buckets.Normativa))
	sb.WriteString("\n")
	sb.WriteString(renderBucket("Doctrina", "D", buckets.Doctrina))
	sb.WriteString("\n")
	sb.WriteString(renderBucket("Jurisprudencia", "J", buckets.Jurisprudencia))
	sb.WriteString("\n--- Pregunta del usuario ---\n")
	sb.WriteString(query)
	sb.WriteString("\n")
	return sb.String()
}
