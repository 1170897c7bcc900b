package rag

import (
	"strings"
	"testing"

	"legalrag/internal/models"
	"legalrag/internal/search"
)

func TestTruncateForPromptRespectsCap(t *testing.T) {
	long := strings.Repeat("a", maxSourceChars+50)
	out := truncateForPrompt(long)
	if len([]rune(out)) != maxSourceChars+1 { // +1 for the ellipsis rune
		t.Fatalf("expected truncated length %d, got %d", maxSourceChars+1, len([]rune(out)))
	}
}

func TestTruncateForPromptLeavesShortTextUnchanged(t *testing.T) {
	short := "un texto corto"
	if out := truncateForPrompt(short); out != short {
		t.Fatalf("expected unchanged text, got %q", out)
	}
}

func TestReferenceLabel(t *testing.T) {
	if got := referenceLabel("N", 0); got != "N1" {
		t.Fatalf("expected N1, got %q", got)
	}
	if got := referenceLabel("J", 2); got != "J3" {
		t.Fatalf("expected J3, got %q", got)
	}
}

func TestBuildPromptIncludesHierarchyAndUserQuery(t *testing.T) {
	buckets := search.Buckets{
		Normativa: []search.Result{{Chunk: models.DocumentChunk{
			Text: "texto normativo", Label: "Artículo 1",
			Metadata: models.ChunkMetadata{DocTitle: "Ley X", AuthorityLevel: models.AuthorityLey},
		}}},
	}
	prompt := buildPrompt("¿Qué impuestos debo pagar?", buckets)

	if !strings.Contains(prompt, "Jerarquía normativa") {
		t.Fatalf("expected hierarchy rule in prompt")
	}
	if !strings.Contains(prompt, "no fabricación") {
		t.Fatalf("expected no-fabrication rule in prompt")
	}
	if !strings.Contains(prompt, "[Fuente N1]") {
		t.Fatalf("expected labelled normativa reference in prompt")
	}
	if !strings.Contains(prompt, "¿Qué impuestos debo pagar?") {
		t.Fatalf("expected verbatim user query in prompt")
	}
}
