package models

import "testing"

func TestSanitizeTextStripsControlBytes(t *testing.T) {
	in := "Artículo 1.\x00 Texto con\x01 control\tbytes\ny saltos."
	out := SanitizeText(in)
	if out != "Artículo 1. Texto con control\tbytes\ny saltos." {
		t.Fatalf("unexpected sanitized text: %q", out)
	}
}

func TestValidateEmptyText(t *testing.T) {
	c := DocumentChunk{Text: "   "}
	if err := c.Validate(768); err != ErrEmptyText {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestValidateDimMismatch(t *testing.T) {
	c := DocumentChunk{Text: "algo", Embedding: make([]float32, 5)}
	if err := c.Validate(768); err != ErrDimMismatch {
		t.Fatalf("expected ErrDimMismatch, got %v", err)
	}
}

func TestValidateOK(t *testing.T) {
	c := DocumentChunk{Text: "algo de texto valido", Embedding: make([]float32, 768)}
	if err := c.Validate(768); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
