package connectors

import (
	"strings"
	"testing"
)

func TestRulingCodeFromURL(t *testing.T) {
	cases := map[string]string{
		"https://petete.tributos.hacienda.gob.es/consultas/V1234-21":  "V1234-21",
		"https://petete.tributos.hacienda.gob.es/consultas/V1234-21/": "V1234-21",
	}
	for url, want := range cases {
		if got := rulingCodeFromURL(url); got != want {
			t.Fatalf("for %q: expected %q, got %q", url, want, got)
		}
	}
}

func TestDGTBodySplitFallback(t *testing.T) {
	body := "DESCRIPCION DE HECHOS: Un artista vende obra original. CONTESTACION: Tributa como actividad económica."
	idx := strings.Index(strings.ToUpper(body), "CONTESTACION")
	if idx <= 0 {
		t.Fatalf("expected to find CONTESTACION marker")
	}
	question := strings.TrimSpace(body[:idx])
	answer := strings.TrimSpace(body[idx:])
	if !strings.Contains(question, "artista vende obra") {
		t.Fatalf("unexpected question text: %q", question)
	}
	if !strings.HasPrefix(answer, "CONTESTACION") {
		t.Fatalf("unexpected answer text: %q", answer)
	}
}
