package classifier

import "testing"

func TestClassifyFiscal(t *testing.T) {
	area := Classify("¿Qué gastos deducibles puedo aplicar en el IRPF como autónomo?")
	if area != AreaFiscal {
		t.Fatalf("expected AreaFiscal, got %q", area)
	}
}

func TestClassifyPropiedadIntelectual(t *testing.T) {
	area := Classify("¿Quién gestiona los derechos de autor de una obra derivada?")
	if area != AreaPropiedadIntelectual {
		t.Fatalf("expected AreaPropiedadIntelectual, got %q", area)
	}
}

func TestClassifyAccentInsensitive(t *testing.T) {
	withAccents := Classify("¿Cómo tributa la subvención cultural?")
	withoutAccents := Classify("Como tributa la subvencion cultural?")
	if withAccents != withoutAccents {
		t.Fatalf("expected accent-insensitive match, got %q vs %q", withAccents, withoutAccents)
	}
}

func TestClassifyNone(t *testing.T) {
	area := Classify("hola, ¿qué tal estás?")
	if area != AreaNone {
		t.Fatalf("expected AreaNone, got %q", area)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	query := "¿Qué impuestos debo declarar como autónomo?"
	first := Classify(query)
	for i := 0; i < 20; i++ {
		if got := Classify(query); got != first {
			t.Fatalf("Classify not deterministic: got %q, want %q", got, first)
		}
	}
}

func TestExtractKeywordsDropsStopwordsAndShortTokens(t *testing.T) {
	kws := ExtractKeywords("¿De qué manera se declara el IVA en la renta?")
	for _, kw := range kws {
		if len([]rune(kw)) < 4 {
			t.Fatalf("unexpected short token %q", kw)
		}
		if stopWords[kw] {
			t.Fatalf("unexpected stopword %q", kw)
		}
	}
}
