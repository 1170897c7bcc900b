package models

import "testing"

func TestAuthorityLevelMultiplier(t *testing.T) {
	if AuthorityConstitucion.Multiplier() <= AuthorityLey.Multiplier() {
		t.Fatalf("Constitución must outrank Ley")
	}
	if AuthorityLey.Multiplier() <= AuthorityRealDecreto.Multiplier() {
		t.Fatalf("Ley must outrank Real Decreto")
	}
	if AuthorityDoctrinaAdministrativa.Multiplier() <= AuthorityJurisprudencia.Multiplier() {
		t.Fatalf("Doctrina administrativa must outrank Jurisprudencia")
	}
}

func TestAuthorityLevelRankOrdering(t *testing.T) {
	if AuthorityConstitucion.Rank() >= AuthorityLey.Rank() {
		t.Fatalf("Constitución must rank before Ley")
	}
	if AuthorityOther.Rank() <= AuthorityJurisprudencia.Rank() {
		t.Fatalf("unknown authority must rank last")
	}
}

func TestParseNature(t *testing.T) {
	if _, err := ParseNature("Normativa"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseNature("not-a-nature"); err == nil {
		t.Fatalf("expected error for unknown nature")
	}
}

func TestParsePriority(t *testing.T) {
	if _, err := ParsePriority("P1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParsePriority("P9"); err == nil {
		t.Fatalf("expected error for unknown priority")
	}
}

func TestParseAuthorityLevelUnknownFallsBackToOther(t *testing.T) {
	lvl, err := ParseAuthorityLevel("nonsense")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lvl != AuthorityOther {
		t.Fatalf("expected AuthorityOther, got %q", lvl)
	}
}
