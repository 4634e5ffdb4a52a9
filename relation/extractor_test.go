package relation

import (
	"reflect"
	"regexp"
	"testing"
)

// ---------------------------------------------------------------------------
// Extraction scenarios
// ---------------------------------------------------------------------------

func TestAnalyzeCitation(t *testing.T) {
	text := "vu la loi n° 18-05 du 10 mai 2018 relative au commerce électronique"

	rels := AnalyzeRelationships(text, nil)

	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d: %+v", len(rels), rels)
	}

	rel := rels[0]
	if rel.Kind != KindVu {
		t.Errorf("Kind = %q, want %q", rel.Kind, KindVu)
	}
	if rel.Target.Type != "loi" {
		t.Errorf("Target.Type = %q, want %q", rel.Target.Type, "loi")
	}
	if rel.Target.Number != "18-05" {
		t.Errorf("Target.Number = %q, want %q", rel.Target.Number, "18-05")
	}
	// Base 0.70 + numeric shape 0.10 + canonical type 0.10 + vu 0.05.
	if rel.Confidence < 0.95 {
		t.Errorf("Confidence = %v, want >= 0.95", rel.Confidence)
	}
	if rel.Target.Date == nil || rel.Target.Date.Gregorian != "10 mai 2018" {
		t.Errorf("Target.Date = %+v, want Gregorian %q", rel.Target.Date, "10 mai 2018")
	}
	if rel.Source.Type != "unknown" || rel.Source.Number != "current" {
		t.Errorf("default source = %+v, want {unknown current}", rel.Source)
	}
	if rel.Position.StartIndex != 0 || rel.Position.EndIndex != len(text) {
		t.Errorf("Position = %+v, want [0, %d)", rel.Position, len(text))
	}
}

func TestAnalyzeFullRepeal(t *testing.T) {
	rels := AnalyzeRelationships("la loi n° 90-10 est abrogée", nil)

	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d: %+v", len(rels), rels)
	}
	rel := rels[0]
	if rel.Kind != KindAbrogation {
		t.Fatalf("Kind = %q, want %q", rel.Kind, KindAbrogation)
	}
	if rel.Details == nil || rel.Details.PartialAbrogation == nil {
		t.Fatal("repeal must carry a PartialAbrogation flag")
	}
	if *rel.Details.PartialAbrogation {
		t.Error("PartialAbrogation = true, want false (no articles sub-phrase)")
	}
	// Base 0.70 + numeric shape 0.10 + canonical type 0.10 + repeal 0.10.
	if rel.Confidence < 0.99 || rel.Confidence > 1.0 {
		t.Errorf("Confidence = %v, want ~1.0", rel.Confidence)
	}
}

func TestAnalyzePartialRepeal(t *testing.T) {
	rels := AnalyzeRelationships("abrogé les articles 5 et 7 de la loi n° 84-17", nil)

	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d: %+v", len(rels), rels)
	}
	rel := rels[0]
	if rel.Kind != KindAbrogation {
		t.Fatalf("Kind = %q, want %q", rel.Kind, KindAbrogation)
	}
	if rel.Target.Type != "loi" || rel.Target.Number != "84-17" {
		t.Errorf("target = %s %s, want loi 84-17", rel.Target.Type, rel.Target.Number)
	}
	if rel.Details == nil || rel.Details.PartialAbrogation == nil || !*rel.Details.PartialAbrogation {
		t.Fatalf("expected PartialAbrogation = true, got %+v", rel.Details)
	}
	want := []string{"5", "7"}
	if !reflect.DeepEqual(rel.Details.ArticlesAffected, want) {
		t.Errorf("ArticlesAffected = %v, want %v", rel.Details.ArticlesAffected, want)
	}
}

func TestAnalyzeKinds(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantKind   Kind
		wantType   string
		wantNumber string
	}{
		{
			name:       "vu presidential decree",
			text:       "vu le décret présidentiel n° 15-125 portant nomination des membres du Gouvernement",
			wantKind:   KindVu,
			wantType:   "décret présidentiel",
			wantNumber: "15-125",
		},
		{
			name:       "amendment",
			text:       "modifié et complété la loi n° 84-11 portant code de la famille",
			wantKind:   KindModification,
			wantType:   "loi",
			wantNumber: "84-11",
		},
		{
			name:       "annulment",
			text:       "annulé le décret n° 93-01 relatif aux marchés publics",
			wantKind:   KindAbrogation,
			wantType:   "décret",
			wantNumber: "93-01",
		},
		{
			name:       "approval",
			text:       "approuvé par le décret n° 02-250 du 24 juillet 2002",
			wantKind:   KindApprobation,
			wantType:   "décret",
			wantNumber: "02-250",
		},
		{
			name:       "conformity control",
			text:       "contrôle de conformité de la loi n° 16-01 portant révision",
			wantKind:   KindControle,
			wantType:   "loi",
			wantNumber: "16-01",
		},
		{
			name:       "extension",
			text:       "application de la loi n° 08-09 aux juridictions administratives.",
			wantKind:   KindExtension,
			wantType:   "loi",
			wantNumber: "08-09",
		},
		{
			name:       "annex",
			text:       "annexe à l'ordonnance n° 66-156 portant code pénal",
			wantKind:   KindAnnexe,
			wantType:   "ordonnance",
			wantNumber: "66-156",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rels := AnalyzeRelationships(tt.text, nil)
			if len(rels) == 0 {
				t.Fatalf("no relationships found in %q", tt.text)
			}
			rel := rels[0]
			if rel.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", rel.Kind, tt.wantKind)
			}
			if rel.Target.Type != tt.wantType {
				t.Errorf("Target.Type = %q, want %q", rel.Target.Type, tt.wantType)
			}
			if rel.Target.Number != tt.wantNumber {
				t.Errorf("Target.Number = %q, want %q", rel.Target.Number, tt.wantNumber)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Structural properties
// ---------------------------------------------------------------------------

func TestAnalyzeEmptyInput(t *testing.T) {
	rels := AnalyzeRelationships("", nil)
	if len(rels) != 0 {
		t.Fatalf("empty input: expected no relationships, got %d", len(rels))
	}
}

func TestAnalyzeNoMatch(t *testing.T) {
	rels := AnalyzeRelationships("texte ordinaire sans aucune référence juridique", nil)
	if len(rels) != 0 {
		t.Fatalf("expected no relationships, got %+v", rels)
	}
}

func TestAnalyzeSortedByPosition(t *testing.T) {
	text := "vu la loi n° 18-05 du 10 mai 2018; " +
		"abrogé le décret n° 93-01; " +
		"modifié la loi n° 84-11; " +
		"approuvé par le décret n° 02-250"

	rels := AnalyzeRelationships(text, nil)
	if len(rels) < 4 {
		t.Fatalf("expected at least 4 relationships, got %d", len(rels))
	}
	for i := 1; i < len(rels); i++ {
		if rels[i].Position.StartIndex < rels[i-1].Position.StartIndex {
			t.Fatalf("relationships not sorted at %d: %d < %d",
				i, rels[i].Position.StartIndex, rels[i-1].Position.StartIndex)
		}
	}
}

func TestAnalyzeConfidenceBounds(t *testing.T) {
	text := "vu la loi n° 18-05; abrogé la loi n° 90-10; " +
		"modifié l'ordonnance n° 66-156; annexe à la loi n° 05-07; " +
		"application de la loi n° 08-09 aux wilayas du sud."

	for _, rel := range AnalyzeRelationships(text, nil) {
		if rel.Confidence < 0 || rel.Confidence > 1 {
			t.Errorf("confidence out of [0,1]: %v for %q", rel.Confidence, rel.Description)
		}
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	text := "vu la loi n° 18-05 du 10 mai 2018; la loi n° 90-10 est abrogée; " +
		"modification de la loi n° 85-05 relative à la santé"

	first := AnalyzeRelationships(text, nil)
	second := AnalyzeRelationships(text, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated analysis of identical input produced different output")
	}
}

// Overlapping matches of different kinds are both kept; deduplication
// across kinds would lose semantically distinct links.
func TestAnalyzeOverlappingKindsNotDeduplicated(t *testing.T) {
	text := "la modification de la loi n° 85-05 est abrogée"

	rels := AnalyzeRelationships(text, nil)
	kinds := make(map[Kind]int)
	for _, rel := range rels {
		kinds[rel.Kind]++
	}
	if kinds[KindModification] != 1 || kinds[KindAbrogation] != 1 {
		t.Fatalf("expected one modification and one abrogation, got %v", kinds)
	}
}

func TestAnalyzeSourceDocumentPropagated(t *testing.T) {
	source := &DocumentRef{Type: "décret", Number: "23-101"}
	rels := AnalyzeRelationships("vu la loi n° 18-05 du 10 mai 2018", source)
	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(rels))
	}
	if rels[0].Source.Type != "décret" || rels[0].Source.Number != "23-101" {
		t.Errorf("source = %+v, want décret 23-101", rels[0].Source)
	}
}

// A custom catalog swaps the linguistic patterns without touching the
// extraction algorithm.
func TestAnalyzeWithCustomCatalog(t *testing.T) {
	catalog := []Pattern{
		{Kind: KindVu, Re: regexp.MustCompile(`(?i)\bseen\s+(act)\s+no\.\s*([\d\-]+)`)},
	}
	rels := AnalyzeWithCatalog("seen act no. 12-34 on trade", nil, catalog)
	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(rels))
	}
	if rels[0].Target.Type != "act" || rels[0].Target.Number != "12-34" {
		t.Errorf("target = %+v, want act 12-34", rels[0].Target)
	}
}
