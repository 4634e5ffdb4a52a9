package retrieval

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/brunobiangulo/legigraph/store"
)

// ---------------------------------------------------------------------------
// Vectorizer
// ---------------------------------------------------------------------------

func TestVectorizeDeterministic(t *testing.T) {
	v := NewVectorizer(64)
	a := v.Vectorize("la loi n° 18-05 relative au commerce électronique")
	b := v.Vectorize("la loi n° 18-05 relative au commerce électronique")
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical text produced different vectors")
	}
}

func TestVectorizeNormalised(t *testing.T) {
	v := NewVectorizer(64)
	vec := v.Vectorize("décret exécutif portant organisation des archives nationales")

	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("squared norm = %v, want 1.0", norm)
	}
}

func TestVectorizeEmptyText(t *testing.T) {
	v := NewVectorizer(64)
	vec := v.Vectorize("")
	if len(vec) != 64 {
		t.Fatalf("dimension = %d, want 64", len(vec))
	}
	for i, x := range vec {
		if x != 0 {
			t.Fatalf("component %d = %v, want 0", i, x)
		}
	}
}

func TestVectorizeSimilarity(t *testing.T) {
	v := NewVectorizer(256)
	base := v.Vectorize("abrogation de la loi relative aux archives nationales")
	near := v.Vectorize("la loi relative aux archives nationales est abrogée par décret")
	far := v.Vectorize("fixation des tarifs douaniers applicables aux importations de céréales")

	if dot(base, near) <= dot(base, far) {
		t.Errorf("topically close text not closer: near=%v far=%v",
			dot(base, near), dot(base, far))
	}
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestTokenizeKeepsInstrumentNumbers(t *testing.T) {
	terms := tokenize("vu la loi n° 18-05 du 10 mai 2018")
	joined := strings.Join(terms, " ")
	if !strings.Contains(joined, "18-05") {
		t.Errorf("instrument number lost: %v", terms)
	}
	for _, term := range terms {
		if term == "la" || term == "du" || term == "vu" {
			t.Errorf("stop word %q not filtered", term)
		}
	}
}

// ---------------------------------------------------------------------------
// RRF fusion
// ---------------------------------------------------------------------------

func res(id int64, heading string) store.RetrievalResult {
	return store.RetrievalResult{SectionID: id, Heading: heading}
}

func TestFuseRRFOverlap(t *testing.T) {
	vec := []store.RetrievalResult{res(1, "a"), res(2, "b")}
	fts := []store.RetrievalResult{res(2, "b"), res(3, "c")}

	fused, info := fuseRRF(vec, fts, 1.0, 1.0, 10)

	if len(fused) != 3 {
		t.Fatalf("expected 3 fused results, got %d", len(fused))
	}
	// Section 2 appears in both sets and must rank first.
	if fused[0].SectionID != 2 {
		t.Errorf("top result = %d, want 2", fused[0].SectionID)
	}

	i := info[2]
	if len(i.Methods) != 2 || i.VecRank != 2 || i.FTSRank != 1 {
		t.Errorf("contribution info for section 2 = %+v", i)
	}
}

func TestFuseRRFWeights(t *testing.T) {
	vec := []store.RetrievalResult{res(1, "vec-only")}
	fts := []store.RetrievalResult{res(2, "fts-only")}

	fused, _ := fuseRRF(vec, fts, 0.1, 2.0, 10)
	if fused[0].SectionID != 2 {
		t.Errorf("FTS-weighted result should win, got section %d", fused[0].SectionID)
	}
}

func TestFuseRRFLimit(t *testing.T) {
	var vec []store.RetrievalResult
	for i := int64(1); i <= 30; i++ {
		vec = append(vec, res(i, ""))
	}
	fused, _ := fuseRRF(vec, nil, 1.0, 1.0, 5)
	if len(fused) != 5 {
		t.Errorf("expected 5 results, got %d", len(fused))
	}
}

func TestFuseRRFEmpty(t *testing.T) {
	fused, info := fuseRRF(nil, nil, 1.0, 1.0, 10)
	if len(fused) != 0 || len(info) != 0 {
		t.Errorf("expected empty fusion, got %v %v", fused, info)
	}
}

// ---------------------------------------------------------------------------
// Query handling
// ---------------------------------------------------------------------------

func TestDetectInstrumentNumbers(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"loi n° 18-05", true},
		{"décret 93-01 marchés publics", true},
		{"journal officiel n° 37", true},
		{"organisation des archives nationales", false},
		{"abrogation du code de la famille", false},
	}
	for _, tt := range tests {
		if got := detectInstrumentNumbers(tt.query); got != tt.want {
			t.Errorf("detectInstrumentNumbers(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestSanitizeFTSQuery(t *testing.T) {
	got := sanitizeFTSQuery(`loi "18-05" commerce électronique`)

	if strings.ContainsAny(got, "*^:?[]{}!") {
		t.Errorf("FTS special characters not stripped: %q", got)
	}
	if !strings.Contains(got, " OR ") {
		t.Errorf("expected OR query, got %q", got)
	}
	if !strings.Contains(got, `"18 05"`) {
		t.Errorf("instrument number not phrase-quoted: %q", got)
	}
}

func TestSanitizeFTSQueryEmpty(t *testing.T) {
	if got := sanitizeFTSQuery(""); got != "" {
		t.Errorf("sanitizeFTSQuery(\"\") = %q", got)
	}
}
