package retrieval

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Vectorizer maps text to fixed-dimension feature vectors by hashing
// terms into buckets (feature hashing). The vectors are deterministic and
// need no model, which keeps ingestion fully offline; cosine distance over
// them approximates term-overlap similarity.
type Vectorizer struct {
	dim int
}

// NewVectorizer creates a vectorizer producing vectors of the given
// dimension. Dimensions below 64 lose too much to bucket collisions.
func NewVectorizer(dim int) *Vectorizer {
	return &Vectorizer{dim: dim}
}

// Dim returns the vector dimension.
func (v *Vectorizer) Dim() int {
	return v.dim
}

// Vectorize converts text to an L2-normalised term-frequency vector.
// Returns a zero vector for text with no significant terms.
func (v *Vectorizer) Vectorize(text string) []float32 {
	vec := make([]float32, v.dim)

	for _, term := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(term))
		vec[int(h.Sum32())%v.dim]++
	}

	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

// tokenize lowercases, strips punctuation and drops stop words. Instrument
// numbers like "18-05" survive because '-' between digits is kept.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		term := current.String()
		current.Reset()
		if len(term) > 1 && !isStopWord(term) {
			terms = append(terms, term)
		}
	}

	runes := []rune(strings.ToLower(text))
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(r)
		case r == '-' && i > 0 && i+1 < len(runes) &&
			unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]):
			current.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return terms
}
