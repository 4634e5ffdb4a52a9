package relation

import (
	"log/slog"
	"sort"
	"strings"
)

// AnalyzeRelationships scans text against the default pattern catalog and
// returns every detected cross-reference, sorted ascending by start index.
// source identifies the document being analyzed; nil means unidentified and
// the {unknown, current} sentinel is used.
//
// The function never panics to its caller: an unresolvable or malformed
// match is dropped and the scan continues, and a failure escaping the scan
// loop yields whatever relationships had been accumulated so far. Matches
// are NOT deduplicated across kinds — two patterns matching the same span
// produce two relationships.
func AnalyzeRelationships(text string, source *DocumentRef) []Relationship {
	return AnalyzeWithCatalog(text, source, defaultCatalog)
}

// AnalyzeWithCatalog is AnalyzeRelationships over a caller-supplied catalog.
func AnalyzeWithCatalog(text string, source *DocumentRef, catalog []Pattern) (relationships []Relationship) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("relation: analysis aborted, returning partial results",
				"panic", r, "found", len(relationships))
		}
	}()

	for _, p := range catalog {
		for _, loc := range p.Re.FindAllStringSubmatchIndex(text, -1) {
			rel, ok := parseMatch(text, loc, p, source)
			if !ok {
				continue
			}
			relationships = append(relationships, rel)
		}
	}

	// Stable: ties between distinct kinds over the same span keep catalog
	// enumeration order, so output is reproducible.
	sort.SliceStable(relationships, func(i, j int) bool {
		return relationships[i].Position.StartIndex < relationships[j].Position.StartIndex
	})

	return relationships
}

// parseMatch converts one regex match into a relationship. A match without
// a resolvable target document is dropped; any panic while reading capture
// groups drops only this match.
func parseMatch(text string, loc []int, p Pattern, source *DocumentRef) (rel Relationship, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("relation: dropping malformed match", "kind", p.Kind, "error", r)
			ok = false
		}
	}()

	matchText := text[loc[0]:loc[1]]

	target, resolved := resolveTarget(text, loc, p)
	if !resolved {
		slog.Debug("relation: match without document number, skipping",
			"kind", p.Kind, "match", matchText)
		return Relationship{}, false
	}

	src := defaultSource()
	if source != nil {
		src = *source
	}

	return Relationship{
		Kind:        p.Kind,
		Source:      src,
		Target:      target,
		Description: strings.TrimSpace(matchText),
		Confidence:  scoreConfidence(target, p.Kind),
		Position:    TextPosition{StartIndex: loc[0], EndIndex: loc[1]},
		Details:     extractDetails(matchText, p.Kind),
	}, true
}

// group returns capture group n of a FindAllStringSubmatchIndex location,
// or "" when the group is absent or did not participate in the match.
func group(text string, loc []int, n int) string {
	if n <= 0 || 2*n+1 >= len(loc) || loc[2*n] < 0 {
		return ""
	}
	return text[loc[2*n]:loc[2*n+1]]
}
