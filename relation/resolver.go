package relation

import (
	"regexp"
	"strings"
)

// contextWindow is how many characters on each side of a match are searched
// for dates and the issuing authority. Fixed balance between recall and
// false-positive date attribution.
const contextWindow = 200

// resolveTarget recovers the referenced document from a regex match and its
// surrounding context. Resolution fails when the pattern captured no
// document number.
func resolveTarget(text string, loc []int, p Pattern) (DocumentRef, bool) {
	docType := strings.ToLower(group(text, loc, p.typeGroup()))
	if docType == "" {
		docType = "unknown"
	}

	number := group(text, loc, p.numberGroup())
	if number == "" {
		return DocumentRef{}, false
	}

	// Local search window: 200 chars before and after, plus the match.
	wStart := loc[0] - contextWindow
	if wStart < 0 {
		wStart = 0
	}
	wEnd := loc[1] + contextWindow
	if wEnd > len(text) {
		wEnd = len(text)
	}
	window := text[wStart:wEnd]

	return DocumentRef{
		Type:             docType,
		Number:           number,
		Date:             extractDates(window),
		IssuingAuthority: extractAuthority(window),
	}, true
}

// extractDates searches the window for Gregorian and Hijri dates. When only
// a "correspondant au ..." phrasing carries the Gregorian equivalent, that
// date is used as the Gregorian value. Returns nil when neither calendar is
// present.
func extractDates(window string) *DocumentDate {
	d := DocumentDate{}

	if m := gregorianDatePattern.FindStringSubmatch(window); m != nil {
		d.Gregorian = m[1] + " " + m[2] + " " + m[3]
	}
	if m := hijriDatePattern.FindString(window); m != "" {
		d.Hijri = m
	}
	if d.Gregorian == "" {
		if m := correspondenceDatePattern.FindStringSubmatch(window); m != nil {
			d.Gregorian = m[1] + " " + m[2] + " " + m[3]
		}
	}

	if d.Gregorian == "" && d.Hijri == "" {
		return nil
	}
	return &d
}

// extractAuthority returns the first institutional name found in the
// window, or "" when none of the known institutions appear.
func extractAuthority(window string) string {
	for _, p := range institutionPatterns {
		if m := p.FindString(window); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Confidence scoring
// ---------------------------------------------------------------------------

// numberShapePattern recognises the canonical "NN-NN" instrument numbering
// (two-digit year, dash, sequence number).
var numberShapePattern = regexp.MustCompile(`\d{2,}-\d{2,}`)

// scoreConfidence rates a resolved reference. Base 0.70, plus bonuses for a
// canonically shaped number, a canonical instrument type, and how explicit
// the relationship kind tends to be in gazette drafting. Clamped to 1.0.
func scoreConfidence(target DocumentRef, kind Kind) float64 {
	confidence := 0.7

	if numberShapePattern.MatchString(target.Number) {
		confidence += 0.1
	}

	switch target.Type {
	case "loi", "décret", "ordonnance":
		confidence += 0.1
	}

	switch kind {
	case KindVu:
		confidence += 0.05
	case KindAbrogation:
		confidence += 0.1
	case KindModification:
		confidence += 0.08
	}

	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}

// ---------------------------------------------------------------------------
// Kind-specific details
// ---------------------------------------------------------------------------

var (
	articlesPattern        = regexp.MustCompile(`(?i)articles?\s+([\d,\s\-et]+)`)
	articleSplitPattern    = regexp.MustCompile(`[,\s\-et]+`)
	extensionDomainPattern = regexp.MustCompile(`(?i)(?:à|aux?)\s+([^.]+)`)
)

// extractDetails populates the kind-specific detail fields from the matched
// text. Kinds without extra fields return nil.
func extractDetails(matchText string, kind Kind) *Details {
	switch kind {
	case KindAbrogation:
		d := &Details{}
		if m := articlesPattern.FindStringSubmatch(matchText); m != nil {
			for _, a := range articleSplitPattern.Split(m[1], -1) {
				if a = strings.TrimSpace(a); a != "" {
					d.ArticlesAffected = append(d.ArticlesAffected, a)
				}
			}
			d.PartialAbrogation = boolPtr(true)
		} else {
			d.PartialAbrogation = boolPtr(false)
		}
		return d

	case KindExtension:
		if m := extensionDomainPattern.FindStringSubmatch(matchText); m != nil {
			return &Details{ExtensionDomain: strings.TrimSpace(m[1])}
		}
		return nil

	case KindControle:
		lower := strings.ToLower(matchText)
		level := ConformityRegulatory
		if strings.Contains(lower, "constitutionnel") {
			level = ConformityConstitutional
		} else if strings.Contains(lower, "légal") {
			level = ConformityLegal
		}
		return &Details{ConformityLevel: level}
	}

	return nil
}
