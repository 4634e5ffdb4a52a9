package parser

import (
	"regexp"
	"strings"
)

// Heading shapes found in the Journal officiel: instrument titles
// ("Décret exécutif n° 21-112 du ..."), structural divisions (TITRE,
// CHAPITRE, Section) and article markers ("Art. 5." or "Article 1er").
var (
	instrumentHeadingPattern = regexp.MustCompile(`(?i)^(loi|ordonnance|décret\s+(?:exécutif|présidentiel|législatif)|décret|arrêté\s+interministériel|arrêté|décision|circulaire|instruction)\b.*n[°]\s*[\d\-/]+`)
	articleHeadingPattern    = regexp.MustCompile(`(?i)^art(?:icle)?\.?\s+(?:\d+|1er)\b`)
	titreHeadingPattern      = regexp.MustCompile(`(?i)^titre\s+`)
	chapitreHeadingPattern   = regexp.MustCompile(`(?i)^chapitre\s+`)
	sectionHeadingPattern    = regexp.MustCompile(`(?i)^section\s+`)
	visaLinePattern          = regexp.MustCompile(`(?i)^vu\s`)
)

// splitIntoSections breaks gazette text into logical sections on heading
// boundaries. The "Vu ..." citation block that opens a decree preamble is
// split out as its own section so the visas stay separable from the
// enacting terms. Text with no recognisable headings collapses into a
// single paragraph section.
func splitIntoSections(text string, pageNum int) []Section {
	lines := strings.Split(text, "\n")
	var sections []Section
	var content strings.Builder
	var heading string
	level := 0
	inVisas := false

	flush := func() {
		if content.Len() == 0 && heading == "" {
			return
		}
		body := strings.TrimSpace(content.String())
		if body == "" && heading == "" {
			return
		}
		sections = append(sections, Section{
			Heading:    heading,
			Content:    body,
			Level:      level,
			PageNumber: pageNum,
			Type:       classifySection(heading, body),
		})
		content.Reset()
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if content.Len() > 0 {
				content.WriteString("\n")
			}
			continue
		}

		if isHeading(trimmed) {
			flush()
			inVisas = false
			heading = trimmed
			level = headingLevel(trimmed)
			continue
		}

		if visa := visaLinePattern.MatchString(trimmed); visa != inVisas {
			flush()
			heading = ""
			level = 0
			inVisas = visa
		}

		if content.Len() > 0 {
			content.WriteString("\n")
		}
		content.WriteString(trimmed)
	}
	flush()

	if len(sections) == 0 && strings.TrimSpace(text) != "" {
		sections = append(sections, Section{
			Content:    strings.TrimSpace(text),
			PageNumber: pageNum,
			Type:       "paragraph",
		})
	}

	return sections
}

func isHeading(line string) bool {
	if len(line) > 200 {
		return false
	}
	if instrumentHeadingPattern.MatchString(line) ||
		articleHeadingPattern.MatchString(line) ||
		titreHeadingPattern.MatchString(line) ||
		chapitreHeadingPattern.MatchString(line) ||
		sectionHeadingPattern.MatchString(line) {
		return true
	}
	// Short all-caps lines are division headers ("DISPOSITIONS FINALES").
	if len(line) > 2 && len(line) < 100 && line == strings.ToUpper(line) && hasLetter(line) {
		return true
	}
	return false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r > 127 {
			return true
		}
	}
	return false
}

func headingLevel(heading string) int {
	switch {
	case articleHeadingPattern.MatchString(heading):
		return 3
	case chapitreHeadingPattern.MatchString(heading), sectionHeadingPattern.MatchString(heading):
		return 2
	default:
		return 1
	}
}

// classifySection tags a section by its role in the gazette layout. The
// visas classification watches for the "Vu ..." citation block that opens
// every decree preamble.
func classifySection(heading, body string) string {
	switch {
	case instrumentHeadingPattern.MatchString(heading):
		return "instrument"
	case articleHeadingPattern.MatchString(heading):
		return "article"
	}

	if visaCount(body) >= 2 {
		return "visas"
	}
	if strings.Count(body, "\t") > 3 || strings.Count(body, "|") > 3 {
		return "table"
	}
	if strings.Contains(strings.ToLower(heading), "annexe") {
		return "annex"
	}
	if heading == "" {
		return "paragraph"
	}
	return "section"
}

func visaCount(body string) int {
	n := 0
	for _, line := range strings.Split(body, "\n") {
		if visaLinePattern.MatchString(strings.TrimSpace(line)) {
			n++
		}
	}
	return n
}
