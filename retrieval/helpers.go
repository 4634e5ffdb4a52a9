package retrieval

import "strings"

// sanitizeFTSQuery escapes special FTS5 syntax characters and builds
// a basic OR query from the input terms.
func sanitizeFTSQuery(query string) string {
	// Remove FTS5 special characters
	replacer := strings.NewReplacer(
		"\"", "",
		"*", "",
		"(", "",
		")", "",
		"+", "",
		"^", "",
		":", "",
		"?", "",
		"[", "",
		"]", "",
		"{", "",
		"}", "",
		"!", "",
		".", "",
		",", "",
		";", "",
	)
	cleaned := replacer.Replace(query)

	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return query
	}

	// Use quoted phrase for exact matches plus individual terms
	var parts []string
	if len(words) > 1 {
		parts = append(parts, "\""+strings.Join(words, " ")+"\"")
	}
	for _, w := range words {
		if len(w) <= 2 || isStopWord(w) {
			continue
		}
		// Instrument numbers ("18-05") are not valid FTS5 barewords;
		// quoting makes them phrase queries over the split tokens.
		if strings.Contains(w, "-") {
			w = "\"" + strings.ReplaceAll(w, "-", " ") + "\""
		}
		parts = append(parts, w)
	}

	if len(parts) == 0 {
		return strings.Join(words, " OR ")
	}
	return strings.Join(parts, " OR ")
}

// French function words, plus the handful of English ones that show up in
// mixed-language queries.
var stopWords = map[string]bool{
	"le": true, "la": true, "les": true, "un": true, "une": true,
	"des": true, "du": true, "de": true, "au": true, "aux": true,
	"et": true, "ou": true, "mais": true, "donc": true, "car": true,
	"ne": true, "pas": true, "plus": true, "par": true, "pour": true,
	"sur": true, "sous": true, "dans": true, "avec": true, "sans": true,
	"ce": true, "cet": true, "cette": true, "ces": true, "son": true,
	"sa": true, "ses": true, "leur": true, "leurs": true, "qui": true,
	"que": true, "quoi": true, "dont": true, "est": true, "sont": true,
	"ont": true, "aura": true, "fut": true, "vu": true,
	"portant": true, "relative": true, "relatif": true, "fixant": true,
	"the": true, "and": true, "for": true, "with": true, "what": true,
	"which": true, "how": true,
}

func isStopWord(w string) bool {
	return stopWords[strings.ToLower(w)]
}
