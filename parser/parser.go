package parser

import (
	"context"
	"strings"
)

// ParseResult is what a parser produces from a gazette document file.
type ParseResult struct {
	Sections []Section // Ordered sections extracted from the document
	Method   string    // "native"
	Metadata map[string]string
}

// Section represents a logical section of a parsed gazette document.
type Section struct {
	Heading    string
	Content    string
	Level      int // Heading level (1=instrument or titre, 2=chapitre/section, 3=article)
	PageNumber int
	Type       string // "instrument", "article", "visas", "table", "annex", "section", "paragraph"
	Metadata   map[string]string
}

// Parser can parse a specific document format.
type Parser interface {
	Parse(ctx context.Context, path string) (*ParseResult, error)
	SupportedFormats() []string
}

// Text concatenates the sections of a result, heading first, in document
// order. This is the form handed to relationship analysis.
func Text(res *ParseResult) string {
	var b strings.Builder
	for _, s := range res.Sections {
		if s.Heading != "" {
			b.WriteString(s.Heading)
			b.WriteString("\n")
		}
		b.WriteString(s.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}
