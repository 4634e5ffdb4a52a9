package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXParser handles gazette index spreadsheets: one row per published
// instrument, one sheet per issue or year. A leading column-label row
// ("Type | Numéro | Date | Intitulé") is recognised and lifted into section
// metadata instead of being emitted as instrument text. Data rows are
// joined into pipe-delimited lines, which keeps instrument numbers and
// dates adjacent for relationship analysis.
type XLSXParser struct{}

// Column labels seen across JORADP index sheets, lowercased.
var indexColumnVocab = []string{
	"type", "numéro", "n°", "date", "intitulé", "titre", "autorité", "jo", "page",
}

var instrumentNumberCell = regexp.MustCompile(`\b\d{2}[-/]\d{2,3}\b`)

// isIndexHeader reports whether a row is the column-label row of an index
// sheet rather than an instrument row. A cell carrying an instrument
// number disqualifies the row outright.
func isIndexHeader(row []string) bool {
	hits := 0
	for _, cell := range row {
		c := strings.ToLower(strings.TrimSpace(cell))
		if c == "" {
			continue
		}
		if instrumentNumberCell.MatchString(c) {
			return false
		}
		for _, label := range indexColumnVocab {
			if strings.Contains(c, label) {
				hits++
				break
			}
		}
	}
	return hits >= 2
}

func (p *XLSXParser) SupportedFormats() []string { return []string{"xlsx", "xls"} }

func (p *XLSXParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	var sections []Section

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}

		var columns string
		if isIndexHeader(rows[0]) {
			columns = strings.Join(rows[0], " | ")
			rows = rows[1:]
		}

		var content strings.Builder
		instruments := 0
		for _, row := range rows {
			line := "| " + strings.Join(row, " | ") + " |"
			if instrumentNumberCell.MatchString(line) {
				instruments++
			}
			content.WriteString(line + "\n")
		}
		if content.Len() == 0 {
			continue
		}

		metadata := map[string]string{
			"sheet_name":       sheet,
			"row_count":        fmt.Sprintf("%d", len(rows)),
			"instrument_count": fmt.Sprintf("%d", instruments),
		}
		if columns != "" {
			metadata["columns"] = columns
		}

		sections = append(sections, Section{
			Heading:  sheet,
			Content:  content.String(),
			Type:     "table",
			Level:    1,
			Metadata: metadata,
		})
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("no data found in XLSX")
	}

	return &ParseResult{
		Sections: sections,
		Method:   "native",
	}, nil
}
