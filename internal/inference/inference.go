// Package inference classifies the columns of a raw imported grid as
// date/amount/name (plus an optional category/subcategory pair) and types
// each cell, so callers can turn arbitrary bank CSV exports into
// transactions without per-bank format configuration.
package inference

import (
	"math"
	"strings"
	"time"

	"spendreport/internal/core"
)

type cellKind int

const (
	kindText cellKind = iota
	kindDate
	kindMoney
)

// ColumnRoles holds the selected column index per role. Category and
// Subcategory are -1 when the grid has no such header pair.
type ColumnRoles struct {
	Date        int `json:"date"`
	Amount      int `json:"amount"`
	Name        int `json:"name"`
	Category    int `json:"category"`
	Subcategory int `json:"subcategory"`
}

// Row is one typed data row. InvalidFields names the roles whose cell failed
// to parse; rows are flagged rather than dropped so callers can show and
// exclude them explicitly.
type Row struct {
	Date          time.Time `json:"date"`
	Amount        float64   `json:"amount"`
	Name          string    `json:"name"`
	Category      string    `json:"category,omitempty"`
	Subcategory   string    `json:"subcategory,omitempty"`
	Raw           []string  `json:"raw"`
	InvalidFields []string  `json:"invalidFields,omitempty"`
}

// Valid reports whether every required field parsed.
func (r Row) Valid() bool {
	return len(r.InvalidFields) == 0
}

// Grid is the result of column inference over a raw string grid.
type Grid struct {
	Headers []string    `json:"headers,omitempty"`
	Columns ColumnRoles `json:"columns"`
	Rows    []Row       `json:"rows"`
}

// InferColumns detects an optional header row, discards an optional trailing
// summary row, scores every column for each role, and types all remaining
// cells. It fails with core.ErrAmbiguousColumns when two of date/amount/name
// resolve to the same column; an ambiguous schema is rejected outright,
// never silently resolved.
func InferColumns(rawRows [][]string) (*Grid, error) {
	rows := trimEmptyRows(rawRows)
	if len(rows) == 0 {
		return &Grid{Columns: ColumnRoles{Date: -1, Amount: -1, Name: -1, Category: -1, Subcategory: -1}}, nil
	}

	kinds := make([][]cellKind, len(rows))
	for i, row := range rows {
		kinds[i] = make([]cellKind, len(row))
		for j, cell := range row {
			kinds[i][j] = typeCell(cell)
		}
	}

	var headers []string
	dataStart := 0
	if isNonDataRow(kinds[0]) {
		headers = rows[0]
		dataStart = 1
	}

	dataRows := rows[dataStart:]
	dataKinds := kinds[dataStart:]

	// Bank exports commonly end with a totals/footer line. Only consider
	// dropping one when there is enough data for the heuristic to be safe.
	if len(rows) > 3 && len(dataRows) > 0 && isNonDataRow(dataKinds[len(dataKinds)-1]) {
		dataRows = dataRows[:len(dataRows)-1]
		dataKinds = dataKinds[:len(dataKinds)-1]
	}

	roles, err := selectColumns(headers, dataRows, dataKinds)
	if err != nil {
		return nil, err
	}

	out := &Grid{Headers: headers, Columns: roles, Rows: make([]Row, 0, len(dataRows))}
	for i, raw := range dataRows {
		out.Rows = append(out.Rows, typeRow(raw, dataKinds[i], roles))
	}
	return out, nil
}

func typeCell(s string) cellKind {
	kind := kindText
	if _, ok := core.ParseDateCell(s); ok {
		kind = kindDate
	}
	// Money wins when a cell parses as both.
	if _, ok := core.ParseMoneyCell(s); ok {
		kind = kindMoney
	}
	return kind
}

// isNonDataRow reports whether no cell looks like a date or money value.
// Such a row at the top is a header, at the bottom a totals footer.
func isNonDataRow(kinds []cellKind) bool {
	for _, k := range kinds {
		if k == kindDate || k == kindMoney {
			return false
		}
	}
	return true
}

func trimEmptyRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func selectColumns(headers []string, rows [][]string, kinds [][]cellKind) (ColumnRoles, error) {
	roles := ColumnRoles{Date: -1, Amount: -1, Name: -1, Category: -1, Subcategory: -1}
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return roles, nil
	}

	dateScores := make([]float64, width)
	amountScores := make([]float64, width)
	nameScores := make([]float64, width)
	for col := 0; col < width; col++ {
		p := profileColumn(rows, kinds, col)
		dateScores[col] = headerScore(headers, col, dateKeywords) + p.dateFraction*6
		amountScores[col] = headerScore(headers, col, amountKeywords) + p.moneyFraction*6
		nameScores[col] = headerScore(headers, col, nameKeywords) + p.nameLikelihood()*6
	}

	roles.Date = argmax(dateScores)
	roles.Amount = argmax(amountScores)
	roles.Name = argmax(nameScores)
	if roles.Date == roles.Amount || roles.Date == roles.Name || roles.Amount == roles.Name {
		return roles, core.ErrAmbiguousColumns
	}

	// The category pair is identified by exact header match only, and only
	// used when both halves are present.
	cat, sub := -1, -1
	for col, h := range headers {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "category":
			cat = col
		case "subcategory":
			sub = col
		}
	}
	if cat >= 0 && sub >= 0 {
		roles.Category = cat
		roles.Subcategory = sub
	}
	return roles, nil
}

type headerKeyword struct {
	word     string
	exact    float64
	contains float64
}

var (
	dateKeywords = []headerKeyword{
		{word: "date", exact: 10, contains: 5},
	}
	amountKeywords = []headerKeyword{
		{word: "amount", exact: 10, contains: 5},
		{word: "debit", exact: 2, contains: 2},
		{word: "balance", exact: -2, contains: -2},
	}
	nameKeywords = []headerKeyword{
		{word: "description", exact: 8, contains: 8},
		{word: "name", exact: 5, contains: 5},
	}
)

func headerScore(headers []string, col int, keywords []headerKeyword) float64 {
	if col >= len(headers) {
		return 0
	}
	h := strings.ToLower(strings.TrimSpace(headers[col]))
	if h == "" {
		return 0
	}
	score := 0.0
	for _, kw := range keywords {
		switch {
		case h == kw.word:
			score += kw.exact
		case strings.Contains(h, kw.word):
			score += kw.contains
		}
	}
	return score
}

// columnProfile captures the content shape of one column across data rows.
type columnProfile struct {
	dateFraction  float64
	moneyFraction float64
	textFraction  float64
	distinctness  float64 // (distinct texts / texts)^1.5, rewards variety
	letterDensity float64
	avgTextLen    float64
}

func profileColumn(rows [][]string, kinds [][]cellKind, col int) columnProfile {
	var p columnProfile
	total, dates, moneys, texts := 0, 0, 0, 0
	distinct := map[string]struct{}{}
	letterSum := 0.0
	lenSum := 0
	for i, row := range rows {
		if col >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			continue
		}
		total++
		switch kinds[i][col] {
		case kindDate:
			dates++
		case kindMoney:
			moneys++
		default:
			texts++
			distinct[strings.ToLower(cell)] = struct{}{}
			letterSum += letterDensity(cell)
			lenSum += len(cell)
		}
	}
	p.dateFraction = fraction(dates, total)
	p.moneyFraction = fraction(moneys, total)
	p.textFraction = fraction(texts, total)
	if texts > 0 {
		p.distinctness = math.Pow(float64(len(distinct))/float64(texts), 1.5)
		p.letterDensity = letterSum / float64(texts)
		p.avgTextLen = float64(lenSum) / float64(texts)
	}
	return p
}

func (p columnProfile) nameLikelihood() float64 {
	return p.textFraction * p.distinctness * p.letterDensity * lengthMultiplier(p.avgTextLen)
}

// lengthMultiplier rewards longer average text, saturating above 30 chars.
func lengthMultiplier(avgLen float64) float64 {
	switch {
	case avgLen <= 0:
		return 0
	case avgLen >= 30:
		return 1.5
	case avgLen >= 20:
		return 1.25
	case avgLen >= 10:
		return 1
	case avgLen >= 5:
		return 0.75
	default:
		return 0.5
	}
}

func letterDensity(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	letters := 0
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == ' ' {
			letters++
		}
	}
	return float64(letters) / float64(len(s))
}

func fraction(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func argmax(scores []float64) int {
	best := 0
	for i, v := range scores {
		if v > scores[best] {
			best = i
		}
	}
	return best
}

func typeRow(raw []string, kinds []cellKind, roles ColumnRoles) Row {
	row := Row{Raw: raw}

	if roles.Date >= 0 && roles.Date < len(raw) && kinds[roles.Date] == kindDate {
		row.Date, _ = core.ParseDateCell(raw[roles.Date])
	} else {
		row.InvalidFields = append(row.InvalidFields, "date")
	}

	if roles.Amount >= 0 && roles.Amount < len(raw) && kinds[roles.Amount] == kindMoney {
		row.Amount, _ = core.ParseMoneyCell(raw[roles.Amount])
	} else {
		row.InvalidFields = append(row.InvalidFields, "amount")
	}

	if roles.Name >= 0 && roles.Name < len(raw) && strings.TrimSpace(raw[roles.Name]) != "" {
		row.Name = strings.TrimSpace(raw[roles.Name])
	} else {
		row.InvalidFields = append(row.InvalidFields, "name")
	}

	if roles.Category >= 0 && roles.Category < len(raw) {
		row.Category = strings.TrimSpace(raw[roles.Category])
	}
	if roles.Subcategory >= 0 && roles.Subcategory < len(raw) {
		row.Subcategory = strings.TrimSpace(raw[roles.Subcategory])
	}
	return row
}
