package core

import (
	"errors"
	"strings"
	"time"
)

// Reserved category and subcategory names. "other"/"uncategorized" is the
// bucket for transactions no rule matches, "income" is excluded from expense
// rankings, and "hidden" is kept in storage but excluded from stats and
// reports.
const (
	CategoryOther            = "other"
	CategoryIncome           = "income"
	CategoryHidden           = "hidden"
	SubcategoryUncategorized = "uncategorized"
)

var (
	ErrAmbiguousColumns    = errors.New("ambiguous columns: two of date/amount/name resolve to the same column")
	ErrDuplicateRule       = errors.New("duplicate rule match text")
	ErrEmptyMatchText      = errors.New("empty rule match text")
	ErrUnknownGenerator    = errors.New("unknown generator")
	ErrDuplicateGenerator  = errors.New("duplicate generator name")
	ErrGeneratorRunaway    = errors.New("generator would emit too many periods")
	ErrInvalidPeriod       = errors.New("invalid report period")
	ErrInvalidGrain        = errors.New("invalid report granularity")
	ErrTransactionNotFound = errors.New("transaction not found")
)

type (
	// CatSubcat is a (category, subcategory) pair of the taxonomy.
	CatSubcat struct {
		Category    string `json:"category"`
		Subcategory string `json:"subcategory"`
	}

	// Transaction is a single imported or generated bank transaction.
	// Category and subcategory are never stored on it; they are derived at
	// read time from the rule list, with ManualCat taking precedence.
	Transaction struct {
		ID           int64      `json:"id"`
		ImportDate   time.Time  `json:"importDate"`
		ImportSource string     `json:"importSource"`
		Date         time.Time  `json:"date"`
		Name         string     `json:"name"`
		Amount       float64    `json:"amount"`
		ManualCat    *CatSubcat `json:"manualCat,omitempty"`
	}

	// CategoryRule maps transactions whose name contains MatchText
	// (case-insensitive) to a category/subcategory pair. Rule order is a
	// user-controlled priority list; the first match wins.
	CategoryRule struct {
		Category    string `json:"category"`
		Subcategory string `json:"subcategory"`
		MatchText   string `json:"matchText"`
	}

	// Generator is a recurring-transaction template that yields one
	// transaction per calendar month between StartMonth and
	// min(EndMonth, now).
	Generator struct {
		Name        string  `json:"name"`
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Subcategory string  `json:"subcategory"`
		StartMonth  Month   `json:"startMonth"`
		NextMonth   Month   `json:"nextMonth"`
		EndMonth    *Month  `json:"endMonth,omitempty"`
		DayOfMonth  int     `json:"dayOfMonth"`
	}
)

// Normalized returns the rule with MatchText lowercased and trimmed.
func (r CategoryRule) Normalized() CategoryRule {
	r.MatchText = strings.ToLower(strings.TrimSpace(r.MatchText))
	return r
}

// Uncategorized reports whether the pair is the empty "no rule matched"
// marker rendered as other/uncategorized.
func (c CatSubcat) Uncategorized() bool {
	return c.Category == "" && c.Subcategory == ""
}

// Display maps the empty pair onto the reserved other/uncategorized bucket.
func (c CatSubcat) Display() CatSubcat {
	if c.Uncategorized() {
		return CatSubcat{Category: CategoryOther, Subcategory: SubcategoryUncategorized}
	}
	return c
}

func (g Generator) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return errors.New("generator name cannot be empty")
	}
	if g.DayOfMonth < 1 || g.DayOfMonth > 31 {
		return errors.New("generator day of month must be between 1 and 31")
	}
	if g.StartMonth.IsZero() {
		return errors.New("generator start month cannot be zero")
	}
	if g.EndMonth != nil && g.EndMonth.Before(g.StartMonth) {
		return errors.New("generator end month must not precede start month")
	}
	return nil
}
