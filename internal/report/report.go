// Package report builds the period-by-category report grid and the chart
// aggregates from a stats dataset. Amounts come straight from the pooled
// statistics; nothing here re-sums rounded cells.
package report

import (
	"fmt"
	"math"

	"spendreport/internal/core"
	"spendreport/internal/stats"
)

type Period string

const (
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodMonth, PeriodYear:
		return Period(s), nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrInvalidPeriod, s)
}

type Granularity string

const (
	GranularityCategory    Granularity = "category"
	GranularitySubcategory Granularity = "subcategory"
)

func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityCategory, GranularitySubcategory:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrInvalidGrain, s)
}

// HeaderCell is one merged header label; Width is how many leaf columns it
// spans, so subcategory grids can render category headers across their
// children.
type HeaderCell struct {
	Label string `json:"label"`
	Width int    `json:"width"`
}

// Cell is one grid cell: the period amount and its signed deviation
// severity in [-1, 1].
type Cell struct {
	Amount    float64 `json:"amount"`
	Deviation float64 `json:"deviation"`
}

// Row is one calendar period. Extrapolated is the backing month count for
// partial years (0 for complete periods) so the UI can flag projections.
type Row struct {
	Label        string `json:"label"`
	Cells        []Cell `json:"cells"`
	Total        Cell   `json:"total"`
	Extrapolated int    `json:"extrapolated,omitempty"`
}

// Report is the full grid: rows oldest to newest, columns ranked, plus the
// per-column baseline averages. Income stays out of the expense columns and
// totals and rides along as its own per-period series.
type Report struct {
	HeaderRows    [][]HeaderCell `json:"headerRows"`
	Rows          []Row          `json:"rows"`
	Averages      []float64      `json:"averages"`
	TotalAverage  float64        `json:"totalAverage"`
	Income        []float64      `json:"income,omitempty"`
	IncomeAverage float64        `json:"incomeAverage,omitempty"`
}

// Generator renders reports and chart data from one dataset under one
// settings snapshot.
type Generator struct {
	settings core.Settings
	ds       *stats.Dataset
}

func NewGenerator(settings core.Settings, ds *stats.Dataset) *Generator {
	return &Generator{settings: settings.Sanitized(), ds: ds}
}

// column is one leaf column of the grid with its per-period amounts already
// extracted, oldest first.
type column struct {
	pair    core.CatSubcat
	amounts []float64
}

// Generate builds the report for one period/granularity combination. With
// fewer than two columns the grid collapses to the total column only.
func (g *Generator) Generate(period Period, grain Granularity) *Report {
	cols := g.columns(period, grain)
	labels, extrapolated, totals := g.periods(period)

	rpt := &Report{Rows: make([]Row, len(labels))}

	collapse := len(cols) <= 1
	if !collapse {
		rpt.HeaderRows = headerRows(grain, cols)
	}

	baselines := make([]stats.Group, len(cols))
	for i, c := range cols {
		baselines[i] = g.baseline(period, c.amounts)
	}
	totalBaseline := g.baseline(period, totals)
	rpt.TotalAverage = totalBaseline.Mean

	if len(g.ds.IncomePairs()) > 0 {
		rpt.Income = g.incomeAmounts(period)
		rpt.IncomeAverage = g.baseline(period, rpt.Income).Mean
	}

	if !collapse {
		rpt.Averages = make([]float64, len(cols))
		for i, b := range baselines {
			rpt.Averages[i] = b.Mean
		}
	}

	for r := range labels {
		row := Row{
			Label:        labels[r],
			Extrapolated: extrapolated[r],
			Total:        Cell{Amount: totals[r]},
		}
		if !collapse {
			row.Cells = make([]Cell, len(cols))
			for i, c := range cols {
				row.Cells[i] = Cell{
					Amount:    c.amounts[r],
					Deviation: g.severity(c.amounts[r], baselines[i]),
				}
			}
		}
		rpt.Rows[r] = row
	}
	return rpt
}

// columns extracts the ranked leaf columns with their per-period amounts.
func (g *Generator) columns(period Period, grain Granularity) []column {
	var cols []column
	switch grain {
	case GranularitySubcategory:
		for _, pair := range g.ds.Pairs() {
			cols = append(cols, column{pair: pair, amounts: g.amountsFor(period, pair, false)})
		}
	default:
		for _, cat := range g.ds.Categories() {
			pair := core.CatSubcat{Category: cat}
			cols = append(cols, column{pair: pair, amounts: g.amountsFor(period, pair, true)})
		}
	}
	return cols
}

func (g *Generator) amountsFor(period Period, pair core.CatSubcat, wholeCategory bool) []float64 {
	if period == PeriodYear {
		years := g.ds.Years()
		out := make([]float64, len(years))
		for i, y := range years {
			if wholeCategory {
				out[i] = g.ds.CatYear(pair.Category, y).Sum
			} else {
				out[i] = g.ds.PairYear(pair, y).Sum
			}
		}
		return out
	}
	months := g.ds.Months()
	out := make([]float64, len(months))
	for i := range months {
		if wholeCategory {
			out[i] = g.ds.CatMonth(pair.Category, i).Sum
		} else {
			out[i] = g.ds.PairMonth(pair, i).Sum
		}
	}
	return out
}

// incomeAmounts returns the pooled income amount per period, aligned with
// the report rows.
func (g *Generator) incomeAmounts(period Period) []float64 {
	if period == PeriodYear {
		years := g.ds.Years()
		out := make([]float64, len(years))
		for i, y := range years {
			out[i] = g.ds.IncomeYear(y).Sum
		}
		return out
	}
	months := g.ds.Months()
	out := make([]float64, len(months))
	for i := range months {
		out[i] = g.ds.IncomeMonth(i).Sum
	}
	return out
}

// periods returns the row labels (oldest first), the partial-year month
// counts, and the pooled total amounts per period.
func (g *Generator) periods(period Period) (labels []string, extrapolated []int, totals []float64) {
	if period == PeriodYear {
		for _, y := range g.ds.Years() {
			yg := g.ds.TotalYear(y)
			labels = append(labels, fmt.Sprintf("%d", y))
			totals = append(totals, yg.Sum)
			if yg.MonthCount < 12 {
				extrapolated = append(extrapolated, yg.MonthCount)
			} else {
				extrapolated = append(extrapolated, 0)
			}
		}
		return labels, extrapolated, totals
	}
	for i, m := range g.ds.Months() {
		labels = append(labels, m.String())
		extrapolated = append(extrapolated, 0)
		totals = append(totals, g.ds.TotalMonth(i).Sum)
	}
	return labels, extrapolated, totals
}

func headerRows(grain Granularity, cols []column) [][]HeaderCell {
	if grain != GranularitySubcategory {
		row := make([]HeaderCell, len(cols))
		for i, c := range cols {
			row[i] = HeaderCell{Label: c.pair.Category, Width: 1}
		}
		return [][]HeaderCell{row}
	}
	var cats []HeaderCell
	subs := make([]HeaderCell, len(cols))
	for i, c := range cols {
		if len(cats) == 0 || cats[len(cats)-1].Label != c.pair.Category {
			cats = append(cats, HeaderCell{Label: c.pair.Category})
		}
		cats[len(cats)-1].Width++
		subs[i] = HeaderCell{Label: c.pair.Subcategory, Width: 1}
	}
	return [][]HeaderCell{cats, subs}
}

// baseline is the statistic a column's cells are colored against: monthly
// reports use the recent window, yearly reports use the complete years.
func (g *Generator) baseline(period Period, amounts []float64) stats.Group {
	var picked []float64
	if period == PeriodYear {
		for i, y := range g.ds.Years() {
			if g.ds.TotalYear(y).MonthCount == 12 {
				picked = append(picked, amounts[i])
			}
		}
	} else {
		for _, i := range g.ds.RecentIndexes() {
			picked = append(picked, amounts[i])
		}
	}
	return stats.Compute(picked)
}

// severity maps a cell amount to the signed [-1, 1] deviation score: a dead
// zone swallows small deviations, a soft knee halves the ramp near the zone,
// and the severe z-score threshold saturates the scale.
func (g *Generator) severity(amount float64, baseline stats.Group) float64 {
	if baseline.Sd == nil {
		return 0
	}
	deadZone := g.settings.ReportColorDeadZone
	halfDeadZone := 2 * deadZone
	diff := math.Abs(amount - baseline.Mean)
	diff = math.Max(0, diff-deadZone)
	if diff > halfDeadZone {
		diff -= halfDeadZone / 2
	} else {
		diff /= 2
	}
	if diff == 0 {
		return 0
	}
	sev := 1.0
	if sd := *baseline.Sd; sd > 0 {
		sev = math.Min(1, (diff/sd)/g.settings.ReportColorSevereZScore)
	}
	if amount < baseline.Mean {
		return -sev
	}
	return sev
}
