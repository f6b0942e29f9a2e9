package report

import (
	"math"

	"spendreport/internal/core"
)

const remainderLabel = "everything else"

// Slice is one chart segment: the recent-window spending magnitude and its
// monthly baseline average for the labeled category or pair.
type Slice struct {
	Label       string  `json:"label"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory,omitempty"`
	Amount      float64 `json:"amount"`
	Average     float64 `json:"average"`
}

// DonutData is the share-of-spending aggregate over the recent window,
// capped to the configured number of slices with a remainder bucket.
type DonutData struct {
	Granularity Granularity `json:"granularity"`
	Slices      []Slice     `json:"slices"`
}

// Series is one bar-chart line: per-month magnitudes across the recent
// window plus the baseline average.
type Series struct {
	Label   string    `json:"label"`
	Amounts []float64 `json:"amounts"`
	Average float64   `json:"average"`
}

// BarData is the month-by-month aggregate over the recent window.
type BarData struct {
	Granularity Granularity `json:"granularity"`
	Labels      []string    `json:"labels"`
	Series      []Series    `json:"series"`
}

// Donut aggregates recent spending per ranked column. Columns past the cap
// fold into a single remainder slice, which counts against the cap.
func (g *Generator) Donut(grain Granularity) DonutData {
	data := DonutData{Granularity: grain}
	for _, c := range g.chartColumns(grain) {
		total := 0.0
		for _, i := range g.ds.RecentIndexes() {
			total += c.amounts[i]
		}
		data.Slices = append(data.Slices, Slice{
			Label:       chartLabel(grain, c.pair),
			Category:    c.pair.Category,
			Subcategory: subcatOf(grain, c.pair),
			Amount:      math.Abs(total),
			Average:     math.Abs(g.baseline(PeriodMonth, c.amounts).Mean),
		})
	}

	max := g.settings.MaxGraphCategories
	if len(data.Slices) > max {
		rest := data.Slices[max-1:]
		bucket := Slice{Label: remainderLabel, Category: core.CategoryOther}
		for _, s := range rest {
			bucket.Amount += s.Amount
			bucket.Average += s.Average
		}
		data.Slices = append(data.Slices[:max-1], bucket)
	}
	return data
}

// Bar aggregates per-month spending per ranked column across the recent
// window, with the same cap and remainder bucket as Donut.
func (g *Generator) Bar(grain Granularity) BarData {
	data := BarData{Granularity: grain}
	recent := g.ds.RecentIndexes()
	months := g.ds.Months()
	for _, i := range recent {
		data.Labels = append(data.Labels, months[i].String())
	}

	for _, c := range g.chartColumns(grain) {
		s := Series{
			Label:   chartLabel(grain, c.pair),
			Average: math.Abs(g.baseline(PeriodMonth, c.amounts).Mean),
		}
		for _, i := range recent {
			s.Amounts = append(s.Amounts, math.Abs(c.amounts[i]))
		}
		data.Series = append(data.Series, s)
	}

	max := g.settings.MaxGraphCategories
	if len(data.Series) > max {
		rest := data.Series[max-1:]
		bucket := Series{Label: remainderLabel, Amounts: make([]float64, len(recent))}
		for _, s := range rest {
			bucket.Average += s.Average
			for i, a := range s.Amounts {
				bucket.Amounts[i] += a
			}
		}
		data.Series = append(data.Series[:max-1], bucket)
	}
	return data
}

func (g *Generator) chartColumns(grain Granularity) []column {
	return g.columns(PeriodMonth, grain)
}

func chartLabel(grain Granularity, pair core.CatSubcat) string {
	if grain == GranularitySubcategory {
		return pair.Category + " / " + pair.Subcategory
	}
	return pair.Category
}

func subcatOf(grain Granularity, pair core.CatSubcat) string {
	if grain == GranularitySubcategory {
		return pair.Subcategory
	}
	return ""
}
