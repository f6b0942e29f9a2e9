package report

import (
	"math"
	"testing"
	"time"

	"spendreport/internal/core"
	"spendreport/internal/rules"
	"spendreport/internal/stats"
)

func tx(y int, m time.Month, d int, name string, amount float64) core.Transaction {
	return core.Transaction{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Name: name, Amount: amount}
}

func testRules() *rules.Ruleset {
	return rules.New([]core.CategoryRule{
		{Category: "food", Subcategory: "groceries", MatchText: "trader"},
		{Category: "food", Subcategory: "restaurants", MatchText: "chipotle"},
		{Category: "housing", Subcategory: "rent", MatchText: "rent"},
		{Category: core.CategoryIncome, Subcategory: "salary", MatchText: "payroll"},
	})
}

func buildGen(t *testing.T, settings core.Settings, now time.Time, txs []core.Transaction) *Generator {
	t.Helper()
	ds := stats.NewAggregator(settings, now).Build(txs, testRules())
	return NewGenerator(settings, ds)
}

func TestParseArgs(t *testing.T) {
	if _, err := ParsePeriod("week"); err == nil {
		t.Error("bad period accepted")
	}
	if _, err := ParseGranularity("merchant"); err == nil {
		t.Error("bad granularity accepted")
	}
	if p, err := ParsePeriod("year"); err != nil || p != PeriodYear {
		t.Errorf("got %v, %v", p, err)
	}
}

func TestSeverityBoundaries(t *testing.T) {
	settings := core.DefaultSettings() // deadZone=5, severeZScore=2
	g := NewGenerator(settings, &stats.Dataset{})
	sd := 10.0
	baseline := stats.Group{Mean: 100, Sd: &sd}

	cases := []struct {
		name   string
		amount float64
		want   float64
	}{
		{"at the mean", 100, 0},
		{"at the dead zone edge", 105, 0},
		{"inside the soft knee", 112, 0.175},
		{"saturates at severe z-score", 130, 1},
		{"never exceeds one", 1000, 1},
		{"negative side saturates", 70, -1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := g.severity(c.amount, baseline); math.Abs(got-c.want) > 1e-12 {
				t.Errorf("severity(%v) = %v, want %v", c.amount, got, c.want)
			}
		})
	}

	t.Run("undefined sd scores zero", func(t *testing.T) {
		if got := g.severity(500, stats.Group{Mean: 100}); got != 0 {
			t.Errorf("got %v", got)
		}
	})
}

func TestMonthlyReportGrid(t *testing.T) {
	now := time.Date(2023, 4, 28, 0, 0, 0, 0, time.UTC)
	gen := buildGen(t, core.DefaultSettings(), now, []core.Transaction{
		tx(2023, 1, 5, "TRADER JOES", -40),
		tx(2023, 1, 6, "RENT PAYMENT", -900),
		// February has no activity at all.
		tx(2023, 3, 5, "TRADER JOES", -60),
		tx(2023, 3, 6, "RENT PAYMENT", -900),
		tx(2023, 4, 1, "CHIPOTLE", -20),
	})

	rpt := gen.Generate(PeriodMonth, GranularityCategory)

	if len(rpt.Rows) != 4 {
		t.Fatalf("got %d rows, want 4 contiguous months", len(rpt.Rows))
	}
	if rpt.Rows[0].Label != "2023-01" || rpt.Rows[1].Label != "2023-02" {
		t.Errorf("rows not oldest-first contiguous: %q, %q", rpt.Rows[0].Label, rpt.Rows[1].Label)
	}
	for _, c := range rpt.Rows[1].Cells {
		if c.Amount != 0 {
			t.Errorf("zero-activity month has amount %v", c.Amount)
		}
	}

	if len(rpt.HeaderRows) != 1 {
		t.Fatalf("header rows = %d", len(rpt.HeaderRows))
	}
	if rpt.HeaderRows[0][0].Label != "housing" || rpt.HeaderRows[0][1].Label != "food" {
		t.Errorf("columns not ranked by magnitude: %+v", rpt.HeaderRows[0])
	}

	t.Run("total is pooled and never colored", func(t *testing.T) {
		jan := rpt.Rows[0]
		if jan.Total.Amount != -940 {
			t.Errorf("total = %v", jan.Total.Amount)
		}
		for _, row := range rpt.Rows {
			if row.Total.Deviation != 0 {
				t.Errorf("total colored in row %q: %v", row.Label, row.Total.Deviation)
			}
		}
	})
}

func TestSubcategoryHeaderWidths(t *testing.T) {
	now := time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)
	gen := buildGen(t, core.DefaultSettings(), now, []core.Transaction{
		tx(2023, 1, 5, "TRADER JOES", -40),
		tx(2023, 1, 6, "CHIPOTLE", -20),
		tx(2023, 1, 7, "RENT PAYMENT", -900),
	})

	rpt := gen.Generate(PeriodMonth, GranularitySubcategory)
	if len(rpt.HeaderRows) != 2 {
		t.Fatalf("header rows = %d, want 2", len(rpt.HeaderRows))
	}
	cats, subs := rpt.HeaderRows[0], rpt.HeaderRows[1]
	if len(cats) != 2 || cats[0].Label != "housing" || cats[0].Width != 1 ||
		cats[1].Label != "food" || cats[1].Width != 2 {
		t.Errorf("category header = %+v", cats)
	}
	widthSum := 0
	for _, c := range cats {
		widthSum += c.Width
	}
	if widthSum != len(subs) || len(subs) != len(rpt.Rows[0].Cells) {
		t.Errorf("widths %d, subs %d, cells %d", widthSum, len(subs), len(rpt.Rows[0].Cells))
	}
}

func TestSingleCategoryCollapses(t *testing.T) {
	now := time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)
	gen := buildGen(t, core.DefaultSettings(), now, []core.Transaction{
		tx(2023, 1, 5, "TRADER JOES", -40),
		tx(2023, 2, 5, "TRADER JOES", -60),
	})

	rpt := gen.Generate(PeriodMonth, GranularityCategory)
	if len(rpt.HeaderRows) != 0 || len(rpt.Averages) != 0 {
		t.Errorf("collapsed report still has a grid: %+v", rpt.HeaderRows)
	}
	for _, row := range rpt.Rows {
		if len(row.Cells) != 0 {
			t.Errorf("row %q has cells", row.Label)
		}
	}
	if rpt.Rows[0].Total.Amount != -40 || rpt.Rows[1].Total.Amount != -60 {
		t.Errorf("totals = %v, %v", rpt.Rows[0].Total.Amount, rpt.Rows[1].Total.Amount)
	}
}

func TestIncomeDisplayedSeparately(t *testing.T) {
	now := time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)
	gen := buildGen(t, core.DefaultSettings(), now, []core.Transaction{
		tx(2023, 1, 5, "TRADER JOES", -40),
		tx(2023, 1, 6, "RENT PAYMENT", -900),
		tx(2023, 1, 25, "PAYROLL ACME", 2500),
		tx(2023, 2, 5, "TRADER JOES", -60),
		tx(2023, 2, 25, "PAYROLL ACME", 2500),
	})

	rpt := gen.Generate(PeriodMonth, GranularityCategory)

	for _, row := range rpt.HeaderRows {
		for _, cell := range row {
			if cell.Label == core.CategoryIncome {
				t.Errorf("income ranked as an expense column: %+v", row)
			}
		}
	}
	if rpt.Rows[0].Total.Amount != -940 {
		t.Errorf("total includes income: %v", rpt.Rows[0].Total.Amount)
	}

	if len(rpt.Income) != len(rpt.Rows) {
		t.Fatalf("income series has %d entries, want %d", len(rpt.Income), len(rpt.Rows))
	}
	if rpt.Income[0] != 2500 || rpt.Income[1] != 2500 {
		t.Errorf("income series = %v", rpt.Income)
	}
	if rpt.IncomeAverage != 2500 {
		t.Errorf("income average = %v", rpt.IncomeAverage)
	}

	t.Run("yearly income pools the months", func(t *testing.T) {
		yearly := gen.Generate(PeriodYear, GranularityCategory)
		if len(yearly.Income) != 1 || yearly.Income[0] != 5000 {
			t.Errorf("yearly income = %v", yearly.Income)
		}
	})

	t.Run("no income means no series", func(t *testing.T) {
		plain := buildGen(t, core.DefaultSettings(), now, []core.Transaction{
			tx(2023, 1, 5, "TRADER JOES", -40),
			tx(2023, 2, 6, "RENT PAYMENT", -900),
		})
		if rpt := plain.Generate(PeriodMonth, GranularityCategory); len(rpt.Income) != 0 {
			t.Errorf("income series = %v", rpt.Income)
		}
	})
}

func TestYearlyReportExtrapolation(t *testing.T) {
	now := time.Date(2023, 3, 28, 0, 0, 0, 0, time.UTC)
	gen := buildGen(t, core.DefaultSettings(), now, []core.Transaction{
		tx(2022, 11, 5, "TRADER JOES", -40),
		tx(2022, 12, 5, "RENT PAYMENT", -900),
		tx(2023, 1, 5, "TRADER JOES", -60),
		tx(2023, 2, 5, "RENT PAYMENT", -900),
	})

	rpt := gen.Generate(PeriodYear, GranularityCategory)
	if len(rpt.Rows) != 2 {
		t.Fatalf("rows = %d", len(rpt.Rows))
	}
	// Both years are partial: 2022 covers Nov-Dec, 2023 covers Jan-Feb
	// of the data range.
	if rpt.Rows[0].Extrapolated != 2 || rpt.Rows[1].Extrapolated != 2 {
		t.Errorf("extrapolated markers = %d, %d", rpt.Rows[0].Extrapolated, rpt.Rows[1].Extrapolated)
	}
	if rpt.Rows[0].Label != "2022" {
		t.Errorf("years not oldest-first: %q", rpt.Rows[0].Label)
	}
}

func TestChartsCapWithRemainderBucket(t *testing.T) {
	settings := core.DefaultSettings()
	settings.MaxGraphCategories = 2

	now := time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)
	gen := buildGen(t, settings, now, []core.Transaction{
		tx(2023, 1, 5, "RENT PAYMENT", -900),
		tx(2023, 1, 6, "TRADER JOES", -40),
		tx(2023, 1, 7, "MYSTERY SHOP", -10),
	})

	t.Run("donut", func(t *testing.T) {
		donut := gen.Donut(GranularityCategory)
		if len(donut.Slices) != 2 {
			t.Fatalf("slices = %d, want cap of 2", len(donut.Slices))
		}
		if donut.Slices[0].Label != "housing" {
			t.Errorf("top slice = %q", donut.Slices[0].Label)
		}
		last := donut.Slices[1]
		if last.Label != "everything else" || last.Amount != 50 {
			t.Errorf("remainder = %+v", last)
		}
	})

	t.Run("bar", func(t *testing.T) {
		bar := gen.Bar(GranularityCategory)
		if len(bar.Series) != 2 || bar.Series[1].Label != "everything else" {
			t.Fatalf("series = %+v", bar.Series)
		}
		if len(bar.Labels) == 0 {
			t.Fatal("no period labels")
		}
		if got := bar.Series[1].Amounts[0]; got != 50 {
			t.Errorf("remainder month amount = %v", got)
		}
	})
}
