package stats

import (
	"testing"
	"time"

	"spendreport/internal/core"
	"spendreport/internal/rules"
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
		{Category: core.CategoryHidden, Subcategory: "transfer", MatchText: "xfer"},
	})
}

func TestBuildContiguousMonths(t *testing.T) {
	agg := NewAggregator(core.DefaultSettings(), time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC))
	ds := agg.Build([]core.Transaction{
		tx(2023, 1, 5, "TRADER JOES", -40),
		tx(2023, 5, 1, "RENT PAYMENT", -900),
	}, testRules())

	months := ds.Months()
	if len(months) != 5 {
		t.Fatalf("got %d months, want 5 contiguous", len(months))
	}
	for i := 1; i < len(months); i++ {
		if months[i] != months[i-1].Next() {
			t.Fatalf("gap at %d: %v then %v", i, months[i-1], months[i])
		}
	}

	// The gap months exist as zero-count placeholders for every pair.
	pair := core.CatSubcat{Category: "food", Subcategory: "groceries"}
	for i := 1; i <= 3; i++ {
		if g := ds.PairMonth(pair, i); g.N != 0 {
			t.Errorf("month %v should be empty for %v, got %+v", months[i], pair, g)
		}
	}
	if g := ds.PairMonth(pair, 0); g.N != 1 || g.Sum != -40 {
		t.Errorf("first month: %+v", g)
	}
}

func TestBuildExcludesHiddenAndRanksIncomeSeparately(t *testing.T) {
	agg := NewAggregator(core.DefaultSettings(), time.Date(2023, 3, 20, 0, 0, 0, 0, time.UTC))
	ds := agg.Build([]core.Transaction{
		tx(2023, 1, 5, "TRADER JOES", -40),
		tx(2023, 1, 6, "ACH XFER SAVINGS", -5000),
		tx(2023, 1, 7, "PAYROLL", 2000),
	}, testRules())

	for _, cat := range ds.Categories() {
		if cat == core.CategoryHidden || cat == core.CategoryIncome {
			t.Errorf("category %q should not be ranked", cat)
		}
	}
	// Hidden never reaches the dataset at all; income is pooled separately
	// via the pair accessor but excluded from the expense total.
	income := core.CatSubcat{Category: core.CategoryIncome, Subcategory: "salary"}
	if g := ds.PairMonth(income, 0); g.N != 1 || g.Sum != 2000 {
		t.Errorf("income pair: %+v", g)
	}
	if g := ds.TotalMonth(0); g.Sum != -40 {
		t.Errorf("expense total should exclude income and hidden, got %+v", g)
	}
}

func TestRankingByRecentMagnitudeOtherLast(t *testing.T) {
	now := time.Date(2023, 12, 20, 0, 0, 0, 0, time.UTC)
	agg := NewAggregator(core.DefaultSettings(), now)
	ds := agg.Build([]core.Transaction{
		tx(2023, 11, 1, "RENT PAYMENT", -900),
		tx(2023, 11, 2, "TRADER JOES", -40),
		tx(2023, 11, 3, "CHIPOTLE", -15),
		tx(2023, 11, 4, "MYSTERY SHOP", -10),
	}, testRules())

	cats := ds.Categories()
	want := []string{"housing", "food", core.CategoryOther}
	if len(cats) != len(want) {
		t.Fatalf("categories = %v", cats)
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Fatalf("categories = %v, want %v", cats, want)
		}
	}

	subs := ds.SubcatsOf("food")
	if len(subs) != 2 || subs[0].Subcategory != "groceries" || subs[1].Subcategory != "restaurants" {
		t.Errorf("food subcats = %v", subs)
	}
}

func TestRecentWindow(t *testing.T) {
	settings := core.DefaultSettings()
	settings.RecentMonthCount = 3
	settings.RequiredDaysForLatestMonth = 25

	txs := []core.Transaction{
		tx(2023, 1, 5, "TRADER JOES", -10),
		tx(2023, 6, 5, "TRADER JOES", -10),
	}

	t.Run("current month counts late in the month", func(t *testing.T) {
		agg := NewAggregator(settings, time.Date(2023, 6, 28, 0, 0, 0, 0, time.UTC))
		ds := agg.Build(txs, testRules())
		idx := ds.RecentIndexes()
		// Window is Apr..Jun, indexes 3..5 in the Jan..Jun range.
		if len(idx) != 3 || idx[0] != 3 || idx[2] != 5 {
			t.Errorf("recent indexes = %v", idx)
		}
	})

	t.Run("in-progress month excluded early in the month", func(t *testing.T) {
		agg := NewAggregator(settings, time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC))
		ds := agg.Build(txs, testRules())
		idx := ds.RecentIndexes()
		// Window shifts back to Mar..May.
		if len(idx) != 3 || idx[0] != 2 || idx[2] != 4 {
			t.Errorf("recent indexes = %v", idx)
		}
	})

	t.Run("window clips to the data range", func(t *testing.T) {
		agg := NewAggregator(settings, time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC))
		ds := agg.Build(txs, testRules())
		if idx := ds.RecentIndexes(); len(idx) != 0 {
			t.Errorf("stale data should fall outside the window, got %v", idx)
		}
	})
}

func TestYearRollups(t *testing.T) {
	now := time.Date(2023, 7, 20, 0, 0, 0, 0, time.UTC)
	agg := NewAggregator(core.DefaultSettings(), now)
	ds := agg.Build([]core.Transaction{
		tx(2022, 11, 1, "TRADER JOES", -30),
		tx(2022, 12, 1, "TRADER JOES", -50),
		tx(2023, 1, 1, "TRADER JOES", -60),
		tx(2023, 2, 1, "CHIPOTLE", -20),
	}, testRules())

	years := ds.Years()
	if len(years) != 2 || years[0] != 2022 || years[1] != 2023 {
		t.Fatalf("years = %v", years)
	}

	t.Run("partial year extrapolates to a run rate", func(t *testing.T) {
		// 2022 covers Nov..Dec of the range: 2 months, total -80.
		yg := ds.CatYear("food", 2022)
		if yg.MonthCount != 2 || yg.Sum != -80 {
			t.Fatalf("2022: %+v", yg)
		}
		if yg.Extrapolated != -480 {
			t.Errorf("extrapolated = %v, want -480", yg.Extrapolated)
		}
	})

	t.Run("category year pools subcategory years", func(t *testing.T) {
		yg := ds.CatYear("food", 2023)
		if yg.Sum != -80 || yg.N != 2 {
			t.Errorf("2023 food: %+v", yg)
		}
		total := ds.TotalYear(2023)
		if total.Sum != yg.Sum {
			t.Errorf("total %v != food %v with one ranked category", total.Sum, yg.Sum)
		}
	})
}

func TestBuildEmpty(t *testing.T) {
	agg := NewAggregator(core.DefaultSettings(), time.Now())
	ds := agg.Build(nil, testRules())
	if len(ds.Months()) != 0 || len(ds.Pairs()) != 0 || ds.Years() != nil {
		t.Errorf("empty dataset not empty: %d months, %d pairs", len(ds.Months()), len(ds.Pairs()))
	}
	if g := ds.TotalMonth(0); g.N != 0 {
		t.Errorf("total of empty dataset: %+v", g)
	}
}
