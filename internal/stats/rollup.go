package stats

import (
	"math"
	"sort"
	"time"

	"spendreport/internal/core"
	"spendreport/internal/rules"
)

// Aggregator derives the statistical view of a transaction set. It holds an
// immutable settings snapshot and a fixed "now" so a whole report run sees
// one consistent clock.
type Aggregator struct {
	settings core.Settings
	now      time.Time
}

func NewAggregator(settings core.Settings, now time.Time) *Aggregator {
	return &Aggregator{settings: settings.Sanitized(), now: now}
}

// YearGroup is a yearly statistic plus the number of range months backing
// it. Extrapolated scales a partial year's total to a 12-month run rate.
type YearGroup struct {
	Group
	MonthCount   int
	Extrapolated float64
}

// Dataset is the month-granular roll-up of one transaction set. The base
// granularity is one Group per (subcategory pair, month), with zero-count
// placeholders so the month range stays contiguous; everything coarser is a
// Combine over those.
type Dataset struct {
	months    []core.Month
	recentIdx []int
	byPair    map[core.CatSubcat][]Group
	pairs     []core.CatSubcat
	cats      []string
	subsByCat map[string][]core.CatSubcat
	income    []core.CatSubcat
}

// Build resolves each transaction's category through the rule list and
// aggregates amounts by (pair, month). Transactions under the reserved
// "hidden" category are kept in storage but contribute nothing here, and
// "income" is tracked but excluded from the expense rankings.
func (a *Aggregator) Build(txs []core.Transaction, rs *rules.Ruleset) *Dataset {
	ds := &Dataset{
		byPair:    map[core.CatSubcat][]Group{},
		subsByCat: map[string][]core.CatSubcat{},
	}

	amounts := map[core.CatSubcat]map[core.Month][]float64{}
	var first, last core.Month
	for _, tx := range txs {
		pair := rules.Resolve(tx, rs).Display()
		if pair.Category == core.CategoryHidden {
			continue
		}
		m := core.MonthOf(tx.Date)
		if first.IsZero() || m.Before(first) {
			first = m
		}
		if last.IsZero() || m.After(last) {
			last = m
		}
		if amounts[pair] == nil {
			amounts[pair] = map[core.Month][]float64{}
		}
		amounts[pair][m] = append(amounts[pair][m], tx.Amount)
	}
	if first.IsZero() {
		return ds
	}

	ds.months = core.MonthRange(first, last)
	ds.recentIdx = a.recentIndexes(ds.months)

	for pair, byMonth := range amounts {
		groups := make([]Group, len(ds.months))
		for i, m := range ds.months {
			groups[i] = Compute(byMonth[m])
		}
		ds.byPair[pair] = groups
	}

	ds.rank()
	return ds
}

// recentIndexes picks the trailing window used as the statistical baseline.
// The in-progress month only counts once enough of it has elapsed.
func (a *Aggregator) recentIndexes(months []core.Month) []int {
	end := core.MonthOf(a.now)
	if a.now.Day() < a.settings.RequiredDaysForLatestMonth {
		end = previousMonth(end)
	}
	start := end
	for i := 1; i < a.settings.RecentMonthCount; i++ {
		start = previousMonth(start)
	}
	var idx []int
	for i, m := range months {
		if !m.Before(start) && !m.After(end) {
			idx = append(idx, i)
		}
	}
	return idx
}

func previousMonth(m core.Month) core.Month {
	return core.MonthOf(time.Date(m.Year, m.Mon-1, 1, 0, 0, 0, 0, time.UTC))
}

// rank orders categories and pairs descending by recent total magnitude,
// with "other" always last and "income" excluded from the expense ranking.
func (ds *Dataset) rank() {
	recentTotal := func(pair core.CatSubcat) float64 {
		total := 0.0
		for _, i := range ds.recentIdx {
			total += ds.byPair[pair][i].Sum
		}
		return math.Abs(total)
	}
	allTimeTotal := func(pair core.CatSubcat) float64 {
		total := 0.0
		for _, g := range ds.byPair[pair] {
			total += g.Sum
		}
		return math.Abs(total)
	}

	catRecent := map[string]float64{}
	catAllTime := map[string]float64{}
	for pair := range ds.byPair {
		if pair.Category == core.CategoryIncome {
			ds.income = append(ds.income, pair)
			continue
		}
		ds.subsByCat[pair.Category] = append(ds.subsByCat[pair.Category], pair)
		catRecent[pair.Category] += recentTotal(pair)
		catAllTime[pair.Category] += allTimeTotal(pair)
	}

	for cat := range ds.subsByCat {
		ds.cats = append(ds.cats, cat)
	}
	sort.Slice(ds.cats, func(i, j int) bool {
		a, b := ds.cats[i], ds.cats[j]
		if (a == core.CategoryOther) != (b == core.CategoryOther) {
			return b == core.CategoryOther
		}
		if catRecent[a] != catRecent[b] {
			return catRecent[a] > catRecent[b]
		}
		if catAllTime[a] != catAllTime[b] {
			return catAllTime[a] > catAllTime[b]
		}
		return a < b
	})

	for _, subs := range ds.subsByCat {
		sort.Slice(subs, func(i, j int) bool {
			a, b := subs[i], subs[j]
			if recentTotal(a) != recentTotal(b) {
				return recentTotal(a) > recentTotal(b)
			}
			if allTimeTotal(a) != allTimeTotal(b) {
				return allTimeTotal(a) > allTimeTotal(b)
			}
			return a.Subcategory < b.Subcategory
		})
	}

	for _, cat := range ds.cats {
		ds.pairs = append(ds.pairs, ds.subsByCat[cat]...)
	}

	sort.Slice(ds.income, func(i, j int) bool {
		return ds.income[i].Subcategory < ds.income[j].Subcategory
	})
}

// Months returns the contiguous month range, oldest first.
func (ds *Dataset) Months() []core.Month { return ds.months }

// RecentIndexes are the positions within Months that form the baseline
// window.
func (ds *Dataset) RecentIndexes() []int { return ds.recentIdx }

// Categories returns the ranked expense categories.
func (ds *Dataset) Categories() []string { return ds.cats }

// Pairs returns the ranked subcategory pairs, grouped under their ranked
// parent categories.
func (ds *Dataset) Pairs() []core.CatSubcat { return ds.pairs }

// SubcatsOf returns the ranked pairs under one category.
func (ds *Dataset) SubcatsOf(cat string) []core.CatSubcat { return ds.subsByCat[cat] }

// PairMonth returns the base-granularity statistic for one pair and month
// index; absent pairs and months yield the zero group.
func (ds *Dataset) PairMonth(pair core.CatSubcat, i int) Group {
	groups, ok := ds.byPair[pair]
	if !ok || i < 0 || i >= len(groups) {
		return Group{}
	}
	return groups[i]
}

// CatMonth pools the category's subcategory statistics for one month.
func (ds *Dataset) CatMonth(cat string, i int) Group {
	subs := ds.subsByCat[cat]
	groups := make([]Group, 0, len(subs))
	for _, pair := range subs {
		groups = append(groups, ds.PairMonth(pair, i))
	}
	return Combine(groups)
}

// IncomePairs returns the income subcategory pairs, which stay out of the
// expense ranking and surface as a separate series.
func (ds *Dataset) IncomePairs() []core.CatSubcat { return ds.income }

// IncomeMonth pools every income pair for one month.
func (ds *Dataset) IncomeMonth(i int) Group {
	groups := make([]Group, 0, len(ds.income))
	for _, pair := range ds.income {
		groups = append(groups, ds.PairMonth(pair, i))
	}
	return Combine(groups)
}

// IncomeYear pools every income pair for one year.
func (ds *Dataset) IncomeYear(year int) YearGroup {
	groups := make([]Group, 0, len(ds.income))
	for _, pair := range ds.income {
		groups = append(groups, ds.PairYear(pair, year).Group)
	}
	return yearGroup(Combine(groups), len(ds.yearMonthIndexes(year)))
}

// TotalMonth pools every ranked pair for one month. Income is excluded, so
// the total matches the sum of the displayed columns.
func (ds *Dataset) TotalMonth(i int) Group {
	groups := make([]Group, 0, len(ds.pairs))
	for _, pair := range ds.pairs {
		groups = append(groups, ds.PairMonth(pair, i))
	}
	return Combine(groups)
}

// Years returns the contiguous year range covered by Months.
func (ds *Dataset) Years() []int {
	if len(ds.months) == 0 {
		return nil
	}
	var years []int
	for y := ds.months[0].Year; y <= ds.months[len(ds.months)-1].Year; y++ {
		years = append(years, y)
	}
	return years
}

// yearMonthIndexes returns the Months positions belonging to one year.
func (ds *Dataset) yearMonthIndexes(year int) []int {
	var idx []int
	for i, m := range ds.months {
		if m.Year == year {
			idx = append(idx, i)
		}
	}
	return idx
}

// PairYear pools a pair's months for one year and scales partial years to a
// full-year-equivalent run rate.
func (ds *Dataset) PairYear(pair core.CatSubcat, year int) YearGroup {
	idx := ds.yearMonthIndexes(year)
	groups := make([]Group, 0, len(idx))
	for _, i := range idx {
		groups = append(groups, ds.PairMonth(pair, i))
	}
	return yearGroup(Combine(groups), len(idx))
}

// CatYear pools the category's subcategory-year statistics.
func (ds *Dataset) CatYear(cat string, year int) YearGroup {
	subs := ds.subsByCat[cat]
	groups := make([]Group, 0, len(subs))
	for _, pair := range subs {
		groups = append(groups, ds.PairYear(pair, year).Group)
	}
	return yearGroup(Combine(groups), len(ds.yearMonthIndexes(year)))
}

// TotalYear pools every ranked pair for one year.
func (ds *Dataset) TotalYear(year int) YearGroup {
	groups := make([]Group, 0, len(ds.pairs))
	for _, pair := range ds.pairs {
		groups = append(groups, ds.PairYear(pair, year).Group)
	}
	return yearGroup(Combine(groups), len(ds.yearMonthIndexes(year)))
}

func yearGroup(g Group, monthCount int) YearGroup {
	yg := YearGroup{Group: g, MonthCount: monthCount}
	if monthCount > 0 {
		yg.Extrapolated = g.Sum * 12 / float64(monthCount)
	}
	return yg
}
