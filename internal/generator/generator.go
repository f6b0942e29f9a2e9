// Package generator projects recurring-transaction definitions into concrete
// transactions, one per calendar month, with a resumable cursor so repeated
// runs never re-emit a past period.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendreport/internal/core"
)

// runawayPeriods aborts a projection that would span an absurd number of
// months, which only happens with a corrupted or misconfigured definition.
const runawayPeriods = 10000

// Project emits the transactions due between the generator's cursor and now,
// and returns the advanced cursor. The first run starts at StartMonth; later
// runs resume at NextMonth. The day of month is clamped to the target
// month's length. A definition spanning more than 10,000 periods is refused
// outright and emits nothing.
func Project(ctx context.Context, g core.Generator, now time.Time) ([]core.Transaction, core.Month, error) {
	if err := g.Validate(); err != nil {
		return nil, g.NextMonth, err
	}

	start := g.NextMonth
	if start.IsZero() {
		start = g.StartMonth
	}

	last := core.MonthOf(now)
	if g.EndMonth != nil && g.EndMonth.Before(last) {
		last = *g.EndMonth
	}
	if last.Before(start) {
		return nil, start, nil
	}

	if periods := core.MonthsBetween(start, last) + 1; periods > runawayPeriods {
		slog.WarnContext(ctx, "Generator projection aborted", "generator", g.Name, "periods", periods)
		return nil, g.NextMonth, fmt.Errorf("%w: %q spans %d periods", core.ErrGeneratorRunaway, g.Name, periods)
	}

	pair := core.CatSubcat{Category: g.Category, Subcategory: g.Subcategory}
	var out []core.Transaction
	cursor := start
	for m := start; !m.After(last); m = m.Next() {
		date := m.Date(g.DayOfMonth)
		if date.After(now) {
			break
		}
		out = append(out, core.Transaction{
			Date:      date,
			Name:      g.Name,
			Amount:    g.Amount,
			ManualCat: &pair,
		})
		cursor = m.Next()
	}
	return out, cursor, nil
}
