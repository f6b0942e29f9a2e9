package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendreport/internal/cache"
	"spendreport/internal/ledger"
	"spendreport/internal/report"
	"spendreport/internal/stats"
)

// ReportService builds datasets and serves report grids and chart
// aggregates, caching derived views keyed by the combined dataset version
// so unchanged data never recomputes.
type ReportService struct {
	ledger   *ledger.Store
	rules    *RulesService
	settings *SettingsService
	now      func() time.Time

	reports *cache.LRUCache[*report.Report]
	donuts  *cache.LRUCache[report.DonutData]
	bars    *cache.LRUCache[report.BarData]
}

func NewReportService(ledger *ledger.Store, rules *RulesService, settings *SettingsService, size int, ttl time.Duration) *ReportService {
	return &ReportService{
		ledger:   ledger,
		rules:    rules,
		settings: settings,
		now:      time.Now,
		reports:  cache.NewLRUCache[*report.Report](size, ttl),
		donuts:   cache.NewLRUCache[report.DonutData](size, ttl),
		bars:     cache.NewLRUCache[report.BarData](size, ttl),
	}
}

// RegisterCaches wires the derived-view caches into the cleanup manager.
func (s *ReportService) RegisterCaches(m *cache.Manager) {
	m.Register(s.reports)
	m.Register(s.donuts)
	m.Register(s.bars)
}

// Report returns the period-by-category grid for one period and granularity.
func (s *ReportService) Report(ctx context.Context, period report.Period, grain report.Granularity) *report.Report {
	key := fmt.Sprintf("report:%s:%s:%s", period, grain, s.version())
	if cached, ok := s.reports.Get(key); ok {
		return cached
	}
	rpt := s.generator(ctx).Generate(period, grain)
	s.reports.Set(key, rpt)
	return rpt
}

// Donut returns the recent-window share-of-spending aggregate.
func (s *ReportService) Donut(ctx context.Context, grain report.Granularity) report.DonutData {
	key := fmt.Sprintf("donut:%s:%s", grain, s.version())
	if cached, ok := s.donuts.Get(key); ok {
		return cached
	}
	data := s.generator(ctx).Donut(grain)
	s.donuts.Set(key, data)
	return data
}

// Bar returns the recent-window month-by-month aggregate.
func (s *ReportService) Bar(ctx context.Context, grain report.Granularity) report.BarData {
	key := fmt.Sprintf("bar:%s:%s", grain, s.version())
	if cached, ok := s.bars.Get(key); ok {
		return cached
	}
	data := s.generator(ctx).Bar(grain)
	s.bars.Set(key, data)
	return data
}

func (s *ReportService) generator(ctx context.Context) *report.Generator {
	start := time.Now()
	settings := s.settings.Get()
	txs := s.ledger.All()
	ds := stats.NewAggregator(settings, s.now()).Build(txs, s.rules.Snapshot())
	slog.DebugContext(ctx, "Dataset built", "transactions", len(txs), "duration_ms", time.Since(start).Milliseconds())
	return report.NewGenerator(settings, ds)
}

// version combines the input versions; any mutation to transactions, rules,
// or settings changes the key and invalidates cached views.
func (s *ReportService) version() string {
	return fmt.Sprintf("v%d.%d.%d", s.ledger.Version(), s.rules.Version(), s.settings.Version())
}
