package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spendreport/internal/blob"
	"spendreport/internal/core"
	"spendreport/internal/generator"
	"spendreport/internal/ledger"
)

// RecurringService owns the recurring-transaction templates and runs the
// due ones, appending generated transactions to the ledger and advancing
// each template's cursor.
type RecurringService struct {
	mu        sync.Mutex
	gens      []core.Generator
	version   uint64
	ledger    *ledger.Store
	blobs     blob.Store
	publisher Publisher
	now       func() time.Time
}

func NewRecurringService(ledger *ledger.Store, blobs blob.Store, publisher Publisher) *RecurringService {
	return &RecurringService{ledger: ledger, blobs: blobs, publisher: publisher, now: time.Now}
}

// Load restores the persisted template list, typically once at startup.
func (s *RecurringService) Load(ctx context.Context) error {
	var gens []core.Generator
	found, err := blob.GetJSON(ctx, s.blobs, blob.KeyGenerators, &gens)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens = gens
	s.version++
	return nil
}

func (s *RecurringService) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// List returns the templates in creation order.
func (s *RecurringService) List() []core.Generator {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Generator, len(s.gens))
	copy(out, s.gens)
	return out
}

// Add validates and stores a new template. Names are unique; the cursor
// starts at the start month so the first run backfills from there.
func (s *RecurringService) Add(ctx context.Context, g core.Generator) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if g.NextMonth.IsZero() {
		g.NextMonth = g.StartMonth
	}
	s.mu.Lock()
	for _, existing := range s.gens {
		if existing.Name == g.Name {
			s.mu.Unlock()
			return fmt.Errorf("%w: %q", core.ErrDuplicateGenerator, g.Name)
		}
	}
	s.gens = append(s.gens, g)
	s.finishMutationAndUnlock(ctx)
	return nil
}

// Delete removes the named template. Transactions it already generated stay.
func (s *RecurringService) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	for i, g := range s.gens {
		if g.Name == name {
			s.gens = append(s.gens[:i], s.gens[i+1:]...)
			s.finishMutationAndUnlock(ctx)
			return nil
		}
	}
	s.mu.Unlock()
	return fmt.Errorf("%w: %q", core.ErrUnknownGenerator, name)
}

// RunDue projects every template up to now, stores the emitted transactions,
// and advances the cursors. Returns the total number of transactions added.
// A template that fails to project is logged and skipped; the others still
// run.
func (s *RecurringService) RunDue(ctx context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	gens := make([]core.Generator, len(s.gens))
	copy(gens, s.gens)
	s.mu.Unlock()

	added := 0
	cursors := make(map[string]core.Month, len(gens))
	for _, g := range gens {
		txs, cursor, err := generator.Project(ctx, g, now)
		if err != nil {
			slog.ErrorContext(ctx, "Generator projection failed", "generator", g.Name, "error", err)
			continue
		}
		if len(txs) > 0 {
			s.ledger.Add(txs, "generator:"+g.Name)
			added += len(txs)
			slog.InfoContext(ctx, "Generator emitted transactions", "generator", g.Name, "count", len(txs), "cursor", cursor.String())
		}
		if cursor != g.NextMonth {
			cursors[g.Name] = cursor
		}
	}

	if len(cursors) > 0 {
		s.mu.Lock()
		for i := range s.gens {
			if cursor, ok := cursors[s.gens[i].Name]; ok {
				s.gens[i].NextMonth = cursor
			}
		}
		s.finishMutationAndUnlock(ctx)
	}
	if added > 0 {
		announceChange(ctx, s.publisher, blob.KeyTransactions, s.ledger.Version())
	}
	return added, nil
}

// finishMutationAndUnlock bumps the version, snapshots the list, unlocks,
// and fires persist and announce in the background. Callers must hold s.mu.
func (s *RecurringService) finishMutationAndUnlock(ctx context.Context) {
	s.version++
	version := s.version
	snapshot := make([]core.Generator, len(s.gens))
	copy(snapshot, s.gens)
	s.mu.Unlock()

	go func() {
		bg := context.WithoutCancel(ctx)
		if s.blobs != nil {
			if err := blob.PutJSON(bg, s.blobs, blob.KeyGenerators, snapshot); err != nil {
				slog.ErrorContext(bg, "Generators persist failed", "error", err, "version", version, "count", len(snapshot))
			}
		}
		if s.publisher != nil {
			if err := s.publisher.PublishDatasetChange(bg, blob.KeyGenerators, version); err != nil {
				slog.ErrorContext(bg, "Generators change publish failed", "error", err, "version", version)
			}
		}
	}()
}
