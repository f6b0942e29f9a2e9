package services

import (
	"context"
	"log/slog"

	"spendreport/internal/blob"
	"spendreport/internal/core"
	"spendreport/internal/ledger"
	"spendreport/internal/rules"
)

// TransactionService exposes the transaction list and its bulk operations,
// announcing each mutation to the sync pipeline.
type TransactionService struct {
	ledger    *ledger.Store
	rules     *RulesService
	publisher Publisher
}

func NewTransactionService(ledger *ledger.Store, rules *RulesService, publisher Publisher) *TransactionService {
	return &TransactionService{ledger: ledger, rules: rules, publisher: publisher}
}

// View is a transaction with its derived category pair, which is computed
// at read time and never stored.
type View struct {
	core.Transaction
	Pair core.CatSubcat `json:"pair"`
}

// List returns all transactions newest first with categories resolved.
func (s *TransactionService) List(ctx context.Context) []View {
	rs := s.rules.Snapshot()
	txs := s.ledger.All()
	out := make([]View, len(txs))
	for i, tx := range txs {
		out[i] = View{Transaction: tx, Pair: rules.Resolve(tx, rs).Display()}
	}
	return out
}

// Delete removes transactions by id and returns the number removed.
func (s *TransactionService) Delete(ctx context.Context, ids []int64) int {
	removed := s.ledger.Delete(ids)
	if removed > 0 {
		s.announce(ctx, "delete", removed)
	}
	return removed
}

// NegateAmounts flips the amount sign on the given transactions, for
// imports with an inverted expense/income convention.
func (s *TransactionService) NegateAmounts(ctx context.Context, ids []int64) int {
	touched := s.ledger.NegateAmounts(ids)
	if touched > 0 {
		s.announce(ctx, "negate", touched)
	}
	return touched
}

// Reassign sets a manual category override; a nil pair clears it.
func (s *TransactionService) Reassign(ctx context.Context, ids []int64, pair *core.CatSubcat) int {
	touched := s.ledger.ReassignCategory(ids, pair)
	if touched > 0 {
		s.announce(ctx, "reassign", touched)
	}
	return touched
}

// Registry returns the taxonomy pairs known to rules and manual
// assignments, for category pickers.
func (s *TransactionService) Registry(ctx context.Context) []core.CatSubcat {
	return s.rules.Registry(s.ledger.ManualPairs())
}

func (s *TransactionService) announce(ctx context.Context, op string, count int) {
	version := s.ledger.Version()
	slog.InfoContext(ctx, "Transactions mutated", "operation", op, "count", count, "version", version)
	announceChange(ctx, s.publisher, blob.KeyTransactions, version)
}
