// Package ledger holds the in-memory transaction store. Transactions are
// immutable once stored except through the named bulk operations; every
// mutation applies in memory first, bumps the dataset version, and fires a
// background persist of the full list to the blob store.
package ledger

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"spendreport/internal/blob"
	"spendreport/internal/core"
)

// Store owns the transaction list. Reads always reflect the most recent
// completed mutation; persistence is eventually consistent with storage.
type Store struct {
	mu      sync.Mutex
	txs     []core.Transaction
	nextID  int64
	version uint64
	blobs   blob.Store
	now     func() time.Time
}

func New(blobs blob.Store) *Store {
	return &Store{nextID: 1, blobs: blobs, now: time.Now}
}

// Load restores the persisted transaction list, typically once at startup.
func (s *Store) Load(ctx context.Context) error {
	var txs []core.Transaction
	found, err := blob.GetJSON(ctx, s.blobs, blob.KeyTransactions, &txs)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = txs
	for _, tx := range txs {
		if tx.ID >= s.nextID {
			s.nextID = tx.ID + 1
		}
	}
	s.version++
	return nil
}

// Version is a counter bumped on every mutation, used by derived-view
// caches to know when their inputs changed.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Add stores new transactions under the given import source label,
// assigning fresh monotonically increasing ids. Returns the stored copies.
func (s *Store) Add(list []core.Transaction, source string) []core.Transaction {
	s.mu.Lock()
	importDate := s.now()
	stored := make([]core.Transaction, 0, len(list))
	for _, tx := range list {
		tx.ID = s.nextID
		s.nextID++
		tx.ImportDate = importDate
		tx.ImportSource = source
		tx.Date = core.Midnight(tx.Date)
		s.txs = append(s.txs, tx)
		stored = append(stored, tx)
	}
	s.finishMutationAndUnlock()
	return stored
}

// All returns the transactions sorted newest first by date, ties broken by
// descending id so recent imports stay on top.
func (s *Store) All() []core.Transaction {
	s.mu.Lock()
	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Delete removes the transactions with the given ids. Ids are never reused.
func (s *Store) Delete(ids []int64) int {
	idSet := toSet(ids)
	s.mu.Lock()
	kept := s.txs[:0]
	removed := 0
	for _, tx := range s.txs {
		if _, ok := idSet[tx.ID]; ok {
			removed++
			continue
		}
		kept = append(kept, tx)
	}
	s.txs = kept
	s.finishMutationAndUnlock()
	return removed
}

// NegateAmounts flips the sign of the given transactions' amounts, for
// imports whose expense/income convention was inverted.
func (s *Store) NegateAmounts(ids []int64) int {
	idSet := toSet(ids)
	s.mu.Lock()
	touched := 0
	for i := range s.txs {
		if _, ok := idSet[s.txs[i].ID]; ok {
			s.txs[i].Amount = -s.txs[i].Amount
			touched++
		}
	}
	s.finishMutationAndUnlock()
	return touched
}

// ReassignCategory sets (or, with a nil pair, clears) the manual category
// override on the given transactions. Only the override is stored; the
// displayed category stays a derived value.
func (s *Store) ReassignCategory(ids []int64, pair *core.CatSubcat) int {
	idSet := toSet(ids)
	s.mu.Lock()
	touched := 0
	for i := range s.txs {
		if _, ok := idSet[s.txs[i].ID]; !ok {
			continue
		}
		if pair == nil {
			s.txs[i].ManualCat = nil
		} else {
			p := *pair
			s.txs[i].ManualCat = &p
		}
		touched++
	}
	s.finishMutationAndUnlock()
	return touched
}

// IsDuplicate reports whether a transaction with the same date, amount, and
// case-insensitively equal name already exists. Used to warn on re-imports.
func (s *Store) IsDuplicate(date time.Time, name string, amount float64) bool {
	date = core.Midnight(date)
	lower := strings.ToLower(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs {
		if tx.Amount == amount && tx.Date.Equal(date) && strings.ToLower(tx.Name) == lower {
			return true
		}
	}
	return false
}

// ManualPairs returns the distinct manually assigned category pairs, which
// the registry folds into the taxonomy.
func (s *Store) ManualPairs() []core.CatSubcat {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[core.CatSubcat]struct{}{}
	var out []core.CatSubcat
	for _, tx := range s.txs {
		if tx.ManualCat == nil {
			continue
		}
		if _, ok := seen[*tx.ManualCat]; ok {
			continue
		}
		seen[*tx.ManualCat] = struct{}{}
		out = append(out, *tx.ManualCat)
	}
	return out
}

// finishMutationAndUnlock increments the version, snapshots the list, unlocks,
// and fires the persist in the background. Callers must hold s.mu.
func (s *Store) finishMutationAndUnlock() {
	s.version++
	snapshot := make([]core.Transaction, len(s.txs))
	copy(snapshot, s.txs)
	version := s.version
	s.mu.Unlock()

	if s.blobs == nil {
		return
	}
	go func() {
		ctx := context.Background()
		if err := blob.PutJSON(ctx, s.blobs, blob.KeyTransactions, snapshot); err != nil {
			// A failed persist leaves the session usable but unsaved;
			// in-memory state is already applied.
			slog.ErrorContext(ctx, "Transaction persist failed", "error", err, "version", version, "count", len(snapshot))
		}
	}()
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
