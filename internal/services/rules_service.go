package services

import (
	"context"
	"log/slog"
	"sync"

	"spendreport/internal/blob"
	"spendreport/internal/core"
	"spendreport/internal/rules"
)

// RulesService owns the category rule list: it serializes mutations,
// persists the list after each change, and announces the new version.
type RulesService struct {
	mu        sync.Mutex
	rs        *rules.Ruleset
	version   uint64
	blobs     blob.Store
	publisher Publisher
}

func NewRulesService(blobs blob.Store, publisher Publisher) *RulesService {
	return &RulesService{rs: rules.New(nil), blobs: blobs, publisher: publisher}
}

// Load restores the persisted rule list, typically once at startup.
func (s *RulesService) Load(ctx context.Context) error {
	var list []core.CategoryRule
	found, err := blob.GetJSON(ctx, s.blobs, blob.KeyRules, &list)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rs = rules.New(list)
	s.version++
	return nil
}

func (s *RulesService) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// List returns the rules in priority order.
func (s *RulesService) List() []core.CategoryRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rs.Rules()
}

// Snapshot returns an independent copy of the ruleset for read paths such
// as report generation, so matching never races a mutation.
func (s *RulesService) Snapshot() *rules.Ruleset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rules.New(s.rs.Rules())
}

func (s *RulesService) Add(ctx context.Context, rule core.CategoryRule) error {
	s.mu.Lock()
	if err := s.rs.Add(rule); err != nil {
		s.mu.Unlock()
		return err
	}
	s.finishMutationAndUnlock(ctx)
	return nil
}

// AddBulk adds rules from a CSV import, skipping duplicates and empties.
func (s *RulesService) AddBulk(ctx context.Context, list []core.CategoryRule) (added, skipped int) {
	s.mu.Lock()
	added, skipped = s.rs.AddBulk(list)
	if added == 0 {
		s.mu.Unlock()
		return added, skipped
	}
	s.finishMutationAndUnlock(ctx)
	return added, skipped
}

// ReplaceAll swaps in a whole new list, for rule exports edited elsewhere.
func (s *RulesService) ReplaceAll(ctx context.Context, list []core.CategoryRule) {
	s.mu.Lock()
	s.rs.ReplaceAll(list)
	s.finishMutationAndUnlock(ctx)
}

func (s *RulesService) Delete(ctx context.Context, matchText string) bool {
	s.mu.Lock()
	ok := s.rs.Delete(matchText)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.finishMutationAndUnlock(ctx)
	return true
}

func (s *RulesService) MoveToTop(ctx context.Context, matchText string) bool {
	s.mu.Lock()
	ok := s.rs.MoveToTop(matchText)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.finishMutationAndUnlock(ctx)
	return true
}

func (s *RulesService) MoveToBottom(ctx context.Context, matchText string) bool {
	s.mu.Lock()
	ok := s.rs.MoveToBottom(matchText)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.finishMutationAndUnlock(ctx)
	return true
}

// RenameCategory renames a category across the rule list. Returns the
// number of rules touched.
func (s *RulesService) RenameCategory(ctx context.Context, oldName, newName string) int {
	s.mu.Lock()
	touched := s.rs.RenameCategory(oldName, newName)
	if touched == 0 {
		s.mu.Unlock()
		return 0
	}
	s.finishMutationAndUnlock(ctx)
	return touched
}

// RenameSubcategory renames a subcategory within one category.
func (s *RulesService) RenameSubcategory(ctx context.Context, category, oldName, newName string) int {
	s.mu.Lock()
	touched := s.rs.RenameSubcategory(category, oldName, newName)
	if touched == 0 {
		s.mu.Unlock()
		return 0
	}
	s.finishMutationAndUnlock(ctx)
	return touched
}

// Registry returns the known taxonomy pairs, folding in manual assignments.
func (s *RulesService) Registry(manual []core.CatSubcat) []core.CatSubcat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rs.Registry(manual)
}

// finishMutationAndUnlock bumps the version, snapshots the list, unlocks,
// and fires persist and announce in the background. Callers must hold s.mu.
func (s *RulesService) finishMutationAndUnlock(ctx context.Context) {
	s.version++
	version := s.version
	snapshot := s.rs.Rules()
	s.mu.Unlock()

	go func() {
		bg := context.WithoutCancel(ctx)
		if s.blobs != nil {
			if err := blob.PutJSON(bg, s.blobs, blob.KeyRules, snapshot); err != nil {
				slog.ErrorContext(bg, "Rules persist failed", "error", err, "version", version, "count", len(snapshot))
			}
		}
		if s.publisher != nil {
			if err := s.publisher.PublishDatasetChange(bg, blob.KeyRules, version); err != nil {
				slog.ErrorContext(bg, "Rules change publish failed", "error", err, "version", version)
			}
		}
	}()
}
