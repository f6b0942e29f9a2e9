package rules

import (
	"errors"
	"testing"

	"spendreport/internal/core"
)

func TestMatchFirstWins(t *testing.T) {
	rs := New([]core.CategoryRule{
		{Category: "shopping", Subcategory: "amazon", MatchText: "amazon"},
		{Category: "subscriptions", Subcategory: "amazon prime", MatchText: "amazon prime"},
	})

	r, ok := rs.Match("AMAZON PRIME VIDEO")
	if !ok {
		t.Fatal("no match")
	}
	// The earlier, broader rule wins; matching is priority order, not
	// best-match.
	if r.Subcategory != "amazon" {
		t.Errorf("matched %q, want the first rule", r.Subcategory)
	}

	t.Run("move to top changes outcome", func(t *testing.T) {
		if !rs.MoveToTop("amazon prime") {
			t.Fatal("MoveToTop failed")
		}
		r, _ := rs.Match("AMAZON PRIME VIDEO")
		if r.Subcategory != "amazon prime" {
			t.Errorf("matched %q after reorder, want amazon prime", r.Subcategory)
		}
	})
}

func TestMatchCaseInsensitiveSubstring(t *testing.T) {
	rs := New([]core.CategoryRule{{Category: "food", Subcategory: "groceries", MatchText: "Trader Joes"}})
	if _, ok := rs.Match("TRADER JOES #552 AUSTIN TX"); !ok {
		t.Error("case-insensitive substring should match")
	}
	if _, ok := rs.Match("TRADER BOBS"); ok {
		t.Error("unrelated name should not match")
	}
}

func TestAddRejectsDuplicates(t *testing.T) {
	rs := New(nil)
	if err := rs.Add(core.CategoryRule{Category: "food", Subcategory: "coffee", MatchText: "Starbucks"}); err != nil {
		t.Fatal(err)
	}
	err := rs.Add(core.CategoryRule{Category: "other", Subcategory: "misc", MatchText: "STARBUCKS"})
	if !errors.Is(err, core.ErrDuplicateRule) {
		t.Fatalf("got %v, want ErrDuplicateRule", err)
	}

	added, skipped := rs.AddBulk([]core.CategoryRule{
		{Category: "a", Subcategory: "b", MatchText: "starbucks"},
		{Category: "a", Subcategory: "b", MatchText: "heb"},
	})
	if added != 1 || skipped != 1 {
		t.Errorf("AddBulk = (%d added, %d skipped), want (1, 1)", added, skipped)
	}
}

func TestReplaceAllAllowsOverwrite(t *testing.T) {
	rs := New([]core.CategoryRule{{Category: "food", Subcategory: "coffee", MatchText: "starbucks"}})
	rs.ReplaceAll([]core.CategoryRule{
		{Category: "fun", Subcategory: "treats", MatchText: "starbucks"},
		{Category: "food", Subcategory: "groceries", MatchText: "heb"},
	})
	r, ok := rs.Match("STARBUCKS 123")
	if !ok || r.Category != "fun" {
		t.Errorf("replace-all did not take effect: %+v ok=%v", r, ok)
	}
	if rs.Len() != 2 {
		t.Errorf("Len = %d, want 2", rs.Len())
	}
}

func TestMoveAndDeletePreserveOrder(t *testing.T) {
	rs := New([]core.CategoryRule{
		{Category: "a", Subcategory: "1", MatchText: "one"},
		{Category: "a", Subcategory: "2", MatchText: "two"},
		{Category: "a", Subcategory: "3", MatchText: "three"},
	})
	rs.MoveToBottom("one")
	rs.Delete("three")
	got := rs.Rules()
	if len(got) != 2 || got[0].MatchText != "two" || got[1].MatchText != "one" {
		t.Errorf("order after move/delete: %+v", got)
	}
}

func TestRenamePropagation(t *testing.T) {
	rs := New([]core.CategoryRule{
		{Category: "food", Subcategory: "coffee", MatchText: "starbucks"},
		{Category: "food", Subcategory: "groceries", MatchText: "heb"},
		{Category: "travel", Subcategory: "flights", MatchText: "united"},
	})
	if n := rs.RenameCategory("food", "dining"); n != 2 {
		t.Errorf("RenameCategory touched %d, want 2", n)
	}
	if n := rs.RenameSubcategory("dining", "coffee", "cafes"); n != 1 {
		t.Errorf("RenameSubcategory touched %d, want 1", n)
	}
	got := rs.Rules()
	if got[0].Category != "dining" || got[0].Subcategory != "cafes" {
		t.Errorf("first rule after renames: %+v", got[0])
	}
	if got[0].MatchText != "starbucks" || got[2].Category != "travel" {
		t.Errorf("rename touched unrelated fields: %+v", got)
	}
}

func TestResolvePrecedence(t *testing.T) {
	rs := New([]core.CategoryRule{{Category: "food", Subcategory: "coffee", MatchText: "starbucks"}})

	t.Run("manual override wins", func(t *testing.T) {
		tx := core.Transaction{Name: "STARBUCKS 42", ManualCat: &core.CatSubcat{Category: "fun", Subcategory: "treats"}}
		if got := Resolve(tx, rs); got.Category != "fun" {
			t.Errorf("Resolve = %+v, want manual override", got)
		}
	})

	t.Run("rule match", func(t *testing.T) {
		tx := core.Transaction{Name: "STARBUCKS 42"}
		if got := Resolve(tx, rs); got.Subcategory != "coffee" {
			t.Errorf("Resolve = %+v, want rule match", got)
		}
	})

	t.Run("no match is empty pair", func(t *testing.T) {
		tx := core.Transaction{Name: "MYSTERY VENDOR"}
		got := Resolve(tx, rs)
		if !got.Uncategorized() {
			t.Errorf("Resolve = %+v, want empty pair", got)
		}
		disp := got.Display()
		if disp.Category != core.CategoryOther || disp.Subcategory != core.SubcategoryUncategorized {
			t.Errorf("Display = %+v", disp)
		}
	})
}

func TestRegistryFloorAndManualPairs(t *testing.T) {
	rs := New([]core.CategoryRule{{Category: "food", Subcategory: "coffee", MatchText: "starbucks"}})
	pairs := rs.Registry([]core.CatSubcat{{Category: "travel", Subcategory: "hotels"}, {}})

	want := map[core.CatSubcat]bool{}
	want[core.CatSubcat{Category: "food", Subcategory: "coffee"}] = true
	want[core.CatSubcat{Category: "travel", Subcategory: "hotels"}] = true
	want[core.CatSubcat{Category: core.CategoryOther, Subcategory: core.SubcategoryUncategorized}] = true
	if len(pairs) != len(want) {
		t.Fatalf("got %d pairs: %+v", len(pairs), pairs)
	}
	for _, p := range pairs {
		if !want[p] {
			t.Errorf("unexpected pair %+v", p)
		}
	}
}
