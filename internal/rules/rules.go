// Package rules implements the ordered category rule list and the taxonomy
// registry derived from it. Matching is case-insensitive substring,
// first-match-wins: the list order is a user-controlled priority list, so a
// later, broader rule never overrides an earlier, more specific one.
package rules

import (
	"sort"
	"strings"

	"spendreport/internal/core"
)

// Ruleset is the ordered list of category rules. It is not safe for
// concurrent mutation; the owning service serializes access.
type Ruleset struct {
	rules []core.CategoryRule
}

// New builds a ruleset, normalizing match text. Rules with empty match text
// and rules whose match text duplicates an earlier one are dropped.
func New(list []core.CategoryRule) *Ruleset {
	rs := &Ruleset{}
	for _, r := range list {
		_ = rs.Add(r)
	}
	return rs
}

// Rules returns a copy of the list in priority order.
func (rs *Ruleset) Rules() []core.CategoryRule {
	out := make([]core.CategoryRule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

func (rs *Ruleset) Len() int {
	return len(rs.rules)
}

// Match returns the first rule whose match text is a substring of the
// transaction name, case-insensitively.
func (rs *Ruleset) Match(name string) (core.CategoryRule, bool) {
	lower := strings.ToLower(name)
	for _, r := range rs.rules {
		if strings.Contains(lower, r.MatchText) {
			return r, true
		}
	}
	return core.CategoryRule{}, false
}

func (rs *Ruleset) indexOf(matchText string) int {
	matchText = strings.ToLower(strings.TrimSpace(matchText))
	for i, r := range rs.rules {
		if r.MatchText == matchText {
			return i
		}
	}
	return -1
}

// Add appends a rule at the lowest priority. A rule whose match text equals
// an existing rule's match text (case-insensitively) is a duplicate and is
// rejected.
func (rs *Ruleset) Add(rule core.CategoryRule) error {
	rule = rule.Normalized()
	if rule.MatchText == "" {
		return core.ErrEmptyMatchText
	}
	if rs.indexOf(rule.MatchText) >= 0 {
		return core.ErrDuplicateRule
	}
	rs.rules = append(rs.rules, rule)
	return nil
}

// AddBulk adds each rule in order, counting duplicates and empties instead
// of failing, for CSV rule imports.
func (rs *Ruleset) AddBulk(list []core.CategoryRule) (added, skipped int) {
	for _, r := range list {
		if err := rs.Add(r); err != nil {
			skipped++
			continue
		}
		added++
	}
	return added, skipped
}

// ReplaceAll swaps in a whole new list atomically, preserving the caller's
// order. Duplicate match texts collapse to the first occurrence.
func (rs *Ruleset) ReplaceAll(list []core.CategoryRule) {
	rs.rules = rs.rules[:0]
	for _, r := range list {
		_ = rs.Add(r)
	}
}

// Delete removes the rule with the given match text.
func (rs *Ruleset) Delete(matchText string) bool {
	i := rs.indexOf(matchText)
	if i < 0 {
		return false
	}
	rs.rules = append(rs.rules[:i], rs.rules[i+1:]...)
	return true
}

// MoveToTop gives the rule the highest priority.
func (rs *Ruleset) MoveToTop(matchText string) bool {
	i := rs.indexOf(matchText)
	if i < 0 {
		return false
	}
	r := rs.rules[i]
	rs.rules = append(rs.rules[:i], rs.rules[i+1:]...)
	rs.rules = append([]core.CategoryRule{r}, rs.rules...)
	return true
}

// MoveToBottom gives the rule the lowest priority.
func (rs *Ruleset) MoveToBottom(matchText string) bool {
	i := rs.indexOf(matchText)
	if i < 0 {
		return false
	}
	r := rs.rules[i]
	rs.rules = append(rs.rules[:i], rs.rules[i+1:]...)
	rs.rules = append(rs.rules, r)
	return true
}

// RenameCategory rewrites the category field of every rule under the old
// name, preserving order. Returns the number of rules touched.
func (rs *Ruleset) RenameCategory(oldName, newName string) int {
	touched := 0
	for i := range rs.rules {
		if rs.rules[i].Category == oldName {
			rs.rules[i].Category = newName
			touched++
		}
	}
	return touched
}

// RenameSubcategory rewrites the subcategory field of rules under the given
// category. Returns the number of rules touched.
func (rs *Ruleset) RenameSubcategory(category, oldName, newName string) int {
	touched := 0
	for i := range rs.rules {
		if rs.rules[i].Category == category && rs.rules[i].Subcategory == oldName {
			rs.rules[i].Subcategory = newName
			touched++
		}
	}
	return touched
}

// Resolve derives the displayed category pair for a transaction: the manual
// override wins, then the first matching rule, then the empty
// "uncategorized" pair. It is a pure function of (transaction, rules); the
// result is never written back to the transaction.
func Resolve(tx core.Transaction, rs *Ruleset) core.CatSubcat {
	if tx.ManualCat != nil {
		return *tx.ManualCat
	}
	if r, ok := rs.Match(tx.Name); ok {
		return core.CatSubcat{Category: r.Category, Subcategory: r.Subcategory}
	}
	return core.CatSubcat{}
}

// Registry returns the distinct (category, subcategory) pairs known to the
// taxonomy: every pair named by a rule plus every manually assigned pair,
// with the other/uncategorized floor always present. Pairs are sorted by
// category then subcategory for stable output.
func (rs *Ruleset) Registry(manual []core.CatSubcat) []core.CatSubcat {
	seen := map[core.CatSubcat]struct{}{}
	out := []core.CatSubcat{}
	add := func(c core.CatSubcat) {
		c = c.Display()
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	add(core.CatSubcat{Category: core.CategoryOther, Subcategory: core.SubcategoryUncategorized})
	for _, r := range rs.rules {
		add(core.CatSubcat{Category: r.Category, Subcategory: r.Subcategory})
	}
	for _, m := range manual {
		add(m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Subcategory < out[j].Subcategory
	})
	return out
}
