package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"spendreport/internal/blob"
	"spendreport/internal/core"
	"spendreport/internal/inference"
	"spendreport/internal/ledger"
	"spendreport/internal/rules"
)

// ImportService turns raw CSV grids into stored transactions: column
// inference, duplicate detection, preview, and commit.
type ImportService struct {
	ledger    *ledger.Store
	rules     *RulesService
	publisher Publisher
}

func NewImportService(ledger *ledger.Store, rules *RulesService, publisher Publisher) *ImportService {
	return &ImportService{ledger: ledger, rules: rules, publisher: publisher}
}

// PreviewRow is one inferred row with its derived category and duplicate
// flag, for user review before commit.
type PreviewRow struct {
	inference.Row
	Pair      core.CatSubcat `json:"pair"`
	Duplicate bool           `json:"duplicate"`
}

// Preview is the inferred shape of an import before anything is stored.
type Preview struct {
	Headers      []string              `json:"headers,omitempty"`
	Columns      inference.ColumnRoles `json:"columns"`
	Rows         []PreviewRow          `json:"rows"`
	ValidCount   int                   `json:"validCount"`
	InvalidCount int                   `json:"invalidCount"`
}

// Selection controls which preview rows a commit stores. Row indexes refer
// to the preview's row order. With no explicit rows every valid
// non-duplicate row is selected; IncludeDuplicates widens the default
// selection to duplicates as well.
type Selection struct {
	Rows              []int
	IncludeDuplicates bool
}

// Result describes a committed import. Duplicates counts the duplicate rows
// left out of the commit.
type Result struct {
	BatchID    string `json:"batchId"`
	Imported   int    `json:"imported"`
	Skipped    int    `json:"skipped"`
	Duplicates int    `json:"duplicates"`
}

// Preview runs column inference over the grid and derives each row's
// category and duplicate status. Nothing is stored. Returns
// core.ErrAmbiguousColumns for grids whose schema cannot be resolved.
func (s *ImportService) Preview(ctx context.Context, rawRows [][]string) (*Preview, error) {
	grid, err := inference.InferColumns(rawRows)
	if err != nil {
		return nil, fmt.Errorf("infer columns: %w", err)
	}

	rs := s.rules.Snapshot()
	preview := &Preview{Headers: grid.Headers, Columns: grid.Columns, Rows: make([]PreviewRow, 0, len(grid.Rows))}
	for _, row := range grid.Rows {
		pr := PreviewRow{Row: row}
		if row.Valid() {
			pr.Pair = resolveRow(row, rs)
			pr.Duplicate = s.ledger.IsDuplicate(row.Date, row.Name, row.Amount)
			preview.ValidCount++
		} else {
			preview.InvalidCount++
		}
		preview.Rows = append(preview.Rows, pr)
	}
	return preview, nil
}

// Commit re-runs inference and stores the selected rows. Invalid rows are
// always skipped and counted. Duplicate rows are left out unless the
// selection names them explicitly or opts into duplicates wholesale.
// Imported grids with a category column carry it over as a manual
// assignment.
func (s *ImportService) Commit(ctx context.Context, rawRows [][]string, source string, sel Selection) (*Result, error) {
	grid, err := inference.InferColumns(rawRows)
	if err != nil {
		return nil, fmt.Errorf("infer columns: %w", err)
	}

	explicit := make(map[int]bool, len(sel.Rows))
	for _, i := range sel.Rows {
		explicit[i] = true
	}

	result := &Result{BatchID: uuid.NewString()}
	txs := make([]core.Transaction, 0, len(grid.Rows))
	for i, row := range grid.Rows {
		if !row.Valid() {
			result.Skipped++
			continue
		}
		if len(sel.Rows) > 0 && !explicit[i] {
			result.Skipped++
			continue
		}
		if s.ledger.IsDuplicate(row.Date, row.Name, row.Amount) {
			if len(sel.Rows) == 0 && !sel.IncludeDuplicates {
				result.Duplicates++
				continue
			}
		}
		tx := core.Transaction{Date: row.Date, Name: row.Name, Amount: row.Amount}
		if row.Category != "" {
			tx.ManualCat = &core.CatSubcat{Category: row.Category, Subcategory: row.Subcategory}
		}
		txs = append(txs, tx)
	}

	if len(txs) > 0 {
		stored := s.ledger.Add(txs, source)
		result.Imported = len(stored)
	}

	version := s.ledger.Version()
	slog.InfoContext(ctx, "Import committed",
		"batch_id", result.BatchID,
		"source", source,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"duplicates", result.Duplicates,
		"version", version)

	if result.Imported > 0 {
		announceChange(ctx, s.publisher, blob.KeyTransactions, version)
	}
	return result, nil
}

func resolveRow(row inference.Row, rs *rules.Ruleset) core.CatSubcat {
	tx := core.Transaction{Name: row.Name}
	if row.Category != "" {
		tx.ManualCat = &core.CatSubcat{Category: row.Category, Subcategory: row.Subcategory}
	}
	return rules.Resolve(tx, rs).Display()
}

// announceChange fires a best-effort dataset-change publish in the
// background; a broker outage never fails the request.
func announceChange(ctx context.Context, publisher Publisher, key string, version uint64) {
	if publisher == nil {
		return
	}
	go func() {
		bg := context.WithoutCancel(ctx)
		if err := publisher.PublishDatasetChange(bg, key, version); err != nil {
			slog.ErrorContext(bg, "Dataset change publish failed", "error", err, "key", key, "version", version)
		}
	}()
}
