// Package sheetstore is the Google Sheets blob store backend: one worksheet
// where column A holds the key and column B the JSON value. Useful when the
// dataset should stay inspectable in a spreadsheet the user already owns.
package sheetstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"spendreport/internal/blob"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ blob.Store = (*Store)(nil)

// Config carries the spreadsheet coordinates and service account
// credentials. Exactly one of CredentialsJSON and CredentialsFile must be
// set.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Blobs"
	}

	credentials := []byte(cfg.CredentialsJSON)
	if len(credentials) == 0 {
		if strings.TrimSpace(cfg.CredentialsFile) == "" {
			return nil, errors.New("missing service account credentials")
		}
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentials = b
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Store{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: sheetName}, nil
}

// rowOf returns the 1-based row holding the key, or 0 when absent, plus the
// number of occupied rows.
func (s *Store) rowOf(ctx context.Context, key string) (row, occupied int, err error) {
	rng := fmt.Sprintf("%s!A:A", s.sheetName)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, 0, fmt.Errorf("read key column %s: %w", rng, err)
	}
	for i, r := range resp.Values {
		if len(r) > 0 && strings.TrimSpace(fmt.Sprint(r[0])) == key {
			return i + 1, len(resp.Values), nil
		}
	}
	return 0, len(resp.Values), nil
}

func (s *Store) Store(ctx context.Context, key string, value []byte) error {
	row, occupied, err := s.rowOf(ctx, key)
	if err != nil {
		return fmt.Errorf("store blob %q: %w", key, err)
	}
	if row == 0 {
		row = occupied + 1
	}

	rng := fmt.Sprintf("%s!A%d:B%d", s.sheetName, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{{key, string(value)}}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("store blob %q in %s: %w", key, rng, err)
	}
	return nil
}

func (s *Store) Retrieve(ctx context.Context, key string) ([]byte, error) {
	row, _, err := s.rowOf(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("retrieve blob %q: %w", key, err)
	}
	if row == 0 {
		return nil, nil
	}

	rng := fmt.Sprintf("%s!B%d", s.sheetName, row)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("retrieve blob %q from %s: %w", key, rng, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return nil, nil
	}
	return []byte(fmt.Sprint(resp.Values[0][0])), nil
}
