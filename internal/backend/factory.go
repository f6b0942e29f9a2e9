// Package backend selects and constructs the blob store implementation the
// rest of the application persists through.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"spendreport/internal/blob"
	"spendreport/internal/blob/filestore"
	"spendreport/internal/blob/memory"
	"spendreport/internal/blob/remote"
	"spendreport/internal/blob/sheetstore"
	"spendreport/internal/blob/sqlitestore"
	"spendreport/internal/config"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result is a constructed blob store plus its optional cleanup.
type Result struct {
	Store   blob.Store
	Cleanup CleanupFunc
}

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create builds the blob store named by cfg.DataBackend.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Result, error) {
	switch cfg.DataBackend {
	case "memory":
		f.logger.Info("Initialized memory backend")
		return &Result{Store: memory.New()}, nil

	case "file":
		store, err := filestore.New(cfg.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("initialize file backend: %w", err)
		}
		f.logger.Info("Initialized file backend", "data_directory", cfg.DataDirectory)
		return &Result{Store: store}, nil

	case "sqlite":
		store, err := sqlitestore.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		f.logger.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: store, Cleanup: store.Close}, nil

	case "remote":
		store := remote.New(cfg.RemoteURL, cfg.RemoteToken, cfg.RemoteTimeout)
		f.logger.Info("Initialized remote backend", "url", cfg.RemoteURL)
		return &Result{Store: store}, nil

	case "sheets":
		store, err := sheetstore.New(ctx, sheetstore.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize sheets backend: %w", err)
		}
		f.logger.Info("Initialized sheets backend", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		return &Result{Store: store}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}

// CreateMirror builds the mirror store the sync worker pushes snapshots to.
// Only the outward-facing backends can serve as mirrors.
func (f *Factory) CreateMirror(ctx context.Context, cfg *config.Config) (*Result, error) {
	switch cfg.MirrorBackend {
	case "remote":
		store := remote.New(cfg.RemoteURL, cfg.RemoteToken, cfg.RemoteTimeout)
		f.logger.Info("Initialized remote mirror", "url", cfg.RemoteURL)
		return &Result{Store: store}, nil

	case "sheets":
		store, err := sheetstore.New(ctx, sheetstore.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize sheets mirror: %w", err)
		}
		f.logger.Info("Initialized sheets mirror", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		return &Result{Store: store}, nil

	default:
		return nil, fmt.Errorf("unsupported mirror backend type: %s", cfg.MirrorBackend)
	}
}
