package services

import (
	"context"
	"log/slog"
	"sync"

	"spendreport/internal/blob"
	"spendreport/internal/core"
)

// SettingsService owns the report settings: environment defaults at
// startup, overridden by the persisted settings blob, overridden by user
// updates.
type SettingsService struct {
	mu        sync.Mutex
	settings  core.Settings
	version   uint64
	blobs     blob.Store
	publisher Publisher
}

func NewSettingsService(defaults core.Settings, blobs blob.Store, publisher Publisher) *SettingsService {
	return &SettingsService{settings: defaults.Sanitized(), blobs: blobs, publisher: publisher}
}

// Load restores persisted settings, keeping defaults when none were saved.
func (s *SettingsService) Load(ctx context.Context) error {
	var saved core.Settings
	found, err := blob.GetJSON(ctx, s.blobs, blob.KeySettings, &saved)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = saved.Sanitized()
	s.version++
	return nil
}

func (s *SettingsService) Get() core.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *SettingsService) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Update replaces the settings, sanitizing out-of-range values, and
// returns the stored result.
func (s *SettingsService) Update(ctx context.Context, settings core.Settings) core.Settings {
	s.mu.Lock()
	s.settings = settings.Sanitized()
	s.version++
	stored := s.settings
	version := s.version
	s.mu.Unlock()

	go func() {
		bg := context.WithoutCancel(ctx)
		if s.blobs != nil {
			if err := blob.PutJSON(bg, s.blobs, blob.KeySettings, stored); err != nil {
				slog.ErrorContext(bg, "Settings persist failed", "error", err, "version", version)
			}
		}
		if s.publisher != nil {
			if err := s.publisher.PublishDatasetChange(bg, blob.KeySettings, version); err != nil {
				slog.ErrorContext(bg, "Settings change publish failed", "error", err, "version", version)
			}
		}
	}()
	return stored
}
