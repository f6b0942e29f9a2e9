// Package worker mirrors dataset blobs from the primary store to a mirror
// store. Changes arrive as dataset-change messages over AMQP; a periodic
// full sync covers messages lost while the worker was down.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spendreport/internal/amqp"
	"spendreport/internal/blob"
)

// SyncWorker copies dataset blobs from primary to mirror. It remembers the
// last version it saw per key so stale or duplicate messages are skipped.
type SyncWorker struct {
	primary blob.Store
	mirror  blob.Store

	mu   sync.Mutex
	seen map[string]uint64
}

func NewSyncWorker(primary, mirror blob.Store) *SyncWorker {
	return &SyncWorker{primary: primary, mirror: mirror, seen: make(map[string]uint64)}
}

// HandleChangeMessage processes one dataset-change message by copying the
// named key. Versions are per-process counters on the producer side, so a
// message older than one already handled for the same key is a no-op.
func (w *SyncWorker) HandleChangeMessage(ctx context.Context, msg *amqp.DatasetChangeMessage) error {
	w.mu.Lock()
	if last, ok := w.seen[msg.Key]; ok && msg.Version <= last {
		w.mu.Unlock()
		slog.DebugContext(ctx, "Skipping stale change message",
			"key", msg.Key, "version", msg.Version, "seen", last)
		return nil
	}
	w.mu.Unlock()

	if err := w.copyKey(ctx, msg.Key); err != nil {
		return err
	}

	w.mu.Lock()
	if msg.Version > w.seen[msg.Key] {
		w.seen[msg.Key] = msg.Version
	}
	w.mu.Unlock()

	slog.InfoContext(ctx, "Synced dataset key",
		"key", msg.Key, "version", msg.Version, "message_id", msg.MessageID)
	return nil
}

// FullSync copies every well-known key. Used at startup and on the periodic
// timer as a backup for lost messages. Keys that fail are reported together
// after the rest have synced.
func (w *SyncWorker) FullSync(ctx context.Context) error {
	var failed []string
	for _, key := range blob.AllKeys() {
		if err := w.copyKey(ctx, key); err != nil {
			slog.ErrorContext(ctx, "Full sync key failed", "key", key, "error", err)
			failed = append(failed, key)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("full sync failed for keys %v", failed)
	}
	slog.InfoContext(ctx, "Full sync completed", "keys", len(blob.AllKeys()))
	return nil
}

// RunPeriodicSync runs FullSync every interval until the context ends.
func (w *SyncWorker) RunPeriodicSync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.FullSync(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}

// copyKey reads the key from primary and writes it to mirror when the
// contents differ. A key never stored on the primary is skipped, not
// deleted from the mirror.
func (w *SyncWorker) copyKey(ctx context.Context, key string) error {
	value, err := w.primary.Retrieve(ctx, key)
	if err != nil {
		return fmt.Errorf("retrieve %s from primary: %w", key, err)
	}
	if value == nil {
		slog.DebugContext(ctx, "Key absent on primary, skipping", "key", key)
		return nil
	}

	current, err := w.mirror.Retrieve(ctx, key)
	if err != nil {
		return fmt.Errorf("retrieve %s from mirror: %w", key, err)
	}
	if bytes.Equal(current, value) {
		return nil
	}

	if err := w.mirror.Store(ctx, key, value); err != nil {
		return fmt.Errorf("store %s to mirror: %w", key, err)
	}
	return nil
}
