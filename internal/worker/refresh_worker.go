package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"orrfdash/internal/amqp"
	"orrfdash/internal/storage"
)

// RefreshWorker reloads the in-memory dataset when the ingest pipeline
// announces a rebuild. Hooks run after a successful reload so the HTTP
// layer can drop stale response caches.
type RefreshWorker struct {
	store    *storage.Store
	onReload []func()
}

func NewRefreshWorker(store *storage.Store, onReload ...func()) *RefreshWorker {
	return &RefreshWorker{store: store, onReload: onReload}
}

// HandleRefreshMessage rebuilds the dataset snapshot. The error return puts
// the message back on the queue, so a transient reload failure retries.
func (w *RefreshWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.DatasetRefreshMessage) error {
	slog.InfoContext(ctx, "Processing dataset refresh",
		"source", msg.Source,
		"tables", msg.Tables,
		"published_at", msg.Timestamp.Format(time.RFC3339))

	start := time.Now()
	if err := w.store.Reload(ctx); err != nil {
		return fmt.Errorf("reload dataset: %w", err)
	}
	for _, hook := range w.onReload {
		hook()
	}

	slog.InfoContext(ctx, "Dataset reloaded",
		"source", msg.Source,
		"duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// Run consumes refresh messages until the context ends.
func (w *RefreshWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeDatasetRefresh(ctx, func(msg *amqp.DatasetRefreshMessage) error {
		return w.HandleRefreshMessage(ctx, msg)
	})
}
