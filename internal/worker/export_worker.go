// Package worker exports persisted ledger entries to the backup sheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"recibo/internal/amqp"
	"recibo/internal/core"
	"recibo/internal/ledger"
	"recibo/internal/sheets"
)

// ExportWorker moves persisted entries to the backup sheet. Primary path is
// AMQP entry-created messages; a periodic reconciliation scan covers lost
// messages and worker downtime.
type ExportWorker struct {
	entries   ledger.EntryStore
	queue     ledger.ExportQueue
	appender  sheets.EntryAppender
	batchSize int
}

func NewExportWorker(entries ledger.EntryStore, queue ledger.ExportQueue, appender sheets.EntryAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		entries:   entries,
		queue:     queue,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleEntryCreated processes one entry-created message: fetch the entry,
// append it, mark it exported.
func (w *ExportWorker) HandleEntryCreated(ctx context.Context, msg *amqp.EntryCreatedMessage) error {
	slog.InfoContext(ctx, "Processing entry-created message",
		"id", msg.ID,
		"version", msg.Version)

	entry, err := w.entries.GetEntry(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get entry from storage: %w", err)
	}
	return w.export(ctx, entry.ID, entry)
}

// ProcessPending exports entries the message path missed.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.queue.PendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending entries: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, entry := range pending {
		if err := w.export(ctx, entry.ID, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to export entry", "id", entry.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupCheck drains a larger pending batch once at worker start to
// recover from downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.queue.PendingExport(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending entries for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup", "count", len(pending))

	exported, failed := 0, 0
	for _, entry := range pending {
		if err := w.export(ctx, entry.ID, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to export entry during startup", "id", entry.ID, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export check completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)
	return nil
}

func (w *ExportWorker) export(ctx context.Context, id int64, entry core.LedgerEntry) error {
	ref, err := w.appender.AppendEntry(ctx, entry)
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.queue.MarkExported(ctx, id); err != nil {
		// The append succeeded; the reconciliation scan will retry the mark
		// and the sheet may get a duplicate row. Accept that over losing it.
		slog.ErrorContext(ctx, "Failed to mark entry as exported", "id", id, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Entry exported",
		"id", id,
		"sheet_ref", ref,
		"amount_cents", entry.Amount.Cents)
	return nil
}
