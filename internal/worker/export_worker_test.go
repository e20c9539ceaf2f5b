package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"recibo/internal/amqp"
	"recibo/internal/core"
	ledgermem "recibo/internal/ledger/memory"
	sheetsmem "recibo/internal/sheets/memory"
)

func seedEntry(t *testing.T, store *ledgermem.Store, cents int64) core.LedgerEntry {
	t.Helper()
	e, err := store.CreateEntry(context.Background(), core.LedgerEntry{
		Title:     "Lançamento via Recibo",
		Date:      time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Amount:    core.Money{Cents: cents},
		Direction: core.Expense,
		UserID:    1,
	})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestHandleEntryCreatedExportsAndMarks(t *testing.T) {
	store := ledgermem.New()
	appender := sheetsmem.New()
	w := NewExportWorker(store, store, appender, 10)
	ctx := context.Background()

	entry := seedEntry(t, store, 12345)
	msg := &amqp.EntryCreatedMessage{ID: entry.ID, Version: 1}

	if err := w.HandleEntryCreated(ctx, msg); err != nil {
		t.Fatal(err)
	}
	if len(appender.Rows) != 1 || appender.Rows[0].Amount.Cents != 12345 {
		t.Fatalf("appended rows: %+v", appender.Rows)
	}
	pending, err := store.PendingExport(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("entry should be marked exported, still pending: %d", len(pending))
	}
}

func TestHandleEntryCreatedUnknownID(t *testing.T) {
	store := ledgermem.New()
	w := NewExportWorker(store, store, sheetsmem.New(), 10)

	err := w.HandleEntryCreated(context.Background(), &amqp.EntryCreatedMessage{ID: 42})
	if err == nil {
		t.Fatal("expected error for unknown entry id")
	}
}

func TestProcessPendingRetainsFailedEntries(t *testing.T) {
	store := ledgermem.New()
	appender := sheetsmem.New()
	appender.FailErr = errors.New("sheets unavailable")
	w := NewExportWorker(store, store, appender, 10)
	ctx := context.Background()

	seedEntry(t, store, 1000)

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("per-entry failures must not fail the scan: %v", err)
	}
	pending, err := store.PendingExport(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("failed entry must stay pending, got %d", len(pending))
	}

	appender.FailErr = nil
	if err := w.ProcessPending(ctx); err != nil {
		t.Fatal(err)
	}
	pending, err = store.PendingExport(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("entry should export after recovery, got %d pending", len(pending))
	}
}

func TestStartupCheckDrainsBacklog(t *testing.T) {
	store := ledgermem.New()
	appender := sheetsmem.New()
	w := NewExportWorker(store, store, appender, 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedEntry(t, store, int64(1000+i))
	}

	if err := w.StartupCheck(ctx); err != nil {
		t.Fatal(err)
	}
	if len(appender.Rows) != 5 {
		t.Fatalf("startup check should drain batchSize*5, exported %d", len(appender.Rows))
	}
}
