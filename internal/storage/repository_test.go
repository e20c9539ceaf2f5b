package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"recibo/internal/core"
	"recibo/internal/ledger"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "recibo.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testEntry(cents int64, direction core.Direction, categoryID *int64) core.LedgerEntry {
	return core.LedgerEntry{
		Title:       "Lançamento via Recibo",
		Date:        time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Description: "Lançamento automático via recibo: mercado",
		Amount:      core.Money{Cents: cents},
		Direction:   direction,
		CategoryID:  categoryID,
		UserID:      1,
	}
}

func TestCreateAndGetEntry(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	cat := int64(1) // Alimentação, seeded by migration

	created, err := repo.CreateEntry(ctx, testEntry(12345, core.Expense, &cat))
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if created.TypeName != "Expense" {
		t.Fatalf("type name = %q, want Expense", created.TypeName)
	}
	if created.CategoryName != "Alimentação" {
		t.Fatalf("category name = %q", created.CategoryName)
	}
	if created.OwnerName == "" {
		t.Fatal("owner name should resolve via join")
	}

	got, err := repo.GetEntry(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Amount.Cents != 12345 || !got.Date.Equal(created.Date) {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if _, err := repo.GetEntry(ctx, 9999); err != ledger.ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSumExpensesScoping(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	cat := int64(2)

	mustCreate := func(e core.LedgerEntry) {
		t.Helper()
		if _, err := repo.CreateEntry(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	mustCreate(testEntry(1000, core.Expense, &cat))
	mustCreate(testEntry(2000, core.Expense, nil))
	mustCreate(testEntry(7000, core.Income, nil))
	other := testEntry(9000, core.Expense, nil)
	other.Date = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	mustCreate(other)

	all, err := repo.SumExpenses(ctx, 1, 6, 2024, nil)
	if err != nil {
		t.Fatal(err)
	}
	if all.Cents != 3000 {
		t.Fatalf("june sum = %d, want 3000", all.Cents)
	}

	catSum, err := repo.SumExpenses(ctx, 1, 6, 2024, &cat)
	if err != nil {
		t.Fatal(err)
	}
	if catSum.Cents != 1000 {
		t.Fatalf("category sum = %d, want 1000", catSum.Cents)
	}

	empty, err := repo.SumExpenses(ctx, 1, 1, 2023, nil)
	if err != nil {
		t.Fatal(err)
	}
	if empty.Cents != 0 {
		t.Fatalf("empty period sum = %d, want 0", empty.Cents)
	}
}

func TestListEntriesFilters(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateEntry(ctx, testEntry(1000, core.Expense, nil)); err != nil {
		t.Fatal(err)
	}
	income := testEntry(5000, core.Income, nil)
	income.Title = "PIX recebido"
	if _, err := repo.CreateEntry(ctx, income); err != nil {
		t.Fatal(err)
	}

	all, err := repo.ListEntries(ctx, 1, ledger.EntryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}

	onlyIncome, err := repo.ListEntries(ctx, 1, ledger.EntryFilter{Direction: core.Income})
	if err != nil {
		t.Fatal(err)
	}
	if len(onlyIncome) != 1 || onlyIncome[0].TypeName != "Income" {
		t.Fatalf("income filter: %+v", onlyIncome)
	}

	byTitle, err := repo.ListEntries(ctx, 1, ledger.EntryFilter{Title: "pix"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byTitle) != 1 {
		t.Fatalf("title filter matched %d entries", len(byTitle))
	}

	none, err := repo.ListEntries(ctx, 2, ledger.EntryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Fatalf("other owner should see nothing, got %d", len(none))
	}
}

func TestGoalLifecycle(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	cat := int64(3)

	general, err := repo.CreateGoal(ctx, core.Goal{Month: 6, Year: 2024, Threshold: core.Money{Cents: 50000}, UserID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateGoal(ctx, core.Goal{Month: 6, Year: 2024, Threshold: core.Money{Cents: 20000}, UserID: 1, CategoryID: &cat}); err != nil {
		t.Fatal(err)
	}

	found, err := repo.FindGoal(ctx, 1, 6, 2024, nil)
	if err != nil {
		t.Fatal(err)
	}
	if found == nil || found.CategoryID != nil || found.Threshold.Cents != 50000 {
		t.Fatalf("general goal lookup: %+v", found)
	}

	byCat, err := repo.FindGoal(ctx, 1, 6, 2024, &cat)
	if err != nil {
		t.Fatal(err)
	}
	if byCat == nil || byCat.Threshold.Cents != 20000 {
		t.Fatalf("category goal lookup: %+v", byCat)
	}

	missing, err := repo.FindGoal(ctx, 1, 7, 2024, nil)
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("expected nil for absent goal, got %+v", missing)
	}

	goals, err := repo.ListGoals(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 2 {
		t.Fatalf("expected 2 goals, got %d", len(goals))
	}

	if err := repo.DeleteGoal(ctx, 1, general.ID); err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteGoal(ctx, 1, general.ID); err != ledger.ErrNotFound {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestNotificationReadFlow(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	n, err := repo.CreateNotification(ctx, core.Notification{
		Title:   "General Goal Reached",
		Message: "Your spending of R$ 510,00 reached the R$ 500,00 goal for 06/2024 (general).",
		UserID:  1,
	})
	if err != nil {
		t.Fatal(err)
	}

	unread, err := repo.ListNotifications(ctx, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(unread) != 1 || unread[0].Read {
		t.Fatalf("unread list: %+v", unread)
	}

	if err := repo.MarkNotificationRead(ctx, 1, n.ID); err != nil {
		t.Fatal(err)
	}
	unread, err = repo.ListNotifications(ctx, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(unread) != 0 {
		t.Fatalf("expected no unread after mark, got %d", len(unread))
	}

	if err := repo.MarkNotificationRead(ctx, 2, n.ID); err != ledger.ErrNotFound {
		t.Fatalf("foreign owner must get ErrNotFound, got %v", err)
	}
}

func TestExportQueue(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first, err := repo.CreateEntry(ctx, testEntry(1000, core.Expense, nil))
	if err != nil {
		t.Fatal(err)
	}
	second, err := repo.CreateEntry(ctx, testEntry(2000, core.Expense, nil))
	if err != nil {
		t.Fatal(err)
	}

	pending, err := repo.PendingExport(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}

	if err := repo.MarkExported(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	pending, err = repo.PendingExport(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("pending after export: %+v", pending)
	}

	limited, err := repo.PendingExport(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit 0 means no limit, got %d", len(limited))
	}
}

func TestMonthSummaryGroupsByCategory(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	food := int64(1)
	transport := int64(2)

	for _, e := range []core.LedgerEntry{
		testEntry(1000, core.Expense, &food),
		testEntry(500, core.Expense, &food),
		testEntry(2000, core.Expense, &transport),
		testEntry(300, core.Expense, nil),
	} {
		if _, err := repo.CreateEntry(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	summary, err := repo.MonthSummary(ctx, 1, 6, 2024)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total.Cents != 3800 {
		t.Fatalf("total = %d, want 3800", summary.Total.Cents)
	}
	if len(summary.ByCategory) != 3 {
		t.Fatalf("expected 3 category buckets, got %d", len(summary.ByCategory))
	}
	sums := map[string]int64{}
	for _, ca := range summary.ByCategory {
		sums[ca.Name] = ca.Amount.Cents
	}
	if sums["Alimentação"] != 1500 || sums["Transporte"] != 2000 || sums[""] != 300 {
		t.Fatalf("category sums: %v", sums)
	}
}
