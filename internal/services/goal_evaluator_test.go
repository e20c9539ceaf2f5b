package services

import (
	"context"
	"testing"
	"time"

	"recibo/internal/core"
	"recibo/internal/ledger/memory"
)

func newEvaluator(t *testing.T) (*GoalEvaluator, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewGoalEvaluator(store, store, store), store
}

func addExpense(t *testing.T, store *memory.Store, userID int64, cents int64, categoryID *int64) core.LedgerEntry {
	t.Helper()
	e, err := store.CreateEntry(context.Background(), core.LedgerEntry{
		Title:      "Lançamento via Recibo",
		Date:       time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC),
		Amount:     core.Money{Cents: cents},
		Direction:  core.Expense,
		CategoryID: categoryID,
		UserID:     userID,
	})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func addGoal(t *testing.T, store *memory.Store, userID int64, thresholdCents int64, categoryID *int64) {
	t.Helper()
	_, err := store.CreateGoal(context.Background(), core.Goal{
		Month:      6,
		Year:       2024,
		Threshold:  core.Money{Cents: thresholdCents},
		UserID:     userID,
		CategoryID: categoryID,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func notifications(t *testing.T, store *memory.Store, userID int64) []core.Notification {
	t.Helper()
	ns, err := store.ListNotifications(context.Background(), userID, false)
	if err != nil {
		t.Fatal(err)
	}
	return ns
}

// Prior sum 480, threshold 500, new entry 30: cumulative 510 crosses the
// general goal and exactly one notification lands.
func TestGeneralGoalCrossed(t *testing.T) {
	eval, store := newEvaluator(t)
	addGoal(t, store, 1, 50000, nil)
	addExpense(t, store, 1, 48000, nil)
	entry := addExpense(t, store, 1, 3000, nil)

	if err := eval.Evaluate(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	ns := notifications(t, store, 1)
	if len(ns) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(ns))
	}
	if ns[0].Title != "General Goal Reached" {
		t.Fatalf("wrong title %q", ns[0].Title)
	}
}

func TestBoundarySumEqualsThresholdTriggers(t *testing.T) {
	eval, store := newEvaluator(t)
	addGoal(t, store, 1, 5000, nil)
	entry := addExpense(t, store, 1, 5000, nil)

	if err := eval.Evaluate(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	if got := len(notifications(t, store, 1)); got != 1 {
		t.Fatalf("sum == threshold must trigger, got %d notifications", got)
	}
}

func TestBelowThresholdDoesNotTrigger(t *testing.T) {
	eval, store := newEvaluator(t)
	addGoal(t, store, 1, 5000, nil)
	entry := addExpense(t, store, 1, 4999, nil)

	if err := eval.Evaluate(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	if got := len(notifications(t, store, 1)); got != 0 {
		t.Fatalf("below threshold must not trigger, got %d notifications", got)
	}
}

// The smallest allowed threshold is met by the first matching expense.
func TestMinimalThresholdTriggersOnFirstEntry(t *testing.T) {
	eval, store := newEvaluator(t)
	addGoal(t, store, 1, 1, nil)
	entry := addExpense(t, store, 1, 1, nil)

	if err := eval.Evaluate(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	if got := len(notifications(t, store, 1)); got != 1 {
		t.Fatalf("expected trigger at minimal threshold, got %d", got)
	}
}

// Category and general goals are independent and can both fire for one
// entry.
func TestCategoryAndGeneralGoalsBothFire(t *testing.T) {
	eval, store := newEvaluator(t)
	cat := int64(7)
	addGoal(t, store, 1, 100000, nil) // general, 1000.00
	addGoal(t, store, 1, 20000, &cat) // category, 200.00
	addExpense(t, store, 1, 90000, nil)
	addExpense(t, store, 1, 15000, &cat)
	entry := addExpense(t, store, 1, 6000, &cat)

	if err := eval.Evaluate(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	ns := notifications(t, store, 1)
	if len(ns) != 2 {
		t.Fatalf("expected 2 independent notifications, got %d", len(ns))
	}
	titles := map[string]bool{}
	for _, n := range ns {
		titles[n.Title] = true
	}
	if !titles["General Goal Reached"] || !titles["Category Goal Reached"] {
		t.Fatalf("unexpected titles: %v", titles)
	}
}

// Once over threshold, every further entry re-triggers; duplicates are the
// documented behavior.
func TestRepeatedNotificationsAreNotSuppressed(t *testing.T) {
	eval, store := newEvaluator(t)
	addGoal(t, store, 1, 1000, nil)

	for i := 0; i < 3; i++ {
		entry := addExpense(t, store, 1, 1000, nil)
		if err := eval.Evaluate(context.Background(), entry); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(notifications(t, store, 1)); got != 3 {
		t.Fatalf("expected 3 repeated notifications, got %d", got)
	}
}

func TestIncomeEntriesAreIgnored(t *testing.T) {
	eval, store := newEvaluator(t)
	addGoal(t, store, 1, 100, nil)
	entry, err := store.CreateEntry(context.Background(), core.LedgerEntry{
		Title:     "Lançamento via Recibo",
		Date:      time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Amount:    core.Money{Cents: 99999},
		Direction: core.Income,
		UserID:    1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := eval.Evaluate(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	if got := len(notifications(t, store, 1)); got != 0 {
		t.Fatalf("income must not be evaluated, got %d notifications", got)
	}
}

func TestNoGoalConfiguredIsSilentlySkipped(t *testing.T) {
	eval, store := newEvaluator(t)
	entry := addExpense(t, store, 1, 100000, nil)
	if err := eval.Evaluate(context.Background(), entry); err != nil {
		t.Fatalf("missing goal is not an error: %v", err)
	}
	if got := len(notifications(t, store, 1)); got != 0 {
		t.Fatalf("expected no notifications, got %d", got)
	}
}
