// Package ledger declares the ports for ledger persistence.
package ledger

import (
	"context"
	"errors"
	"time"

	"recibo/internal/core"
)

// ErrNotFound is returned when a row does not exist or belongs to another
// owner.
var ErrNotFound = errors.New("record not found")

// EntryFilter narrows ListEntries. Zero values mean "no restriction".
type EntryFilter struct {
	Title      string
	StartDate  time.Time
	EndDate    time.Time
	CategoryID *int64
	Direction  core.Direction
}

type (
	EntryStore interface {
		// CreateEntry persists the entry in one atomic insert and returns
		// it with its id and resolved display names.
		CreateEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error)

		GetEntry(ctx context.Context, id int64) (core.LedgerEntry, error)

		// ListEntries returns the owner's entries, newest first.
		ListEntries(ctx context.Context, userID int64, f EntryFilter) ([]core.LedgerEntry, error)

		// SumExpenses totals the owner's Expense entries for a month. A nil
		// categoryID sums across all categories.
		SumExpenses(ctx context.Context, userID int64, month, year int, categoryID *int64) (core.Money, error)

		// MonthSummary aggregates the owner's Expense entries for a month,
		// total plus per-category breakdown.
		MonthSummary(ctx context.Context, userID int64, month, year int) (core.MonthSummary, error)
	}

	GoalStore interface {
		// FindGoal returns the goal for (owner, month, year, category), or
		// nil when none is configured. A nil categoryID selects the general
		// goal (no category restriction).
		FindGoal(ctx context.Context, userID int64, month, year int, categoryID *int64) (*core.Goal, error)

		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		ListGoals(ctx context.Context, userID int64) ([]core.Goal, error)
		DeleteGoal(ctx context.Context, userID, id int64) error
	}

	NotificationStore interface {
		CreateNotification(ctx context.Context, n core.Notification) (core.Notification, error)
		ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]core.Notification, error)
		MarkNotificationRead(ctx context.Context, userID, id int64) error
	}

	// ExportQueue feeds the sheet backup worker.
	ExportQueue interface {
		// PendingExport lists entries not yet appended to the backup sheet.
		PendingExport(ctx context.Context, limit int) ([]core.LedgerEntry, error)
		MarkExported(ctx context.Context, id int64) error
	}
)
