package services

import (
	"context"
	"fmt"
	"log/slog"

	"recibo/internal/core"
	"recibo/internal/ledger"
)

type GoalKind string

const (
	GeneralGoal  GoalKind = "general"
	CategoryGoal GoalKind = "category"
)

func (k GoalKind) notificationTitle() string {
	if k == CategoryGoal {
		return "Category Goal Reached"
	}
	return "General Goal Reached"
}

// GoalEvaluator recomputes period sums after an entry lands and persists a
// notification for every goal whose threshold the cumulative sum meets or
// exceeds. It holds no state between invocations; sums always come from the
// store.
type GoalEvaluator struct {
	entries       ledger.EntryStore
	goals         ledger.GoalStore
	notifications ledger.NotificationStore
}

func NewGoalEvaluator(entries ledger.EntryStore, goals ledger.GoalStore, notifications ledger.NotificationStore) *GoalEvaluator {
	return &GoalEvaluator{entries: entries, goals: goals, notifications: notifications}
}

// Evaluate runs the general check and, for categorized entries, the
// category check. Goals track spending, so Income entries are a no-op.
// Repeated triggers are intentional: every entry that keeps the sum at or
// above threshold produces a fresh notification.
func (g *GoalEvaluator) Evaluate(ctx context.Context, e core.LedgerEntry) error {
	if e.Direction != core.Expense {
		return nil
	}
	month, year := int(e.Date.Month()), e.Date.Year()

	general, err := g.goals.FindGoal(ctx, e.UserID, month, year, nil)
	if err != nil {
		return fmt.Errorf("find general goal: %w", err)
	}
	if general != nil {
		if err := g.check(ctx, e, *general, GeneralGoal); err != nil {
			return err
		}
	}

	if e.CategoryID != nil {
		byCategory, err := g.goals.FindGoal(ctx, e.UserID, month, year, e.CategoryID)
		if err != nil {
			return fmt.Errorf("find category goal: %w", err)
		}
		if byCategory != nil {
			if err := g.check(ctx, e, *byCategory, CategoryGoal); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *GoalEvaluator) check(ctx context.Context, e core.LedgerEntry, goal core.Goal, kind GoalKind) error {
	sum, err := g.entries.SumExpenses(ctx, e.UserID, goal.Month, goal.Year, goal.CategoryID)
	if err != nil {
		return fmt.Errorf("sum %s expenses: %w", kind, err)
	}
	if sum.Cents < goal.Threshold.Cents {
		return nil
	}

	message := fmt.Sprintf("Your spending of %s reached the %s goal for %02d/%d (%s).",
		core.FormatBRL(sum.Cents), core.FormatBRL(goal.Threshold.Cents), goal.Month, goal.Year, kind)
	_, err = g.notifications.CreateNotification(ctx, core.Notification{
		Title:   kind.notificationTitle(),
		Message: message,
		UserID:  e.UserID,
	})
	if err != nil {
		return fmt.Errorf("create %s goal notification: %w", kind, err)
	}
	slog.InfoContext(ctx, "Goal threshold reached",
		"kind", string(kind),
		"user_id", e.UserID,
		"month", goal.Month,
		"year", goal.Year,
		"threshold_cents", goal.Threshold.Cents,
		"sum_cents", sum.Cents)
	return nil
}
