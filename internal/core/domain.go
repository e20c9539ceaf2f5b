package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Direction = 1
	Expense Direction = 2
)

// MaxDescriptionLen bounds the audit excerpt stored on auto-created entries.
const MaxDescriptionLen = 500

type (
	// Direction tells whether an entry adds to or subtracts from the balance.
	// The numeric values match the seeded entry_types rows.
	Direction int64

	Money struct {
		Cents int64
	}

	// LedgerEntry is one recorded income or expense transaction.
	LedgerEntry struct {
		ID          int64
		Title       string
		Date        time.Time
		Description string
		Amount      Money
		Direction   Direction
		CategoryID  *int64
		UserID      int64

		// Display names resolved on read, empty until persisted.
		TypeName     string
		CategoryName string
		OwnerName    string
	}

	// Goal is a monthly spending threshold. A nil CategoryID means the goal
	// covers all categories.
	Goal struct {
		ID         int64
		Month      int
		Year       int
		Threshold  Money
		UserID     int64
		CategoryID *int64
	}

	Notification struct {
		ID        int64
		Title     string
		Message   string
		UserID    int64
		Read      bool
		CreatedAt time.Time
	}

	CategoryAmount struct {
		Name   string
		Amount Money
	}

	// MonthSummary aggregates the expense side of one owner's month.
	MonthSummary struct {
		Year       int
		Month      int
		Total      Money
		ByCategory []CategoryAmount
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrMissingOwner     = errors.New("missing owner")
	ErrEmptyTitle       = errors.New("empty title")
)

func (d Direction) Valid() bool {
	return d == Income || d == Expense
}

func (d Direction) String() string {
	switch d {
	case Income:
		return "income"
	case Expense:
		return "expense"
	default:
		return "unknown"
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e LedgerEntry) Validate() error {
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if e.Date.IsZero() {
		return errors.New("entry date cannot be zero")
	}
	if len(e.Description) > MaxDescriptionLen {
		return errors.New("description too long")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Direction.Valid() {
		return ErrInvalidDirection
	}
	if e.UserID == 0 {
		return ErrMissingOwner
	}
	return nil
}

func (g Goal) Validate() error {
	if g.Month < 1 || g.Month > 12 {
		return ErrInvalidMonth
	}
	if g.Year < 1 {
		return errors.New("invalid year")
	}
	if err := g.Threshold.Validate(); err != nil {
		return err
	}
	if g.UserID == 0 {
		return ErrMissingOwner
	}
	return nil
}

func (n Notification) Validate() error {
	if len(strings.TrimSpace(n.Title)) == 0 {
		return ErrEmptyTitle
	}
	if n.UserID == 0 {
		return ErrMissingOwner
	}
	return nil
}
