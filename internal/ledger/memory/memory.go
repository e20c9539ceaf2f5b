// Package memory is an in-memory ledger store used by tests and the
// "memory" data backend.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"recibo/internal/core"
	"recibo/internal/ledger"
)

type Store struct {
	mu            sync.Mutex
	nextID        int64
	entries       []core.LedgerEntry
	goals         []core.Goal
	notifications []core.Notification
	exported      map[int64]bool
	// Optional display names by user/category id.
	users      map[int64]string
	categories map[int64]string
}

func New() *Store {
	return &Store{
		exported:   make(map[int64]bool),
		users:      make(map[int64]string),
		categories: make(map[int64]string),
	}
}

// SetUserName registers a display name resolved on entry reads.
func (s *Store) SetUserName(id int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = name
}

// SetCategoryName registers a display name resolved on entry reads.
func (s *Store) SetCategoryName(id int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[id] = name
}

func (s *Store) resolve(e core.LedgerEntry) core.LedgerEntry {
	switch e.Direction {
	case core.Income:
		e.TypeName = "Income"
	case core.Expense:
		e.TypeName = "Expense"
	}
	e.OwnerName = s.users[e.UserID]
	if e.CategoryID != nil {
		e.CategoryName = s.categories[*e.CategoryID]
	}
	return e
}

func (s *Store) CreateEntry(_ context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	s.entries = append(s.entries, e)
	return s.resolve(e), nil
}

func (s *Store) GetEntry(_ context.Context, id int64) (core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			return s.resolve(e), nil
		}
	}
	return core.LedgerEntry{}, ledger.ErrNotFound
}

func (s *Store) ListEntries(_ context.Context, userID int64, f ledger.EntryFilter) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.LedgerEntry
	for _, e := range s.entries {
		if e.UserID != userID {
			continue
		}
		if f.Title != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Title)) {
			continue
		}
		// Date filters compare calendar days; entries keep the full
		// ingestion timestamp but the bounds are date-only, like the
		// entry_date column in the SQLite store.
		if !f.StartDate.IsZero() && dateOnly(e.Date).Before(dateOnly(f.StartDate)) {
			continue
		}
		if !f.EndDate.IsZero() && dateOnly(e.Date).After(dateOnly(f.EndDate)) {
			continue
		}
		if f.CategoryID != nil && (e.CategoryID == nil || *e.CategoryID != *f.CategoryID) {
			continue
		}
		if f.Direction != 0 && e.Direction != f.Direction {
			continue
		}
		out = append(out, s.resolve(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Store) SumExpenses(_ context.Context, userID int64, month, year int, categoryID *int64) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, e := range s.entries {
		if !s.inPeriod(e, userID, month, year, categoryID) {
			continue
		}
		total += e.Amount.Cents
	}
	return core.Money{Cents: total}, nil
}

func (s *Store) MonthSummary(_ context.Context, userID int64, month, year int) (core.MonthSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary := core.MonthSummary{Year: year, Month: month}
	byCat := make(map[string]int64)
	for _, e := range s.entries {
		if !s.inPeriod(e, userID, month, year, nil) {
			continue
		}
		summary.Total.Cents += e.Amount.Cents
		name := ""
		if e.CategoryID != nil {
			name = s.categories[*e.CategoryID]
		}
		byCat[name] += e.Amount.Cents
	}
	names := make([]string, 0, len(byCat))
	for name := range byCat {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		summary.ByCategory = append(summary.ByCategory, core.CategoryAmount{
			Name:   name,
			Amount: core.Money{Cents: byCat[name]},
		})
	}
	return summary, nil
}

func (s *Store) inPeriod(e core.LedgerEntry, userID int64, month, year int, categoryID *int64) bool {
	if e.UserID != userID || e.Direction != core.Expense {
		return false
	}
	if int(e.Date.Month()) != month || e.Date.Year() != year {
		return false
	}
	if categoryID != nil && (e.CategoryID == nil || *e.CategoryID != *categoryID) {
		return false
	}
	return true
}

func (s *Store) FindGoal(_ context.Context, userID int64, month, year int, categoryID *int64) (*core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.goals {
		if g.UserID != userID || g.Month != month || g.Year != year {
			continue
		}
		if categoryID == nil {
			if g.CategoryID == nil {
				copied := g
				return &copied, nil
			}
			continue
		}
		if g.CategoryID != nil && *g.CategoryID == *categoryID {
			copied := g
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	g.ID = s.nextID
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *Store) ListGoals(_ context.Context, userID int64) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Goal
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.goals {
		if g.ID == id && g.UserID == userID {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) CreateNotification(_ context.Context, n core.Notification) (core.Notification, error) {
	if err := n.Validate(); err != nil {
		return core.Notification{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	n.ID = s.nextID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	s.notifications = append(s.notifications, n)
	return n, nil
}

func (s *Store) ListNotifications(_ context.Context, userID int64, unreadOnly bool) ([]core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Notification
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.ID == id && n.UserID == userID {
			s.notifications[i].Read = true
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) PendingExport(_ context.Context, limit int) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.LedgerEntry
	for _, e := range s.entries {
		if s.exported[e.ID] {
			continue
		}
		out = append(out, s.resolve(e))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkExported(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exported[id] = true
	return nil
}
