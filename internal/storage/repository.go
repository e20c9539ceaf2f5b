// Package storage is the SQLite persistence layer behind the ledger ports.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"recibo/internal/core"
	"recibo/internal/ledger"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const entryColumns = `
	e.id, e.title, e.entry_date, e.description, e.amount_cents,
	e.entry_type_id, e.category_id, e.user_id,
	t.name, COALESCE(c.name, ''), u.name`

const entryJoins = `
	FROM entries e
	JOIN entry_types t ON t.id = e.entry_type_id
	LEFT JOIN categories c ON c.id = e.category_id
	JOIN users u ON u.id = e.user_id`

func scanEntry(row interface{ Scan(...any) error }) (core.LedgerEntry, error) {
	var (
		e       core.LedgerEntry
		rawDate string
	)
	err := row.Scan(&e.ID, &e.Title, &rawDate, &e.Description, &e.Amount.Cents,
		&e.Direction, &e.CategoryID, &e.UserID,
		&e.TypeName, &e.CategoryName, &e.OwnerName)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	e.Date, err = time.Parse(dateLayout, rawDate)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("parse entry date %q: %w", rawDate, err)
	}
	return e, nil
}

func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (title, entry_date, description, amount_cents, entry_type_id, category_id, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Title, e.Date.Format(dateLayout), e.Description, e.Amount.Cents,
		int64(e.Direction), e.CategoryID, e.UserID)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry id: %w", err)
	}

	created, err := r.GetEntry(ctx, id)
	if err != nil {
		return core.LedgerEntry{}, err
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		"id", created.ID,
		"user_id", created.UserID,
		"amount_cents", created.Amount.Cents,
		"type", created.TypeName)

	return created, nil
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (core.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT`+entryColumns+entryJoins+` WHERE e.id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return core.LedgerEntry{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListEntries(ctx context.Context, userID int64, f ledger.EntryFilter) ([]core.LedgerEntry, error) {
	query := `SELECT` + entryColumns + entryJoins + ` WHERE e.user_id = ?`
	args := []any{userID}

	if f.Title != "" {
		query += ` AND LOWER(e.title) LIKE ?`
		args = append(args, "%"+strings.ToLower(f.Title)+"%")
	}
	if !f.StartDate.IsZero() {
		query += ` AND e.entry_date >= ?`
		args = append(args, f.StartDate.Format(dateLayout))
	}
	if !f.EndDate.IsZero() {
		query += ` AND e.entry_date <= ?`
		args = append(args, f.EndDate.Format(dateLayout))
	}
	if f.CategoryID != nil {
		query += ` AND e.category_id = ?`
		args = append(args, *f.CategoryID)
	}
	if f.Direction != 0 {
		query += ` AND e.entry_type_id = ?`
		args = append(args, int64(f.Direction))
	}
	query += ` ORDER BY e.entry_date DESC, e.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SumExpenses(ctx context.Context, userID int64, month, year int, categoryID *int64) (core.Money, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM entries
		WHERE user_id = ?
		  AND entry_type_id = ?
		  AND CAST(strftime('%m', entry_date) AS INTEGER) = ?
		  AND CAST(strftime('%Y', entry_date) AS INTEGER) = ?`
	args := []any{userID, int64(core.Expense), month, year}
	if categoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *categoryID)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: total}, nil
}

func (r *SQLiteRepository) MonthSummary(ctx context.Context, userID int64, month, year int) (core.MonthSummary, error) {
	summary := core.MonthSummary{Year: year, Month: month}

	total, err := r.SumExpenses(ctx, userID, month, year, nil)
	if err != nil {
		return summary, err
	}
	summary.Total = total

	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(c.name, ''), SUM(e.amount_cents)
		FROM entries e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = ?
		  AND e.entry_type_id = ?
		  AND CAST(strftime('%m', e.entry_date) AS INTEGER) = ?
		  AND CAST(strftime('%Y', e.entry_date) AS INTEGER) = ?
		GROUP BY COALESCE(c.name, '')
		ORDER BY COALESCE(c.name, '')`,
		userID, int64(core.Expense), month, year)
	if err != nil {
		return summary, fmt.Errorf("category sums: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return summary, fmt.Errorf("scan category sum: %w", err)
		}
		summary.ByCategory = append(summary.ByCategory, ca)
	}
	return summary, rows.Err()
}

func (r *SQLiteRepository) FindGoal(ctx context.Context, userID int64, month, year int, categoryID *int64) (*core.Goal, error) {
	query := `
		SELECT id, month, year, threshold_cents, category_id, user_id
		FROM goals
		WHERE user_id = ? AND month = ? AND year = ?`
	args := []any{userID, month, year}
	if categoryID == nil {
		query += ` AND category_id IS NULL`
	} else {
		query += ` AND category_id = ?`
		args = append(args, *categoryID)
	}

	var g core.Goal
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&g.ID, &g.Month, &g.Year, &g.Threshold.Cents, &g.CategoryID, &g.UserID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find goal: %w", err)
	}
	return &g, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (month, year, threshold_cents, category_id, user_id)
		VALUES (?, ?, ?, ?, ?)`,
		g.Month, g.Year, g.Threshold.Cents, g.CategoryID, g.UserID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal id: %w", err)
	}
	g.ID = id
	return g, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, month, year, threshold_cents, category_id, user_id
		FROM goals WHERE user_id = ?
		ORDER BY year DESC, month DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var g core.Goal
		if err := rows.Scan(&g.ID, &g.Month, &g.Year, &g.Threshold.Cents, &g.CategoryID, &g.UserID); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal rows: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CreateNotification(ctx context.Context, n core.Notification) (core.Notification, error) {
	if err := n.Validate(); err != nil {
		return core.Notification{}, err
	}

	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (title, message, user_id, read, created_at)
		VALUES (?, ?, ?, 0, ?)`,
		n.Title, n.Message, n.UserID, createdAt)
	if err != nil {
		return core.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Notification{}, fmt.Errorf("notification id: %w", err)
	}
	n.ID = id
	n.Read = false
	n.CreatedAt = createdAt
	return n, nil
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]core.Notification, error) {
	query := `
		SELECT id, title, message, user_id, read, created_at
		FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		var n core.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.UserID, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification rows: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) PendingExport(ctx context.Context, limit int) ([]core.LedgerEntry, error) {
	query := `SELECT` + entryColumns + entryJoins + ` WHERE e.synced = 0 ORDER BY e.id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pending export: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE entries SET synced = 1, synced_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Entry marked as exported", "id", id)
	return nil
}
