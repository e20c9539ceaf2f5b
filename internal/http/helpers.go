package http

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"recibo/internal/core"
)

// ownerID reads the authenticated owner from the X-User-ID header.
func ownerID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if raw == "" {
		return 0, fmt.Errorf("missing X-User-ID header")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid X-User-ID header %q", raw)
	}
	return id, nil
}

// readUploadedImage pulls the "file" part out of a multipart form and
// returns its bytes plus the declared content type.
func readUploadedImage(r *http.Request, maxBytes int64) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, "", fmt.Errorf("parse multipart form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	return data, header.Header.Get("Content-Type"), nil
}

// parseYearMonth reads year/month query parameters, defaulting to the
// current period.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}
	return year, month
}

func parseDate(dateStr string) (time.Time, error) {
	return time.Parse("2006-01-02", dateStr)
}

func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// entryJSON is the wire shape of a ledger entry.
type entryJSON struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Type        string `json:"type"`
	Category    string `json:"category,omitempty"`
	CategoryID  *int64 `json:"category_id,omitempty"`
	Owner       string `json:"owner,omitempty"`
}

func toEntryJSON(e core.LedgerEntry) entryJSON {
	return entryJSON{
		ID:          e.ID,
		Title:       e.Title,
		Date:        e.Date.Format("2006-01-02"),
		Description: e.Description,
		Amount:      e.Amount.Decimal(),
		AmountCents: e.Amount.Cents,
		Type:        e.TypeName,
		Category:    e.CategoryName,
		CategoryID:  e.CategoryID,
		Owner:       e.OwnerName,
	}
}

type goalJSON struct {
	ID             int64  `json:"id"`
	Month          int    `json:"month"`
	Year           int    `json:"year"`
	Threshold      string `json:"threshold"`
	ThresholdCents int64  `json:"threshold_cents"`
	CategoryID     *int64 `json:"category_id,omitempty"`
}

func toGoalJSON(g core.Goal) goalJSON {
	return goalJSON{
		ID:             g.ID,
		Month:          g.Month,
		Year:           g.Year,
		Threshold:      g.Threshold.Decimal(),
		ThresholdCents: g.Threshold.Cents,
		CategoryID:     g.CategoryID,
	}
}

type notificationJSON struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

func toNotificationJSON(n core.Notification) notificationJSON {
	return notificationJSON{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}
