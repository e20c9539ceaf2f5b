package http

import (
	"net/http"
	"strconv"
	"strings"

	"recibo/internal/core"
	"recibo/internal/ledger"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
		return
	}

	var filter ledger.EntryFilter
	q := r.URL.Query()

	filter.Title = strings.TrimSpace(q.Get("title"))
	if v := strings.TrimSpace(q.Get("start_date")); v != "" {
		d, err := parseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "start_date must be YYYY-MM-DD")
			return
		}
		filter.StartDate = d
	}
	if v := strings.TrimSpace(q.Get("end_date")); v != "" {
		d, err := parseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "end_date must be YYYY-MM-DD")
			return
		}
		filter.EndDate = d
	}
	if v := strings.TrimSpace(q.Get("category_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "category_id must be an integer")
			return
		}
		filter.CategoryID = &id
	}
	switch strings.ToLower(strings.TrimSpace(q.Get("type"))) {
	case "":
	case "income":
		filter.Direction = core.Income
	case "expense":
		filter.Direction = core.Expense
	default:
		writeError(w, http.StatusBadRequest, codeValidation, "type must be income or expense")
		return
	}

	entries, err := s.entries.ListEntries(r.Context(), userID, filter)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryJSON(e))
	}
	writeData(w, http.StatusOK, "", map[string]any{
		"entries": out,
		"count":   len(out),
	})
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
		return
	}

	year, month := parseYearMonth(r)
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, codeValidation, "month must be between 1 and 12")
		return
	}

	key := summaryCacheKey(userID, month, year)
	summary, cached := s.summaryCache.Get(key)
	if !cached {
		summary, err = s.entries.MonthSummary(r.Context(), userID, month, year)
		if err != nil {
			writePipelineError(w, err)
			return
		}
		s.summaryCache.Set(key, summary)
	}

	byCategory := make([]map[string]any, 0, len(summary.ByCategory))
	for _, ca := range summary.ByCategory {
		byCategory = append(byCategory, map[string]any{
			"category":     ca.Name,
			"amount":       ca.Amount.Decimal(),
			"amount_cents": ca.Amount.Cents,
		})
	}
	writeData(w, http.StatusOK, "", map[string]any{
		"year":        summary.Year,
		"month":       summary.Month,
		"total":       summary.Total.Decimal(),
		"total_cents": summary.Total.Cents,
		"by_category": byCategory,
		"cached":      cached,
	})
}
