package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"recibo/internal/core"
	"recibo/internal/ledger"
)

type createGoalRequest struct {
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	Threshold  string `json:"threshold"`
	CategoryID *int64 `json:"category_id,omitempty"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
		return
	}

	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}

	cents, err := core.ParseBRLToCents(req.Threshold)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "threshold must be a positive amount")
		return
	}

	goal := core.Goal{
		Month:      req.Month,
		Year:       req.Year,
		Threshold:  core.Money{Cents: cents},
		CategoryID: req.CategoryID,
		UserID:     userID,
	}
	if err := goal.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	// One goal per owner, period, and scope.
	existing, err := s.goals.FindGoal(r.Context(), userID, goal.Month, goal.Year, goal.CategoryID)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, codeValidation, "a goal already exists for this period")
		return
	}

	created, err := s.goals.CreateGoal(r.Context(), goal)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "goal created", toGoalJSON(created))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
		return
	}

	goals, err := s.goals.ListGoals(r.Context(), userID)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	out := make([]goalJSON, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalJSON(g))
	}
	writeData(w, http.StatusOK, "", map[string]any{
		"goals": out,
		"count": len(out),
	})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "goal id must be an integer")
		return
	}

	if err := s.goals.DeleteGoal(r.Context(), userID, id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "goal not found")
			return
		}
		writePipelineError(w, err)
		return
	}
	writeData(w, http.StatusOK, "goal deleted", nil)
}
