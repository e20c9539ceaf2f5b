package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"recibo/internal/core"
	"recibo/internal/ledger"
	"recibo/internal/ocr"
	"recibo/internal/receipt"
	"recibo/internal/services"
)

// envelope is the JSON shape of every API response.
type envelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

const (
	codeValidation   = "validation_error"
	codeInference    = "inference_error"
	codePersistence  = "persistence_error"
	codeNotFound     = "not_found"
	codeUnauthorized = "unauthorized"
)

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, envelope{
		Success: false,
		Error:   &apiError{Code: code, Details: details},
	})
}

// writePipelineError maps pipeline failures onto the error taxonomy:
// bad input is the client's fault, inference and persistence are ours.
func writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotAnImage),
		errors.Is(err, ocr.ErrDecode),
		errors.Is(err, receipt.ErrNoAmount),
		errors.Is(err, core.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, codeValidation, err.Error())
	case errors.Is(err, ocr.ErrInference):
		writeError(w, http.StatusInternalServerError, codeInference, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codePersistence, err.Error())
	}
}
