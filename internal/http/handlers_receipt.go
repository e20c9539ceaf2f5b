package http

import (
	"log/slog"
	"net/http"
)

// handleUploadReceipt runs the full pipeline and answers 201 with the
// created entry.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
		return
	}

	image, contentType, err := readUploadedImage(r, s.maxUploadBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	entry, err := s.receipts.ProcessReceipt(r.Context(), userID, contentType, image)
	if err != nil {
		slog.WarnContext(r.Context(), "Receipt processing failed",
			"user_id", userID, "error", err)
		writePipelineError(w, err)
		return
	}

	s.summaryCache.Delete(summaryCacheKey(userID, int(entry.Date.Month()), entry.Date.Year()))

	writeData(w, http.StatusCreated, "receipt processed", toEntryJSON(entry))
}

// handleOCR is the diagnostic endpoint: fragments only, nothing persisted.
func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	if _, err := ownerID(r); err != nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
		return
	}

	image, contentType, err := readUploadedImage(r, s.maxUploadBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	fragments, err := s.receipts.ExtractFragments(r.Context(), contentType, image)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	writeData(w, http.StatusOK, "text extracted", map[string]any{
		"fragments": fragments,
		"count":     len(fragments),
	})
}
