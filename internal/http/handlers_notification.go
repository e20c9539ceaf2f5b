package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"recibo/internal/ledger"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
		return
	}

	unreadOnly := strings.EqualFold(r.URL.Query().Get("unread"), "true")

	notifications, err := s.notifications.ListNotifications(r.Context(), userID, unreadOnly)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	out := make([]notificationJSON, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, toNotificationJSON(n))
	}
	writeData(w, http.StatusOK, "", map[string]any{
		"notifications": out,
		"count":         len(out),
	})
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "notification id must be an integer")
		return
	}

	if err := s.notifications.MarkNotificationRead(r.Context(), userID, id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "notification not found")
			return
		}
		writePipelineError(w, err)
		return
	}
	writeData(w, http.StatusOK, "notification marked as read", nil)
}
