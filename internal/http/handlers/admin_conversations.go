package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ananta-systems/ai-inbox/internal/dialogue"
	"github.com/ananta-systems/ai-inbox/internal/http/middleware"
	"github.com/ananta-systems/ai-inbox/pkg/logging"
)

// AdminConversationsHandler exposes stored dialogue history to operators.
type AdminConversationsHandler struct {
	store  dialogue.Store
	logger *logging.Logger
}

// NewAdminConversationsHandler wires the handler.
func NewAdminConversationsHandler(store dialogue.Store, logger *logging.Logger) *AdminConversationsHandler {
	if store == nil {
		panic("handlers: dialogue store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminConversationsHandler{store: store, logger: logger}
}

// GetHistory processes GET /admin/conversations/{userID}.
func (h *AdminConversationsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, "user id is required")
		return
	}

	if subject, ok := middleware.AdminSubjectFromContext(r.Context()); ok {
		h.logger.Info("conversation history read",
			"user_id", userID,
			"admin", subject,
		)
	}

	history, err := h.store.History(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load history", "user_id", userID, "error", err.Error())
		writeJSONError(w, http.StatusInternalServerError, "could not load conversation history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"turns":   history,
	})
}
