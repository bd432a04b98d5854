// Package handlers holds the HTTP handlers for the inbox API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ananta-systems/ai-inbox/internal/audit"
	"github.com/ananta-systems/ai-inbox/internal/business"
	"github.com/ananta-systems/ai-inbox/internal/channels/instagram"
	"github.com/ananta-systems/ai-inbox/internal/turn"
	"github.com/ananta-systems/ai-inbox/pkg/logging"
)

// BusinessLoader resolves a business snapshot from its spreadsheet.
type BusinessLoader interface {
	Load(ctx context.Context, spreadsheetID string) (business.Context, error)
}

// ReplySender delivers the reply back to the customer's channel.
type ReplySender interface {
	SendText(ctx context.Context, pageAccessToken, recipientID, text string) (*instagram.SendResponse, error)
}

// ProcessMessageRequest is the inbound payload from the channel webhook relay.
type ProcessMessageRequest struct {
	UserID          string `json:"user_id"`
	MessageText     string `json:"message_text"`
	SheetID         string `json:"sheet_id"`
	PageAccessToken string `json:"page_access_token"`
}

// ProcessMessageHandler runs a conversation turn for each inbound message and
// sends the reply back out.
type ProcessMessageHandler struct {
	businesses BusinessLoader
	processor  turn.Processor
	sender     ReplySender
	auditLog   *audit.Log
	logger     *logging.Logger
}

// NewProcessMessageHandler wires the handler. The audit log and sender may be
// nil; processing still completes without them.
func NewProcessMessageHandler(businesses BusinessLoader, processor turn.Processor, sender ReplySender, auditLog *audit.Log, logger *logging.Logger) *ProcessMessageHandler {
	if businesses == nil {
		panic("handlers: business loader cannot be nil")
	}
	if processor == nil {
		panic("handlers: turn processor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ProcessMessageHandler{
		businesses: businesses,
		processor:  processor,
		sender:     sender,
		auditLog:   auditLog,
		logger:     logger,
	}
}

// Handle processes POST /api/process-message.
func (h *ProcessMessageHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ProcessMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if missing := missingFields(req); len(missing) > 0 {
		writeJSONError(w, http.StatusBadRequest, "missing required fields: "+strings.Join(missing, ", "))
		return
	}

	ctx := r.Context()
	h.recordAudit(ctx, req.UserID, audit.DirectionInbound, req.MessageText)

	biz, err := h.businesses.Load(ctx, req.SheetID)
	if err != nil {
		h.logger.Error("failed to load business config",
			"sheet_id", req.SheetID,
			"error", err.Error(),
		)
		writeJSONError(w, http.StatusBadGateway, "could not load business configuration")
		return
	}

	resp, err := h.processor.ProcessTurn(ctx, turn.Request{
		UserID:      req.UserID,
		MessageText: req.MessageText,
		Business:    biz,
	})
	if err != nil {
		h.logger.Error("turn processing failed",
			"user_id", req.UserID,
			"error", err.Error(),
		)
		writeJSONError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	h.recordAudit(ctx, req.UserID, audit.DirectionOutbound, resp.Reply)

	// Delivery is best-effort: the reply is still returned to the caller even
	// if the channel send fails.
	if h.sender != nil {
		if _, err := h.sender.SendText(ctx, req.PageAccessToken, req.UserID, resp.Reply); err != nil {
			h.logger.Error("failed to send reply",
				"user_id", req.UserID,
				"error", err.Error(),
			)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "success",
		"reply_sent": resp.Reply,
	})
}

func (h *ProcessMessageHandler) recordAudit(ctx context.Context, userID, direction, text string) {
	if h.auditLog == nil {
		return
	}
	if err := h.auditLog.Record(ctx, audit.Entry{
		UserID:    userID,
		Direction: direction,
		Text:      text,
	}); err != nil {
		h.logger.Warn("audit record failed",
			"user_id", userID,
			"direction", direction,
			"error", err.Error(),
		)
	}
}

func missingFields(req ProcessMessageRequest) []string {
	var missing []string
	if strings.TrimSpace(req.UserID) == "" {
		missing = append(missing, "user_id")
	}
	if strings.TrimSpace(req.MessageText) == "" {
		missing = append(missing, "message_text")
	}
	if strings.TrimSpace(req.SheetID) == "" {
		missing = append(missing, "sheet_id")
	}
	if strings.TrimSpace(req.PageAccessToken) == "" {
		missing = append(missing, "page_access_token")
	}
	return missing
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "error": message})
}
