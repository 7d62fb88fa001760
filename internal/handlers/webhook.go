package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/09ahmad/lyftr-backend-assignment/internal/api/middleware"
	"github.com/09ahmad/lyftr-backend-assignment/internal/metrics"
	"github.com/09ahmad/lyftr-backend-assignment/internal/models"
	"github.com/09ahmad/lyftr-backend-assignment/internal/store"
)

// MaxTextLength bounds the optional message text, in characters.
const MaxTextLength = 4096

// WebhookRequest represents the webhook request body.
type WebhookRequest struct {
	MessageID string  `json:"message_id" validate:"required"`
	From      string  `json:"from" validate:"required,msisdn"`
	To        string  `json:"to" validate:"required,msisdn"`
	Timestamp string  `json:"ts" validate:"required,utc_timestamp"`
	Text      *string `json:"text" validate:"omitempty,max=4096"`
}

// WebhookResponse is returned for both new and duplicate messages.
type WebhookResponse struct {
	Status string `json:"status"`
}

// Webhook ingests a signed inbound message. It must be mounted behind
// middleware.RequireSignature; unsigned requests are refused.
//
// New and duplicate message_ids get the same 200 reply; the distinction is
// only visible in metrics and logs.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, ok := middleware.VerifiedBodyFromContext(ctx)
	if !ok {
		h.recordWebhook(r, "", metrics.OutcomeInvalidSignature)
		h.Error(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var req WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.recordWebhook(r, "", metrics.OutcomeValidationError)
		h.ValidationError(w, "invalid JSON body", []FieldError{{Field: "body", Message: err.Error()}})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.recordWebhook(r, req.MessageID, metrics.OutcomeValidationError)
		h.ValidationError(w, "validation failed", fieldErrors(err))
		return
	}

	msg := &models.Message{
		MessageID: req.MessageID,
		From:      req.From,
		To:        req.To,
		Timestamp: req.Timestamp,
		Text:      req.Text,
	}

	outcome := metrics.OutcomeCreated
	if err := h.store.InsertMessage(ctx, msg); err != nil {
		if !errors.Is(err, store.ErrDuplicateMessage) {
			middleware.AnnotateError(ctx, err)
			h.recordWebhook(r, req.MessageID, metrics.OutcomeInsertError)
			h.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		outcome = metrics.OutcomeDuplicate
	}

	h.recordWebhook(r, req.MessageID, outcome)
	h.JSON(w, http.StatusOK, WebhookResponse{Status: "ok"})
}

func (h *Handler) recordWebhook(r *http.Request, messageID, outcome string) {
	h.metrics.ObserveWebhook(outcome)
	middleware.AnnotateWebhook(r.Context(), messageID, outcome)
}
