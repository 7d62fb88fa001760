package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/09ahmad/lyftr-backend-assignment/internal/api/middleware"
	"github.com/09ahmad/lyftr-backend-assignment/internal/models"
)

// Pagination bounds for GET /messages.
const (
	DefaultLimit = 50
	MinLimit     = 1
	MaxLimit     = 100
)

// ListMessages handles paginated, filtered message listing.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	filter, details := parseMessageFilter(r.URL.Query())
	if len(details) > 0 {
		h.ValidationError(w, "invalid query parameters", details)
		return
	}

	messages, total, err := h.store.ListMessages(r.Context(), filter)
	if err != nil {
		middleware.AnnotateError(r.Context(), err)
		h.Error(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	h.JSON(w, http.StatusOK, models.MessagePage{
		Data:   messages,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// parseMessageFilter validates the listing parameters. All problems are
// reported together.
func parseMessageFilter(q url.Values) (models.MessageFilter, []FieldError) {
	filter := models.MessageFilter{
		Limit:  DefaultLimit,
		Offset: 0,
		From:   normalizeSender(q.Get("from")),
		Since:  q.Get("since"),
		Query:  q.Get("q"),
	}
	var details []FieldError

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < MinLimit || limit > MaxLimit {
			details = append(details, FieldError{
				Field:   "limit",
				Message: "must be an integer between " + strconv.Itoa(MinLimit) + " and " + strconv.Itoa(MaxLimit),
			})
		} else {
			filter.Limit = limit
		}
	}

	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			details = append(details, FieldError{Field: "offset", Message: "must be an integer >= 0"})
		} else {
			filter.Offset = offset
		}
	}

	if filter.Since != "" && !isUTCTimestamp(filter.Since) {
		details = append(details, FieldError{Field: "since", Message: "must be an ISO-8601 UTC timestamp ending in Z"})
	}

	return filter, details
}

// normalizeSender restores the leading "+" of an E.164 number sent
// unescaped in a query string, where it decodes to a space.
func normalizeSender(from string) string {
	if strings.HasPrefix(from, " ") && msisdnRegex.MatchString("+"+from[1:]) {
		return "+" + from[1:]
	}
	return from
}
