package models

// Message is an inbound message accepted by the webhook.
type Message struct {
	MessageID string  `json:"message_id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Timestamp string  `json:"ts"`   // ISO-8601 UTC, as supplied by the caller
	Text      *string `json:"text"` // nil when the caller sent no text
	CreatedAt string  `json:"-"`    // assigned by the server on insert
}

// MessageFilter narrows and windows a message listing.
type MessageFilter struct {
	Limit  int
	Offset int
	From   string // exact sender match
	Since  string // inclusive lower bound on ts
	Query  string // case-insensitive substring of text
}

// MessagePage is one window of a filtered listing.
type MessagePage struct {
	Data   []Message `json:"data"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}
