package middleware

import (
	"context"
	"net/http"
	"regexp"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/09ahmad/lyftr-backend-assignment/internal/crypto"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// inboundRequestID limits which caller-supplied ids are echoed back.
var inboundRequestID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,64}$`)

// RequestID assigns every request an id, reusing a well-formed X-Request-ID
// from the caller or generating a ULID. The id is stored where
// chimw.GetReqID finds it and echoed in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !inboundRequestID.MatchString(id) {
			id = crypto.NewULID()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), chimw.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
