package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync/atomic"
)

type ctxKey int

const reqIDKey ctxKey = 0

// RequestIDHeader is read from incoming requests and set on responses
const RequestIDHeader = "X-Request-ID"

var (
	reqIDPrefix  = newPrefix()
	reqIDCounter atomic.Uint64
)

func newPrefix() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "pixelbench"
	}
	return hex.EncodeToString(b)
}

// maxRequestIDLength bounds a client supplied request id
const maxRequestIDLength = 64

// AddRequestID is a handler that tags every request with an id.
// It reuses the one the client sent if it is at most 64 characters of [A-Za-z0-9._-].
func AddRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = fmt.Sprintf("%s-%06d", reqIDPrefix, reqIDCounter.Add(1))
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), reqIDKey, id)))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}

	for i := 0; i < len(id); i++ {
		switch c := id[i]; {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
		default:
			return false
		}
	}

	return true
}

// GetReqID returns the request id of a request context, or an empty string
func GetReqID(ctx context.Context) string {
	if id, ok := ctx.Value(reqIDKey).(string); ok {
		return id
	}
	return ""
}
