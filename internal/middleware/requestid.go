package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

// RequestID assigns every request a random id, echoed in the X-Request-ID
// header and in error envelopes. An incoming id is kept so callers can
// correlate retries.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			b := make([]byte, 8)
			rand.Read(b)
			id = hex.EncodeToString(b)
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}
