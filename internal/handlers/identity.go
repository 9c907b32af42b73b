package handlers

import (
	"net/http"
	"strings"

	"github.com/shoppie-mart/api/internal/platform/httpx"
	"github.com/shoppie-mart/api/internal/platform/requestctx"
)

// UserIDHeader names the header carrying the opaque caller identity.
const UserIDHeader = "X-User-ID"

// RequireUser extracts the caller identity from the X-User-ID header and
// stores it on the request context. Requests without the header are rejected.
func RequireUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if userID == "" {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "X-User-ID header is required", http.StatusUnauthorized))
				return
			}
			ctx := requestctx.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
