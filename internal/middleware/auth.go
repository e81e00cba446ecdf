package middleware

import (
	"net/http"
	"time"

	"autobazar/listing-editor/internal/auth"
	"autobazar/listing-editor/internal/common"
	"autobazar/listing-editor/internal/constants"
)

// SessionRequired rejects requests while no marketplace session is active
// and places the session in the request context for handlers.
func SessionRequired(session *auth.Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session == nil || !session.Active() {
				common.RespondError(w, time.Now(), auth.ErrNoSession,
					constants.GetErrorMessage(constants.ErrCodeSessionMissing), http.StatusUnauthorized)
				return
			}

			ctx := auth.SetSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
