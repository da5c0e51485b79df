package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rohitnair-dev/storefront-backend/pkg/config"
	"github.com/rohitnair-dev/storefront-backend/pkg/logger"
)

// Session reads the cart session cookie, minting a fresh one when the request
// carries none or an unparseable value. The session ID keys the Redis cart.
func Session(cfg *config.Config, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookieName := cfg.Session.CookieName

			sessionID := ""
			if cookie, err := r.Cookie(cookieName); err == nil {
				if parsed, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
					sessionID = parsed.String()
				}
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(cfg.Session.CartTTL / time.Second),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
