package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/rtclobby/internal/auth"
	"github.com/vovakirdan/rtclobby/internal/metrics"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RequireAdmission rejects requests without a valid admission token when a
// secret is configured. Browsers cannot set headers on a websocket
// handshake, so the token may also come from the "token" query parameter.
//
// It wraps a plain http.Handler: the websocket upgrade hijacks the
// connection, which gin's response writer refuses once a status is written.
func RequireAdmission(cfg *auth.JWTConfig, m *metrics.Metrics, logger *zerolog.Logger, next http.Handler) http.Handler {
	if !cfg.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.ValidateToken(cfg, admissionToken(r))
		if err != nil {
			logger.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("admission token rejected")
			m.Unauthorized()
			writeError(w, http.StatusUnauthorized, "invalid admission token")
			return
		}

		logger.Debug().Str("subject", claims.Subject).Str("remote", r.RemoteAddr).Msg("admission token accepted")
		next.ServeHTTP(w, r)
	})
}

func admissionToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request
		c.Next()

		// Log after request
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
