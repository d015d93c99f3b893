package web

import (
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/salesview/internal/logging"
)

// requestLogger returns a request-scoped logger carrying the client IP and
// User-Agent, for handlers that log more than the access line.
func requestLogger(r *http.Request) *slog.Logger {
	return logging.WithFields(r.Context(),
		"ip", r.RemoteAddr, // already rewritten by TrustedRealIP
		"user_agent", r.UserAgent(),
	)
}
