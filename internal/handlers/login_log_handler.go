package handlers

import (
	"context"
	"net"
	"net/http"
	"strings"

	"voyage-backend/internal/models"
	"voyage-backend/pkg/utils"
)

// SessionLog records logins and logouts. Failures never block the caller.
type SessionLog interface {
	RecordLogin(ctx context.Context, userID int, ipAddress, userAgent string) error
	RecordLogout(ctx context.Context, userID int) error
	List(ctx context.Context, f models.LoginLogFilter) ([]*models.LoginLog, error)
}

type LoginLogHandler struct {
	Repo SessionLog
}

func NewLoginLogHandler(repo SessionLog) *LoginLogHandler {
	return &LoginLogHandler{Repo: repo}
}

// ListLoginLogs returns sessions, optionally for one user_id
func (h *LoginLogHandler) ListLoginLogs(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt(r, "user_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, offset := pageParams(r)
	logs, err := h.Repo.List(r.Context(), models.LoginLogFilter{UserID: userID, Limit: limit, Offset: offset})
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.Success(w, http.StatusOK, "", logs)
}

// clientIP prefers the proxy headers over the socket address
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
