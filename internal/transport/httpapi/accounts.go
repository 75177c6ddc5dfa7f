package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"roadportal/internal/domain/access"
	"roadportal/internal/errs"
	"roadportal/internal/usecase/accounts"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, errs.Validationf("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	items, err := s.notifications.List(r.Context(), access.FromContext(r.Context()), truthy(query.Get("unread")), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "ok", map[string]any{"notifications": items})
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.notifications.UnreadCount(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "ok", map[string]int64{"unread": n})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, errs.Validationf("invalid notification id"))
		return
	}
	if err := s.notifications.MarkRead(r.Context(), access.FromContext(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Notification marked as read", nil)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.notifications.MarkAllRead(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "All notifications marked as read", map[string]int64{"updated": n})
}

type createUserRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body createUserRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.accounts.CreateUser(r.Context(), access.FromContext(r.Context()), accounts.NewUser{
		Username: body.Username,
		FullName: body.FullName,
		Password: body.Password,
		Role:     body.Role,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, "User created", user)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var body roleRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.accounts.SetRole(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "id"), body.Role); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Role updated", nil)
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Deactivate(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "User deactivated", nil)
}

type permissionRequest struct {
	Permission string `json:"permission"`
}

func (s *Server) handleGrantPermission(w http.ResponseWriter, r *http.Request) {
	var body permissionRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.accounts.GrantPermission(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "id"), body.Permission); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Permission granted", nil)
}
