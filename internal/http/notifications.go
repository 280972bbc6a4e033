package http

import (
	"net/http"

	"github.com/gestaozabele/participa/internal/http/middleware"
)

// ListNotifications devolve as notificações do usuário autenticado,
// não lidas primeiro.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação ausente", nil)
		return
	}

	notifications, err := h.notifications.List(r.Context(), caller.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, notifications)
}

// CountUnreadNotifications devolve o total de não lidas.
func (h *Handler) CountUnreadNotifications(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação ausente", nil)
		return
	}

	count, err := h.notifications.CountUnread(r.Context(), caller.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

// MarkNotificationRead marca como lida uma notificação do próprio usuário.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação ausente", nil)
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.notifications.MarkRead(r.Context(), caller.UserID, id); err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
