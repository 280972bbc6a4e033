package http

import (
	"net/http"

	"github.com/gestaozabele/participa/internal/http/middleware"
	"github.com/gestaozabele/participa/internal/user"
)

// Me devolve o perfil do usuário autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação ausente", nil)
		return
	}

	profile, err := h.users.Get(r.Context(), caller.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, profile)
}

// UpdateUserRoles altera os papéis de um usuário (somente administradores).
func (h *Handler) UpdateUserRoles(w http.ResponseWriter, r *http.Request) {
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

	var flags user.RoleFlags
	if err := decodeJSON(r, &flags); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	updated, err := h.users.UpdateRoles(r.Context(), caller, id, flags)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, updated)
}
