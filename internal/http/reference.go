package http

import "net/http"

// Health confirma que o processo responde e o banco aceita conexões.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.Ping(r.Context()); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "banco indisponível", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListCategories devolve as categorias de iniciativa.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.reference.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, categories)
}

// ListPlatforms devolve as plataformas externas cadastradas.
func (h *Handler) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.reference.ListPlatforms(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, platforms)
}
