package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gestaozabele/participa/internal/http/middleware"
	"github.com/gestaozabele/participa/internal/identity"
)

// CreateBudget abre uma nova votação de orçamento participativo.
func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação ausente", nil)
		return
	}

	var payload struct {
		Title          string   `json:"title"`
		ExpirationDate string   `json:"expiration_date"`
		Options        []string `json:"options"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	date, err := parseDate(strings.TrimSpace(payload.ExpirationDate))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "expiration_date inválida", nil)
		return
	}

	created, err := h.budgets.Create(r.Context(), caller, payload.Title, date, payload.Options)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, created)
}

// GetActiveBudget devolve o orçamento vigente. Quando o chamador está
// identificado, a resposta inclui a posição em que ele votou.
func (h *Handler) GetActiveBudget(w http.ResponseWriter, r *http.Request) {
	var callerPtr *identity.Caller
	if caller, ok := middleware.CallerFrom(r.Context()); ok {
		callerPtr = &caller
	}

	view, err := h.budgets.GetActive(r.Context(), callerPtr)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// VoteBudget registra o voto único do cidadão autenticado.
func (h *Handler) VoteBudget(w http.ResponseWriter, r *http.Request) {
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

	var payload struct {
		Position int `json:"position"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	view, err := h.budgets.Vote(r.Context(), caller, id, payload.Position)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, view)
}

// ListBudgetArchive devolve o histórico paginado para administradores.
func (h *Handler) ListBudgetArchive(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação ausente", nil)
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("page_size"))

	archive, err := h.budgets.ListArchive(r.Context(), caller, page, pageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, archive)
}
