package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gestaozabele/participa/internal/http/middleware"
	"github.com/gestaozabele/participa/internal/initiative"
)

// CreateInitiative recebe multipart/form-data com os campos da proposta
// e zero ou mais arquivos no campo "attachments".
func (h *Handler) CreateInitiative(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação ausente", nil)
		return
	}

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "formulário multipart inválido", nil)
		return
	}

	input := initiative.CreateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Place:       r.FormValue("place"),
	}

	if categoryStr := strings.TrimSpace(r.FormValue("category_id")); categoryStr != "" {
		categoryID, err := strconv.ParseInt(categoryStr, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "category_id inválido", nil)
			return
		}
		input.CategoryID = categoryID
	}

	if rawDate := strings.TrimSpace(r.FormValue("expiration_date")); rawDate != "" {
		date, err := parseDate(rawDate)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "expiration_date inválida", nil)
			return
		}
		input.ExpirationDate = &date
	}

	attachments, err := h.saveUploads(r, "attachments")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	input.Attachments = attachments

	detail, err := h.initiatives.Create(r.Context(), caller, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, detail)
}

// GetInitiative devolve a visão completa de uma iniciativa.
func (h *Handler) GetInitiative(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	detail, err := h.initiatives.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, detail)
}

// ListInitiatives lista com filtros, ordenação e paginação via query string.
func (h *Handler) ListInitiatives(w http.ResponseWriter, r *http.Request) {
	var filter initiative.Filter
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, ok := initiative.ParseStatus(raw)
		if !ok {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "status desconhecido", nil)
			return
		}
		filter.Status = &status
	}

	if raw := strings.TrimSpace(query.Get("category_id")); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "category_id inválido", nil)
			return
		}
		filter.CategoryID = &categoryID
	}

	filter.Search = strings.TrimSpace(query.Get("search"))

	if raw := strings.TrimSpace(query.Get("min_signatures")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.MinSignatures = &v
		}
	}
	if raw := strings.TrimSpace(query.Get("max_signatures")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.MaxSignatures = &v
		}
	}

	filter.SortBy = strings.TrimSpace(query.Get("sort_by"))
	filter.SortDesc = strings.EqualFold(query.Get("order"), "desc") || query.Get("order") == ""

	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.Page = v
		}
	}
	if raw := strings.TrimSpace(query.Get("page_size")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.PageSize = v
		}
	}

	page, err := h.initiatives.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, page)
}

// ChangeInitiativeExpiration atualiza o prazo de uma iniciativa.
func (h *Handler) ChangeInitiativeExpiration(w http.ResponseWriter, r *http.Request) {
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
		ExpirationDate string `json:"expiration_date"`
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

	detail, err := h.initiatives.ChangeExpirationDate(r.Context(), caller, id, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, detail)
}

// SignInitiative registra a assinatura do cidadão autenticado.
func (h *Handler) SignInitiative(w http.ResponseWriter, r *http.Request) {
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

	if err := h.initiatives.Sign(r.Context(), caller, id); err != nil {
		writeDomainError(w, err)
		return
	}

	detail, err := h.initiatives.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, detail)
}

// FollowInitiative registra o acompanhamento do usuário autenticado.
func (h *Handler) FollowInitiative(w http.ResponseWriter, r *http.Request) {
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

	if err := h.initiatives.Follow(r.Context(), caller, id); err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// UnfollowInitiative remove o acompanhamento do usuário autenticado.
func (h *Handler) UnfollowInitiative(w http.ResponseWriter, r *http.Request) {
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

	if err := h.initiatives.Unfollow(r.Context(), caller, id); err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReplyInitiative publica a resposta oficial: multipart/form-data com
// status, motivations e arquivos opcionais no campo "attachments".
func (h *Handler) ReplyInitiative(w http.ResponseWriter, r *http.Request) {
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

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "formulário multipart inválido", nil)
		return
	}

	status, ok := initiative.ParseStatus(strings.TrimSpace(r.FormValue("status")))
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "status desconhecido", nil)
		return
	}

	attachments, err := h.saveUploads(r, "attachments")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	reply, err := h.initiatives.CreateReply(r.Context(), caller, id, status, r.FormValue("motivations"), attachments)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, reply)
}

// saveUploads persiste cada arquivo do campo informado e devolve as
// tuplas prontas para o banco. Nenhum arquivo é um resultado válido.
func (h *Handler) saveUploads(r *http.Request, field string) ([]initiative.AttachmentInput, error) {
	if r.MultipartForm == nil {
		return []initiative.AttachmentInput{}, nil
	}

	files := r.MultipartForm.File[field]
	attachments := make([]initiative.AttachmentInput, 0, len(files))

	for _, header := range files {
		stored, err := h.saveUpload(r, header)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, *stored)
	}

	return attachments, nil
}

func (h *Handler) saveUpload(r *http.Request, header *multipart.FileHeader) (*initiative.AttachmentInput, error) {
	if header.Size > h.maxUpload {
		return nil, errors.New("arquivo excede o tamanho máximo permitido")
	}

	file, err := header.Open()
	if err != nil {
		return nil, errors.New("não foi possível ler o arquivo enviado")
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		return nil, errors.New("não foi possível ler o arquivo enviado")
	}
	if int64(len(body)) > h.maxUpload {
		return nil, errors.New("arquivo excede o tamanho máximo permitido")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}

	stored, err := h.storage.Save(r.Context(), header.Filename, contentType, body)
	if err != nil {
		return nil, errors.New("falha ao armazenar o arquivo enviado")
	}

	return &initiative.AttachmentInput{
		FileName: stored.FileName,
		FilePath: stored.FilePath,
		FileType: stored.FileType,
	}, nil
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("identificador inválido")
	}
	return id, nil
}

// parseDate aceita data pura ou timestamp RFC3339.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
