package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/participa/internal/budget"
	"github.com/gestaozabele/participa/internal/initiative"
	"github.com/gestaozabele/participa/internal/notification"
	"github.com/gestaozabele/participa/internal/user"
)

// SuccessEnvelope padroniza respostas com dados.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope padroniza respostas de erro.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody descreve falhas normalizadas.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON escreve envelope de sucesso.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError escreve envelope de erro e mantém formato consistente.
func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// decodeJSON decodifica o corpo limitado a 1 MiB, rejeitando campos
// desconhecidos.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeDomainError traduz erros de domínio para o status HTTP adequado.
// Erros não mapeados viram 500 sanitizado, com detalhes apenas no log.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		initValidation   *initiative.ValidationError
		budgetValidation *budget.ValidationError
		invalidPosition  *budget.InvalidPositionError
		notOpen          *initiative.NotOpenError
	)

	switch {
	case errors.As(err, &initValidation):
		WriteError(w, http.StatusBadRequest, "VALIDATION", initValidation.Message, nil)
	case errors.As(err, &budgetValidation):
		WriteError(w, http.StatusBadRequest, "VALIDATION", budgetValidation.Message, nil)
	case errors.As(err, &invalidPosition):
		WriteError(w, http.StatusBadRequest, "VALIDATION", invalidPosition.Error(), nil)
	case errors.Is(err, initiative.ErrInvalidReference):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "referência inexistente", nil)

	case errors.Is(err, initiative.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "iniciativa não encontrada", nil)
	case errors.Is(err, initiative.ErrFollowNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "acompanhamento não encontrado", nil)
	case errors.Is(err, budget.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "orçamento não encontrado", nil)
	case errors.Is(err, notification.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "notificação não encontrada", nil)
	case errors.Is(err, user.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)

	case errors.As(err, &notOpen):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", notOpen.Error(), nil)
	case errors.Is(err, initiative.ErrForbidden),
		errors.Is(err, budget.ErrForbidden),
		errors.Is(err, user.ErrForbidden):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "operação não permitida para este usuário", nil)
	case errors.Is(err, budget.ErrClosed):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "orçamento encerrado para votos", nil)
	case errors.Is(err, user.ErrSelfDemotion):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "administrador não pode revogar o próprio papel", nil)

	case errors.Is(err, initiative.ErrAlreadySigned):
		WriteError(w, http.StatusConflict, "CONFLICT", "iniciativa já assinada por este usuário", nil)
	case errors.Is(err, initiative.ErrAlreadyFollowing):
		WriteError(w, http.StatusConflict, "CONFLICT", "iniciativa já acompanhada por este usuário", nil)
	case errors.Is(err, initiative.ErrAlreadyReplied):
		WriteError(w, http.StatusConflict, "CONFLICT", "iniciativa já possui resposta oficial", nil)
	case errors.Is(err, budget.ErrActiveExists):
		WriteError(w, http.StatusConflict, "CONFLICT", "já existe um orçamento vigente", nil)
	case errors.Is(err, budget.ErrAlreadyVoted):
		WriteError(w, http.StatusConflict, "CONFLICT", "voto já registrado neste orçamento", nil)
	case errors.Is(err, user.ErrEmailTaken):
		WriteError(w, http.StatusConflict, "CONFLICT", "e-mail já cadastrado", nil)

	default:
		log.Error().Err(err).Msg("http: erro interno")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}
