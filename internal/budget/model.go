package budget

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound     = errors.New("budget not found")
	ErrForbidden    = errors.New("forbidden")
	ErrActiveExists = errors.New("another active budget exists")
	ErrAlreadyVoted = errors.New("budget already voted")
	ErrClosed       = errors.New("budget closed")
)

// ValidationError descreve entrada malformada (mapeia para 400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// InvalidPositionError indica voto em opção inexistente.
type InvalidPositionError struct {
	Position int
}

func (e *InvalidPositionError) Error() string {
	return fmt.Sprintf("opção %d não existe neste orçamento", e.Position)
}

// Budget é uma votação de orçamento participativo. Ativo/encerrado é
// derivado do prazo (granularidade de dia), nunca armazenado.
type Budget struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	ExpirationDate time.Time `json:"expiration_date"`
	CreatorID      int64     `json:"creator_id"`
	CreatedAt      time.Time `json:"created_at"`
	Options        []Option  `json:"options"`
}

// Option é uma alternativa ordenada do orçamento.
type Option struct {
	Position int    `json:"position"`
	Text     string `json:"text"`
}

// Active indica se o orçamento ainda aceita votos no dia informado.
func (b Budget) Active(day time.Time) bool {
	y1, m1, d1 := b.ExpirationDate.Date()
	y2, m2, d2 := day.Date()
	expiration := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	today := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return !expiration.Before(today)
}

// View agrega o orçamento com o voto do chamador, quando houver.
type View struct {
	Budget
	CallerVote *int `json:"caller_vote,omitempty"`
}

// CreateInput reúne os campos de criação de um orçamento.
type CreateInput struct {
	CreatorID      int64
	Title          string
	ExpirationDate time.Time
	Options        []string
}

// ArchivePage embala o histórico paginado de orçamentos.
type ArchivePage struct {
	Items      []Budget `json:"items"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	Total      int64    `json:"total"`
	TotalPages int      `json:"total_pages"`
}
