package notification

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound = errors.New("notification not found")
)

// Notification é o aviso persistido para um usuário.
// is_read só transita de false para true, nunca volta.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"text"`
	LinkRef   string    `json:"link_ref"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// ReplyText monta a mensagem padrão disparada por uma resposta oficial.
func ReplyText(initiativeTitle, newStatus string) string {
	return fmt.Sprintf("A iniciativa %q recebeu uma resposta oficial. Novo status: %s.", initiativeTitle, newStatus)
}

// ReplySubject monta o assunto do e-mail correspondente.
func ReplySubject(initiativeTitle string) string {
	return fmt.Sprintf("Atualização da iniciativa %q", initiativeTitle)
}
