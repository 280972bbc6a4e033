package initiative

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound         = errors.New("initiative not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidReference = errors.New("invalid reference")
	ErrAlreadySigned    = errors.New("initiative already signed")
	ErrAlreadyFollowing = errors.New("initiative already followed")
	ErrFollowNotFound   = errors.New("follow not found")
	ErrAlreadyReplied   = errors.New("initiative already replied")
)

// Status é o conjunto fechado de estados de uma iniciativa.
// Os literais persistidos permanecem no idioma da plataforma original:
// o banco e a SPA existentes dependem deles.
type Status string

const (
	StatusInProgress Status = "In corso"
	StatusApproved   Status = "Approvata"
	StatusRejected   Status = "Respinta"
	StatusExpired    Status = "Scaduta"
	StatusArchived   Status = "Archiviata"
)

var allStatuses = map[Status]struct{}{
	StatusInProgress: {},
	StatusApproved:   {},
	StatusRejected:   {},
	StatusExpired:    {},
	StatusArchived:   {},
}

// Estados que uma resposta oficial pode atribuir. Archived só existe via
// importação externa e InProgress nunca é atribuído por resposta.
var replyAssignable = map[Status]struct{}{
	StatusApproved: {},
	StatusRejected: {},
	StatusExpired:  {},
}

// ParseStatus valida um literal de status vindo de fora.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	_, ok := allStatuses[s]
	return s, ok
}

// Valid indica se o status pertence ao conjunto conhecido.
func (s Status) Valid() bool {
	_, ok := allStatuses[s]
	return ok
}

// AssignableByReply indica se uma resposta oficial pode atribuir o status.
func (s Status) AssignableByReply() bool {
	_, ok := replyAssignable[s]
	return ok
}

// ValidationError descreve entrada malformada (mapeia para 400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotOpenError indica tentativa de assinar iniciativa fora de "In corso".
type NotOpenError struct {
	Current Status
}

func (e *NotOpenError) Error() string {
	return fmt.Sprintf("iniciativa não está aberta a assinaturas (status atual: %s)", e.Current)
}

// Initiative representa uma proposta cidadã.
type Initiative struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Place          string     `json:"place"`
	Status         Status     `json:"status"`
	SignatureCount int        `json:"signature_count"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	AuthorID       int64      `json:"author_id"`
	CategoryID     int64      `json:"category_id"`
	PlatformID     *int64     `json:"platform_id,omitempty"`
	ExternalURL    *string    `json:"external_url,omitempty"`
}

// Attachment referencia um arquivo já persistido pelo storage.
// Pertence a exatamente um pai: iniciativa ou resposta.
type Attachment struct {
	ID           int64  `json:"id"`
	FileName     string `json:"file_name"`
	FilePath     string `json:"file_path"`
	FileType     string `json:"file_type"`
	InitiativeID *int64 `json:"initiative_id,omitempty"`
	ReplyID      *int64 `json:"reply_id,omitempty"`
}

// AttachmentInput é a tupla que o storage devolve após o upload.
type AttachmentInput struct {
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
	FileType string `json:"file_type"`
}

// Reply é a única resposta oficial de uma iniciativa.
type Reply struct {
	ID           int64        `json:"id"`
	InitiativeID int64        `json:"initiative_id"`
	AuthorID     int64        `json:"author_id"`
	ReplyText    string       `json:"reply_text"`
	NewStatus    Status       `json:"new_status"`
	CreatedAt    time.Time    `json:"created_at"`
	Attachments  []Attachment `json:"attachments"`
}

// Detail agrega a visão completa de uma iniciativa.
type Detail struct {
	Initiative
	Attachments []Attachment `json:"attachments"`
	Reply       *Reply       `json:"reply,omitempty"`
}

// ListItem é a linha resumida da listagem: no máximo um anexo.
type ListItem struct {
	Initiative
	Attachment *Attachment `json:"attachment,omitempty"`
}

// CreateInput reúne os campos de criação de uma iniciativa.
type CreateInput struct {
	AuthorID       int64
	Title          string
	Description    string
	Place          string
	CategoryID     int64
	ExpirationDate *time.Time
	Attachments    []AttachmentInput
}

// ReplyCreate reúne os campos da resposta oficial e da notificação gerada.
type ReplyCreate struct {
	InitiativeID     int64
	AuthorID         int64
	ReplyText        string
	NewStatus        Status
	Attachments      []AttachmentInput
	NotificationText string
	NotificationLink string
}

// Recipient é um destinatário de notificação derivado do fan-out.
type Recipient struct {
	UserID int64
	Name   string
	Email  string
}

// Chaves de ordenação aceitas na listagem.
const (
	SortByCreatedAt      = "created_at"
	SortBySignatureCount = "signature_count"
	SortByTitle          = "title"
)

// Filter descreve filtros, ordenação e paginação da listagem.
type Filter struct {
	Status        *Status
	CategoryID    *int64
	Search        string
	MinSignatures *int
	MaxSignatures *int
	SortBy        string
	SortDesc      bool
	Page          int
	PageSize      int
}

// PageResult embala a listagem com metadados de paginação.
type PageResult struct {
	Items      []ListItem `json:"items"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"total_pages"`
}

// mergeRecipients deduplica autor, assinantes e seguidores por usuário.
// A ordem é estável: autor primeiro, depois assinantes, depois seguidores.
func mergeRecipients(groups ...[]Recipient) []Recipient {
	seen := make(map[int64]struct{})
	var merged []Recipient
	for _, group := range groups {
		for _, r := range group {
			if _, ok := seen[r.UserID]; ok {
				continue
			}
			seen[r.UserID] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged
}
