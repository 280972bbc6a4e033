package initiative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gestaozabele/participa/internal/identity"
	"github.com/gestaozabele/participa/internal/notification"
)

const (
	maxTitleLen = 255
	maxPlaceLen = 64

	defaultPage     = 1
	defaultPageSize = 10
)

// Store é o contrato de persistência do ciclo de vida de iniciativas.
type Store interface {
	Insert(ctx context.Context, input CreateInput) (int64, error)
	GetDetail(ctx context.Context, id int64) (*Detail, error)
	List(ctx context.Context, f Filter) ([]ListItem, int64, error)
	UpdateExpiration(ctx context.Context, id int64, newDate time.Time) error
	Sign(ctx context.Context, userID, initiativeID int64) error
	Follow(ctx context.Context, userID, initiativeID int64) error
	Unfollow(ctx context.Context, userID, initiativeID int64) error
	CreateReply(ctx context.Context, input ReplyCreate) (*Reply, []Recipient, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// Service reúne as regras de negócio do ciclo de vida de iniciativas.
type Service struct {
	store  Store
	mailer notification.Mailer
	logger zerolog.Logger
}

// NewService cria o serviço; mailer pode ser nil (entrega desabilitada).
func NewService(store Store, mailer notification.Mailer, logger zerolog.Logger) *Service {
	return &Service{store: store, mailer: mailer, logger: logger}
}

// Create valida os campos e insere iniciativa + anexos atomicamente.
func (s *Service) Create(ctx context.Context, caller identity.Caller, input CreateInput) (*Detail, error) {
	if !caller.IsCitizen {
		return nil, ErrForbidden
	}

	input.AuthorID = caller.UserID
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Place = strings.TrimSpace(input.Place)

	if input.Title == "" {
		return nil, validationErrorf("título obrigatório")
	}
	if len(input.Title) > maxTitleLen {
		return nil, validationErrorf("título excede %d caracteres", maxTitleLen)
	}
	if input.Description == "" {
		return nil, validationErrorf("descrição obrigatória")
	}
	if input.Place == "" {
		return nil, validationErrorf("local obrigatório")
	}
	if len(input.Place) > maxPlaceLen {
		return nil, validationErrorf("local excede %d caracteres", maxPlaceLen)
	}
	if input.CategoryID <= 0 {
		return nil, validationErrorf("categoria inválida")
	}
	if input.Attachments == nil {
		input.Attachments = []AttachmentInput{}
	}

	id, err := s.store.Insert(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.store.GetDetail(ctx, id)
}

// GetByID devolve a visão completa da iniciativa.
func (s *Service) GetByID(ctx context.Context, id int64) (*Detail, error) {
	return s.store.GetDetail(ctx, id)
}

// List normaliza filtros e paginação antes de consultar.
func (s *Service) List(ctx context.Context, f Filter) (*PageResult, error) {
	f = normalizeFilter(f)

	items, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(f.PageSize) - 1) / int64(f.PageSize))
	return &PageResult{
		Items:      items,
		Page:       f.Page,
		PageSize:   f.PageSize,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func normalizeFilter(f Filter) Filter {
	if f.Page < 1 {
		f.Page = defaultPage
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		// chave desconhecida cai para a ordenação padrão
		f.SortBy = SortByCreatedAt
		f.SortDesc = true
	}
	return f
}

// ChangeExpirationDate atualiza o prazo; se a iniciativa estava vencida,
// o mesmo UPDATE a reabre para "In corso".
func (s *Service) ChangeExpirationDate(ctx context.Context, caller identity.Caller, id int64, newDate time.Time) (*Detail, error) {
	if !caller.IsAdmin {
		return nil, ErrForbidden
	}

	if err := s.store.UpdateExpiration(ctx, id, newDate); err != nil {
		return nil, err
	}
	return s.store.GetDetail(ctx, id)
}

// Sign registra a assinatura única do cidadão enquanto a iniciativa
// estiver em andamento.
func (s *Service) Sign(ctx context.Context, caller identity.Caller, initiativeID int64) error {
	if !caller.IsCitizen {
		return ErrForbidden
	}
	return s.store.Sign(ctx, caller.UserID, initiativeID)
}

// Follow registra o acompanhamento; independe do status da iniciativa.
func (s *Service) Follow(ctx context.Context, caller identity.Caller, initiativeID int64) error {
	return s.store.Follow(ctx, caller.UserID, initiativeID)
}

// Unfollow remove o acompanhamento existente.
func (s *Service) Unfollow(ctx context.Context, caller identity.Caller, initiativeID int64) error {
	return s.store.Unfollow(ctx, caller.UserID, initiativeID)
}

// CreateReply publica a única resposta oficial: grava resposta, novo
// status, anexos e notificações em uma transação; o e-mail sai depois do
// commit e nunca desfaz a operação.
func (s *Service) CreateReply(ctx context.Context, caller identity.Caller, initiativeID int64, newStatus Status, motivations string, attachments []AttachmentInput) (*Reply, error) {
	if !caller.IsAdmin {
		return nil, ErrForbidden
	}

	motivations = strings.TrimSpace(motivations)
	if motivations == "" {
		return nil, validationErrorf("motivação obrigatória")
	}
	if !newStatus.AssignableByReply() {
		return nil, validationErrorf("status %q não pode ser atribuído por resposta", string(newStatus))
	}
	if attachments == nil {
		attachments = []AttachmentInput{}
	}

	detail, err := s.store.GetDetail(ctx, initiativeID)
	if err != nil {
		return nil, err
	}
	if detail.Reply != nil {
		return nil, ErrAlreadyReplied
	}

	reply, recipients, err := s.store.CreateReply(ctx, ReplyCreate{
		InitiativeID:     initiativeID,
		AuthorID:         caller.UserID,
		ReplyText:        motivations,
		NewStatus:        newStatus,
		Attachments:      attachments,
		NotificationText: notification.ReplyText(detail.Title, string(newStatus)),
		NotificationLink: fmt.Sprintf("/initiatives/%d", initiativeID),
	})
	if err != nil {
		return nil, err
	}

	s.deliverMail(ctx, detail.Title, string(newStatus), recipients)
	return reply, nil
}

// deliverMail envia o aviso por e-mail. Falha é logada, nunca propagada:
// as linhas de notificação já estão persistidas.
func (s *Service) deliverMail(ctx context.Context, title, newStatus string, recipients []Recipient) {
	if s.mailer == nil || len(recipients) == 0 {
		return
	}

	to := make([]string, 0, len(recipients))
	for _, rec := range recipients {
		if rec.Email != "" {
			to = append(to, rec.Email)
		}
	}
	if len(to) == 0 {
		return
	}

	msg := notification.Message{
		To:      to,
		Subject: notification.ReplySubject(title),
		Body:    notification.ReplyText(title, newStatus),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("initiative", title).Int("recipients", len(to)).Msg("initiative: falha ao enviar e-mail de resposta")
	}
}
