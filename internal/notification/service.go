package notification

import "context"

// Store é o contrato de persistência das notificações.
type Store interface {
	ListByUser(ctx context.Context, userID int64) ([]Notification, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	CountUnread(ctx context.Context, userID int64) (int64, error)
}

// Service expõe leitura e marcação de notificações do próprio usuário.
type Service struct {
	store Store
}

// NewService cria uma nova instância do serviço.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List devolve as notificações do usuário autenticado.
func (s *Service) List(ctx context.Context, userID int64) ([]Notification, error) {
	return s.store.ListByUser(ctx, userID)
}

// MarkRead marca uma notificação do próprio usuário como lida.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}

// CountUnread devolve o total de não lidas do usuário autenticado.
func (s *Service) CountUnread(ctx context.Context, userID int64) (int64, error) {
	return s.store.CountUnread(ctx, userID)
}
