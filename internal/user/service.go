package user

import (
	"context"

	"github.com/gestaozabele/participa/internal/identity"
)

// Store é o contrato de persistência de usuários.
type Store interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	UpdateRoles(ctx context.Context, id int64, flags RoleFlags) (*User, error)
}

// Service reúne as regras de administração de usuários.
type Service struct {
	store Store
}

// NewService cria uma nova instância do serviço.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get devolve o perfil do usuário informado.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.store.GetByID(ctx, id)
}

// UpdateRoles altera os papéis de um usuário. Somente administradores, e
// um administrador jamais revoga o próprio papel de admin por aqui.
func (s *Service) UpdateRoles(ctx context.Context, caller identity.Caller, targetID int64, flags RoleFlags) (*User, error) {
	if !caller.IsAdmin {
		return nil, ErrForbidden
	}
	if targetID == caller.UserID && !flags.IsAdmin {
		return nil, ErrSelfDemotion
	}
	return s.store.UpdateRoles(ctx, targetID, flags)
}
