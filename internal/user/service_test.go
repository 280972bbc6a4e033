package user

import (
	"context"
	"errors"
	"testing"

	"github.com/gestaozabele/participa/internal/identity"
)

type stubStore struct {
	user      *User
	getErr    error
	updateErr error
	updated   *RoleFlags
}

func (s *stubStore) GetByID(ctx context.Context, id int64) (*User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.user, nil
}

func (s *stubStore) UpdateRoles(ctx context.Context, id int64, flags RoleFlags) (*User, error) {
	s.updated = &flags
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.user, nil
}

func TestUpdateRolesRequiresAdmin(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store)

	caller := identity.Caller{UserID: 1, IsCitizen: true}
	_, err := svc.UpdateRoles(context.Background(), caller, 2, RoleFlags{IsCitizen: true})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("esperado ErrForbidden, veio %v", err)
	}
	if store.updated != nil {
		t.Error("alteração não deveria chegar ao repositório")
	}
}

func TestUpdateRolesBlocksSelfDemotion(t *testing.T) {
	svc := NewService(&stubStore{})

	caller := identity.Caller{UserID: 5, IsAdmin: true}
	_, err := svc.UpdateRoles(context.Background(), caller, 5, RoleFlags{IsCitizen: true, IsAdmin: false})
	if !errors.Is(err, ErrSelfDemotion) {
		t.Fatalf("esperado ErrSelfDemotion, veio %v", err)
	}
}

func TestUpdateRolesAllowsSelfWhenKeepingAdmin(t *testing.T) {
	store := &stubStore{user: &User{ID: 5, IsAdmin: true, IsCitizen: true}}
	svc := NewService(store)

	caller := identity.Caller{UserID: 5, IsAdmin: true}
	updated, err := svc.UpdateRoles(context.Background(), caller, 5, RoleFlags{IsCitizen: true, IsAdmin: true})
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if !updated.IsCitizen {
		t.Error("papel de cidadão deveria ter sido concedido")
	}
}

func TestUpdateRolesNotFound(t *testing.T) {
	svc := NewService(&stubStore{updateErr: ErrNotFound})

	caller := identity.Caller{UserID: 1, IsAdmin: true}
	if _, err := svc.UpdateRoles(context.Background(), caller, 99, RoleFlags{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperado ErrNotFound, veio %v", err)
	}
}
