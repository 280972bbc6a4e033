package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrForbidden    = errors.New("forbidden")
	ErrSelfDemotion = errors.New("admin cannot revoke own admin flag")
	ErrEmailTaken   = errors.New("email already registered")
)

// User representa um usuário da plataforma. Os papéis não são
// exclusivos: o mesmo usuário pode ser cidadão e administrador.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsCitizen bool      `json:"is_citizen"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// RoleFlags é o conjunto de papéis atribuíveis a um usuário.
type RoleFlags struct {
	IsCitizen bool `json:"is_citizen"`
	IsAdmin   bool `json:"is_admin"`
}
