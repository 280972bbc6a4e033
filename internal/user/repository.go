package user

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaozabele/participa/internal/repo"
)

const dbTimeout = 3 * time.Second

// Repository provê acesso à tabela de usuários.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID busca um usuário pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	u := &User{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, is_citizen, is_admin, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.Email, &u.IsCitizen, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create insere um usuário; usado pelo bootstrap administrativo.
func (r *Repository) Create(ctx context.Context, name, email, passwordHash string, flags RoleFlags) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, is_citizen, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, name, email, passwordHash, flags.IsCitizen, flags.IsAdmin).Scan(&id)
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return 0, ErrEmailTaken
		}
		return 0, err
	}
	return id, nil
}

// UpdateRoles grava os novos papéis e devolve o usuário atualizado.
func (r *Repository) UpdateRoles(ctx context.Context, id int64, flags RoleFlags) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	u := &User{}
	err := r.pool.QueryRow(ctx, `
		UPDATE users
		SET is_citizen = $1, is_admin = $2
		WHERE id = $3
		RETURNING id, name, email, is_citizen, is_admin, created_at
	`, flags.IsCitizen, flags.IsAdmin, id).Scan(&u.ID, &u.Name, &u.Email, &u.IsCitizen, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
