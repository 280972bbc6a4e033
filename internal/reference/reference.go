// Package reference serve os dados de apoio somente leitura da
// plataforma: categorias de iniciativa e plataformas externas de origem.
package reference

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 3 * time.Second

// Category classifica iniciativas.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Platform identifica a origem externa de iniciativas importadas.
type Platform struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
}

// Repository provê acesso às tabelas de referência.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListCategories devolve todas as categorias ordenadas por nome.
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListPlatforms devolve as plataformas externas cadastradas.
func (r *Repository) ListPlatforms(ctx context.Context) ([]Platform, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT id, name, base_url FROM platforms ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	platforms := []Platform{}
	for rows.Next() {
		var p Platform
		if err := rows.Scan(&p.ID, &p.Name, &p.BaseURL); err != nil {
			return nil, err
		}
		platforms = append(platforms, p)
	}
	return platforms, rows.Err()
}
