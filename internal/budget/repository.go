package budget

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaozabele/participa/internal/db"
	"github.com/gestaozabele/participa/internal/repo"
)

const dbTimeout = 3 * time.Second

// Lock consultivo que serializa criações de orçamento: não existe índice
// parcial capaz de expressar "no máximo uma linha com prazo futuro".
const createLockKey = 420001

// Repository provê acesso às tabelas de orçamento participativo.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create insere orçamento e opções em uma transação, rejeitando quando
// ainda existe orçamento com prazo vigente.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*Budget, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	b := &Budget{
		Title:          input.Title,
		ExpirationDate: input.ExpirationDate,
		CreatorID:      input.CreatorID,
	}

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, createLockKey); err != nil {
			return err
		}

		var activeExists bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM budgets WHERE expiration_date >= CURRENT_DATE)
		`).Scan(&activeExists); err != nil {
			return err
		}
		if activeExists {
			return ErrActiveExists
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO budgets (title, expiration_date, creator_id)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, input.Title, input.ExpirationDate, input.CreatorID).Scan(&b.ID, &b.CreatedAt)
		if err != nil {
			if repo.IsForeignKeyViolation(err) {
				return ErrNotFound
			}
			return err
		}

		for i, text := range input.Options {
			position := i + 1
			if _, err := tx.Exec(ctx, `
				INSERT INTO budget_options (budget_id, position, text)
				VALUES ($1, $2, $3)
			`, b.ID, position, text); err != nil {
				return err
			}
			b.Options = append(b.Options, Option{Position: position, Text: text})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetActive devolve o orçamento mais recente com prazo vigente.
func (r *Repository) GetActive(ctx context.Context) (*Budget, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	b := &Budget{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, expiration_date, creator_id, created_at
		FROM budgets
		WHERE expiration_date >= CURRENT_DATE
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&b.ID, &b.Title, &b.ExpirationDate, &b.CreatorID, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	b.Options, err = r.listOptions(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetByID devolve um orçamento com suas opções.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Budget, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	b := &Budget{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, expiration_date, creator_id, created_at
		FROM budgets
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Title, &b.ExpirationDate, &b.CreatorID, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	b.Options, err = r.listOptions(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Repository) listOptions(ctx context.Context, budgetID int64) ([]Option, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT position, text
		FROM budget_options
		WHERE budget_id = $1
		ORDER BY position
	`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := []Option{}
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.Position, &o.Text); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// CallerVote devolve a posição votada pelo usuário, ou nil.
func (r *Repository) CallerVote(ctx context.Context, budgetID, userID int64) (*int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var position int
	err := r.pool.QueryRow(ctx, `
		SELECT position FROM budget_votes WHERE budget_id = $1 AND user_id = $2
	`, budgetID, userID).Scan(&position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

// Vote registra o voto único do usuário validando prazo e opção dentro
// da transação.
func (r *Repository) Vote(ctx context.Context, userID, budgetID int64, position int) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var expired bool
		err := tx.QueryRow(ctx, `
			SELECT expiration_date < CURRENT_DATE FROM budgets WHERE id = $1
		`, budgetID).Scan(&expired)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if expired {
			return ErrClosed
		}

		var optionExists bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM budget_options WHERE budget_id = $1 AND position = $2)
		`, budgetID, position).Scan(&optionExists); err != nil {
			return err
		}
		if !optionExists {
			return &InvalidPositionError{Position: position}
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO budget_votes (user_id, budget_id, position)
			VALUES ($1, $2, $3)
		`, userID, budgetID, position); err != nil {
			if repo.IsUniqueViolation(err) {
				return ErrAlreadyVoted
			}
			if repo.IsForeignKeyViolation(err) {
				return ErrNotFound
			}
			return err
		}
		return nil
	})
}

// ListAll devolve o histórico completo (ativos e encerrados), paginado.
func (r *Repository) ListAll(ctx context.Context, page, pageSize int) ([]Budget, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM budgets`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, title, expiration_date, creator_id, created_at
		FROM budgets
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	budgets := []Budget{}
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.Title, &b.ExpirationDate, &b.CreatorID, &b.CreatedAt); err != nil {
			return nil, 0, err
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range budgets {
		budgets[i].Options, err = r.listOptions(ctx, budgets[i].ID)
		if err != nil {
			return nil, 0, err
		}
	}
	return budgets, total, nil
}
