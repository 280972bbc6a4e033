package initiative

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaozabele/participa/internal/repo"
)

const dbTimeout = 3 * time.Second

// psql gera placeholders $n compatíveis com pgx.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository provê acesso às tabelas do ciclo de vida de iniciativas.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const initiativeColumns = `id, title, description, place, status, signature_count, created_at, expiration_date, author_id, category_id, platform_id, external_url`

func scanInitiative(row pgx.Row, ini *Initiative) error {
	return row.Scan(
		&ini.ID,
		&ini.Title,
		&ini.Description,
		&ini.Place,
		&ini.Status,
		&ini.SignatureCount,
		&ini.CreatedAt,
		&ini.ExpirationDate,
		&ini.AuthorID,
		&ini.CategoryID,
		&ini.PlatformID,
		&ini.ExternalURL,
	)
}

// Insert cria a iniciativa e todos os anexos na mesma transação.
func (r *Repository) Insert(ctx context.Context, input CreateInput) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO initiatives (title, description, place, status, signature_count, expiration_date, author_id, category_id)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7)
		RETURNING id
	`, input.Title, input.Description, input.Place, StatusInProgress, input.ExpirationDate, input.AuthorID, input.CategoryID).Scan(&id)
	if err != nil {
		if repo.IsForeignKeyViolation(err) {
			return 0, ErrInvalidReference
		}
		return 0, err
	}

	for _, att := range input.Attachments {
		if _, err := tx.Exec(ctx, `
			INSERT INTO attachments (file_name, file_path, file_type, initiative_id)
			VALUES ($1, $2, $3, $4)
		`, att.FileName, att.FilePath, att.FileType, id); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// GetDetail carrega iniciativa, anexos e resposta (com anexos próprios).
func (r *Repository) GetDetail(ctx context.Context, id int64) (*Detail, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	detail := &Detail{}
	err := scanInitiative(r.pool.QueryRow(ctx, `
		SELECT `+initiativeColumns+`
		FROM initiatives
		WHERE id = $1
	`, id), &detail.Initiative)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	detail.Attachments, err = r.listAttachments(ctx, "initiative_id", id)
	if err != nil {
		return nil, err
	}

	reply := &Reply{}
	err = r.pool.QueryRow(ctx, `
		SELECT id, initiative_id, author_id, reply_text, new_status, created_at
		FROM replies
		WHERE initiative_id = $1
	`, id).Scan(&reply.ID, &reply.InitiativeID, &reply.AuthorID, &reply.ReplyText, &reply.NewStatus, &reply.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// iniciativa ainda sem resposta oficial
	case err != nil:
		return nil, err
	default:
		reply.Attachments, err = r.listAttachments(ctx, "reply_id", reply.ID)
		if err != nil {
			return nil, err
		}
		detail.Reply = reply
	}

	return detail, nil
}

func (r *Repository) listAttachments(ctx context.Context, parentColumn string, parentID int64) ([]Attachment, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, file_name, file_path, file_type, initiative_id, reply_id
		FROM attachments
		WHERE %s = $1
		ORDER BY id
	`, parentColumn), parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := []Attachment{}
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.FileName, &a.FilePath, &a.FileType, &a.InitiativeID, &a.ReplyID); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// filterPredicates monta as cláusulas WHERE sem concatenação de strings.
func filterPredicates(f Filter) sq.And {
	var pred sq.And
	if f.Status != nil {
		pred = append(pred, sq.Eq{"i.status": *f.Status})
	}
	if f.CategoryID != nil {
		pred = append(pred, sq.Eq{"i.category_id": *f.CategoryID})
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		pred = append(pred, sq.Or{
			sq.ILike{"i.title": like},
			sq.ILike{"i.description": like},
			sq.ILike{"i.place": like},
		})
	}
	if f.MinSignatures != nil {
		pred = append(pred, sq.GtOrEq{"i.signature_count": *f.MinSignatures})
	}
	if f.MaxSignatures != nil {
		pred = append(pred, sq.LtOrEq{"i.signature_count": *f.MaxSignatures})
	}
	return pred
}

var sortColumns = map[string]string{
	SortByCreatedAt:      "i.created_at",
	SortBySignatureCount: "i.signature_count",
	SortByTitle:          "i.title",
}

// List aplica filtros, ordenação e paginação, devolvendo também o total.
// Cada linha carrega no máximo um anexo (o primeiro encontrado).
func (r *Repository) List(ctx context.Context, f Filter) ([]ListItem, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	pred := filterPredicates(f)

	countBuilder := psql.Select("COUNT(*)").From("initiatives i")
	if len(pred) > 0 {
		countBuilder = countBuilder.Where(pred)
	}
	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = sortColumns[SortByCreatedAt]
	}
	direction := "ASC"
	if f.SortDesc {
		direction = "DESC"
	}

	builder := psql.Select(
		"i.id", "i.title", "i.description", "i.place", "i.status", "i.signature_count",
		"i.created_at", "i.expiration_date", "i.author_id", "i.category_id", "i.platform_id", "i.external_url",
		"att.id", "att.file_name", "att.file_path", "att.file_type",
	).
		From("initiatives i").
		JoinClause(`LEFT JOIN LATERAL (
			SELECT a.id, a.file_name, a.file_path, a.file_type
			FROM attachments a
			WHERE a.initiative_id = i.id
			ORDER BY a.id
			LIMIT 1
		) att ON TRUE`).
		OrderBy(column + " " + direction).
		Limit(uint64(f.PageSize)).
		Offset(uint64((f.Page - 1) * f.PageSize))
	if len(pred) > 0 {
		builder = builder.Where(pred)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []ListItem{}
	for rows.Next() {
		var item ListItem
		var attID *int64
		var attName, attPath, attType *string
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Description, &item.Place, &item.Status, &item.SignatureCount,
			&item.CreatedAt, &item.ExpirationDate, &item.AuthorID, &item.CategoryID, &item.PlatformID, &item.ExternalURL,
			&attID, &attName, &attPath, &attType,
		); err != nil {
			return nil, 0, err
		}
		if attID != nil {
			item.Attachment = &Attachment{
				ID:           *attID,
				FileName:     *attName,
				FilePath:     *attPath,
				FileType:     *attType,
				InitiativeID: &item.ID,
			}
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

// UpdateExpiration altera o prazo e, se a iniciativa estava vencida,
// reabre para "In corso" no mesmo UPDATE.
func (r *Repository) UpdateExpiration(ctx context.Context, id int64, newDate time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
		UPDATE initiatives
		SET expiration_date = $1,
		    status = CASE WHEN status = $2 THEN $3 ELSE status END
		WHERE id = $4
	`, newDate, StatusExpired, StatusInProgress, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Sign insere a assinatura e incrementa o contador na mesma transação.
// O SELECT FOR UPDATE serializa assinaturas concorrentes sobre a linha.
func (r *Repository) Sign(ctx context.Context, userID, initiativeID int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status Status
	err = tx.QueryRow(ctx, `
		SELECT status FROM initiatives WHERE id = $1 FOR UPDATE
	`, initiativeID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if status != StatusInProgress {
		return &NotOpenError{Current: status}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO signatures (user_id, initiative_id) VALUES ($1, $2)
	`, userID, initiativeID); err != nil {
		if repo.IsUniqueViolation(err) {
			return ErrAlreadySigned
		}
		if repo.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE initiatives SET signature_count = signature_count + 1 WHERE id = $1
	`, initiativeID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Follow registra o acompanhamento de uma iniciativa.
func (r *Repository) Follow(ctx context.Context, userID, initiativeID int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO follows (user_id, initiative_id) VALUES ($1, $2)
	`, userID, initiativeID)
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return ErrAlreadyFollowing
		}
		if repo.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Unfollow remove o acompanhamento; remover o que não existe é erro.
func (r *Repository) Unfollow(ctx context.Context, userID, initiativeID int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM follows WHERE user_id = $1 AND initiative_id = $2
	`, userID, initiativeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFollowNotFound
	}
	return nil
}

// CreateReply grava resposta, novo status, anexos e uma notificação por
// destinatário, tudo na mesma transação. Qualquer falha desfaz o conjunto.
func (r *Repository) CreateReply(ctx context.Context, input ReplyCreate) (*Reply, []Recipient, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	var currentStatus Status
	err = tx.QueryRow(ctx, `
		SELECT status FROM initiatives WHERE id = $1 FOR UPDATE
	`, input.InitiativeID).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	reply := &Reply{
		InitiativeID: input.InitiativeID,
		AuthorID:     input.AuthorID,
		ReplyText:    input.ReplyText,
		NewStatus:    input.NewStatus,
		Attachments:  []Attachment{},
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO replies (initiative_id, author_id, reply_text, new_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, input.InitiativeID, input.AuthorID, input.ReplyText, input.NewStatus).Scan(&reply.ID, &reply.CreatedAt)
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, nil, ErrAlreadyReplied
		}
		if repo.IsForeignKeyViolation(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE initiatives SET status = $1 WHERE id = $2
	`, input.NewStatus, input.InitiativeID); err != nil {
		return nil, nil, err
	}

	for _, att := range input.Attachments {
		var a Attachment
		if err := tx.QueryRow(ctx, `
			INSERT INTO attachments (file_name, file_path, file_type, reply_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, att.FileName, att.FilePath, att.FileType, reply.ID).Scan(&a.ID); err != nil {
			return nil, nil, err
		}
		a.FileName, a.FilePath, a.FileType = att.FileName, att.FilePath, att.FileType
		a.ReplyID = &reply.ID
		reply.Attachments = append(reply.Attachments, a)
	}

	author, err := queryRecipients(ctx, tx, `
		SELECT u.id, u.name, u.email
		FROM users u
		JOIN initiatives i ON i.author_id = u.id
		WHERE i.id = $1
	`, input.InitiativeID)
	if err != nil {
		return nil, nil, err
	}
	signers, err := queryRecipients(ctx, tx, `
		SELECT u.id, u.name, u.email
		FROM users u
		JOIN signatures s ON s.user_id = u.id
		WHERE s.initiative_id = $1
	`, input.InitiativeID)
	if err != nil {
		return nil, nil, err
	}
	followers, err := queryRecipients(ctx, tx, `
		SELECT u.id, u.name, u.email
		FROM users u
		JOIN follows f ON f.user_id = u.id
		WHERE f.initiative_id = $1
	`, input.InitiativeID)
	if err != nil {
		return nil, nil, err
	}

	recipients := mergeRecipients(author, signers, followers)
	for _, rec := range recipients {
		if _, err := tx.Exec(ctx, `
			INSERT INTO notifications (user_id, text, link_ref)
			VALUES ($1, $2, $3)
		`, rec.UserID, input.NotificationText, input.NotificationLink); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return reply, recipients, nil
}

func queryRecipients(ctx context.Context, tx pgx.Tx, query string, initiativeID int64) ([]Recipient, error) {
	rows, err := tx.Query(ctx, query, initiativeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []Recipient
	for rows.Next() {
		var rec Recipient
		if err := rows.Scan(&rec.UserID, &rec.Name, &rec.Email); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

// ExpireOverdue move, em um único UPDATE, todas as iniciativas em
// andamento com prazo vencido para "Scaduta". Idempotente.
func (r *Repository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
		UPDATE initiatives
		SET status = $1
		WHERE status = $2 AND expiration_date IS NOT NULL AND expiration_date < $3
	`, StatusExpired, StatusInProgress, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
