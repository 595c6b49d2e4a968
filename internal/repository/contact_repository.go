package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"lensfolio/api/internal/models"
)

var ErrMessageNotFound = errors.New("contact message not found")

type ContactRepository struct {
	pool *pgxpool.Pool
}

func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

func (r *ContactRepository) Create(ctx context.Context, msg models.ContactMessage) error {
	const query = `
		INSERT INTO contact_messages (id, name, email, subject, message, read, replied, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, FALSE, NOW())
	`
	_, err := r.pool.Exec(ctx, query, msg.ID, msg.Name, msg.Email, msg.Subject, msg.Message)
	return err
}

func (r *ContactRepository) List(ctx context.Context, limit, offset int) ([]models.ContactMessage, error) {
	const query = `
		SELECT id, name, email, subject, message, read, replied, created_at
		FROM contact_messages
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.ContactMessage
	for rows.Next() {
		var msg models.ContactMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.Name,
			&msg.Email,
			&msg.Subject,
			&msg.Message,
			&msg.Read,
			&msg.Replied,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *ContactRepository) MarkRead(ctx context.Context, id string, read bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE contact_messages SET read = $2 WHERE id = $1`, id, read)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *ContactRepository) MarkReplied(ctx context.Context, id string, replied bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE contact_messages SET replied = $2 WHERE id = $1`, id, replied)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *ContactRepository) Counts(ctx context.Context) (total int64, unread int64, err error) {
	const query = `SELECT COUNT(*), COUNT(*) FILTER (WHERE NOT read) FROM contact_messages`
	err = r.pool.QueryRow(ctx, query).Scan(&total, &unread)
	return total, unread, err
}
