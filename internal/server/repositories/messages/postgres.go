package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Kayvinh/messagely/internal/common"
	"github.com/Kayvinh/messagely/internal/dbx"
	"github.com/Kayvinh/messagely/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {

	query :=
		`INSERT INTO messages (id, from_username, to_username, body, sent_at)
		 VALUES ($1, $2, $3, $4, now())
		 RETURNING sent_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		msg.ID, msg.FromUsername, msg.ToUsername, msg.Body).Scan(&msg.SentAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return msg, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query :=
		`SELECT id, from_username, to_username, body, sent_at, read_at
		 FROM messages
		 WHERE id = $1
		 `

	msg := &models.Message{}
	var readAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID, &msg.FromUsername, &msg.ToUsername, &msg.Body, &msg.SentAt, &readAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if readAt.Valid {
		msg.ReadAt = &readAt.Time
	}

	return msg, nil
}

// MarkRead sets read_at only if the message is still unread, closing the race
// between two concurrent mark-read calls. No matching row means the message
// was already read (the caller has verified existence beforehand).
func (r *PostgresRepository) MarkRead(ctx context.Context, id string) (time.Time, error) {
	query :=
		`UPDATE messages SET read_at = now()
		 WHERE id = $1 AND read_at IS NULL
		 RETURNING read_at
		 `

	var readAt time.Time
	err := r.db.QueryRowContext(ctx, query, id).Scan(&readAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, common.ErrorConflict
		}
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}

	return readAt, nil
}

// ListFrom returns messages sent by username, each joined with the
// recipient's public profile.
func (r *PostgresRepository) ListFrom(ctx context.Context, username string) ([]models.MessageWithProfile, error) {
	query :=
		`SELECT m.id, m.from_username, m.to_username, m.body, m.sent_at, m.read_at,
		        u.username, u.first_name, u.last_name, u.phone
		 FROM messages m
		 JOIN users u ON u.username = m.to_username
		 WHERE m.from_username = $1
		 ORDER BY m.sent_at
		 `

	return r.listWithProfile(ctx, query, username, false)
}

// ListTo returns messages received by username, each joined with the sender's
// public profile.
func (r *PostgresRepository) ListTo(ctx context.Context, username string) ([]models.MessageWithProfile, error) {
	query :=
		`SELECT m.id, m.from_username, m.to_username, m.body, m.sent_at, m.read_at,
		        u.username, u.first_name, u.last_name, u.phone
		 FROM messages m
		 JOIN users u ON u.username = m.from_username
		 WHERE m.to_username = $1
		 ORDER BY m.sent_at
		 `

	return r.listWithProfile(ctx, query, username, true)
}

func (r *PostgresRepository) listWithProfile(ctx context.Context, query, username string, inbound bool) ([]models.MessageWithProfile, error) {
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.MessageWithProfile
	for rows.Next() {
		var m models.MessageWithProfile
		var readAt sql.NullTime
		var p models.PublicProfile
		if err := rows.Scan(&m.ID, &m.FromUsername, &m.ToUsername, &m.Body, &m.SentAt, &readAt,
			&p.Username, &p.FirstName, &p.LastName, &p.Phone); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if readAt.Valid {
			m.ReadAt = &readAt.Time
		}
		if inbound {
			m.FromUser = &p
		} else {
			m.ToUser = &p
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
