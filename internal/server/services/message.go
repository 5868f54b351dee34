package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/Kayvinh/messagely/internal/common"
	"github.com/Kayvinh/messagely/internal/server/access"
	"github.com/Kayvinh/messagely/internal/server/models"
	"github.com/Kayvinh/messagely/internal/server/repositories/repomanager"
)

// MessageService handles sending, reading, and the read-receipt transition of
// messages. Every authorization decision runs against the freshly fetched
// record; a rejected operation performs no writes.
type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewMessageService constructs a MessageService.
func NewMessageService(db *sql.DB, m repomanager.RepositoryManager) *MessageService {
	return &MessageService{db: db, repomanager: m}
}

// Send creates a message from the authenticated sender to the given
// recipient. An unknown recipient yields common.ErrorNotFound.
func (s *MessageService) Send(ctx context.Context, id access.Identity, toUsername, body string) (*models.Message, error) {
	exists, err := s.repomanager.Users(s.db).Exists(ctx, toUsername)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !exists {
		return nil, common.ErrorNotFound
	}

	msg := &models.Message{
		ID:           uuid.NewString(),
		FromUsername: id.Username,
		ToUsername:   toUsername,
		Body:         body,
	}

	created, err := s.repomanager.Messages(s.db).Create(ctx, msg)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return created, nil
}

// Get fetches a message and authorizes the caller against the stored record
// before disclosing it. Sender and recipient profiles are attached for the
// response shape.
func (s *MessageService) Get(ctx context.Context, id access.Identity, messageID string) (*models.MessageWithProfile, error) {
	msg, err := s.fetch(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if err := access.CanViewMessage(id, msg); err != nil {
		return nil, err
	}

	result := &models.MessageWithProfile{Message: *msg}

	usersRepo := s.repomanager.Users(s.db)
	for _, side := range []struct {
		username string
		dst      **models.PublicProfile
	}{
		{msg.FromUsername, &result.FromUser},
		{msg.ToUsername, &result.ToUser},
	} {
		user, err := usersRepo.GetByUsername(ctx, side.username)
		if err != nil {
			return nil, common.ErrorInternal
		}
		profile := user.Public()
		*side.dst = &profile
	}

	return result, nil
}

// MarkRead transitions a message from unread to read. Only the recipient may
// do so; a second mark-read yields common.ErrorConflict. The transition is a
// single conditional update in the store, so concurrent calls cannot both
// succeed.
func (s *MessageService) MarkRead(ctx context.Context, id access.Identity, messageID string) (*models.Message, error) {
	msg, err := s.fetch(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if err := access.CanMarkRead(id, msg); err != nil {
		return nil, err
	}

	readAt, err := s.repomanager.Messages(s.db).MarkRead(ctx, messageID)
	if err != nil {
		// the guard saw the message unread, so a missed update means another
		// mark-read won the race
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, common.ErrorInternal
	}

	msg.ReadAt = &readAt
	return msg, nil
}

func (s *MessageService) fetch(ctx context.Context, messageID string) (*models.Message, error) {
	msg, err := s.repomanager.Messages(s.db).GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return msg, nil
}
