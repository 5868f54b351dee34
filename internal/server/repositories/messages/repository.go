package messages

import (
	"context"
	"time"

	"github.com/Kayvinh/messagely/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetByID(ctx context.Context, id string) (*models.Message, error)
	// MarkRead performs the unread-to-read transition as a single conditional
	// update; it fails with common.ErrorConflict if the message is no longer
	// unread.
	MarkRead(ctx context.Context, id string) (time.Time, error)
	ListFrom(ctx context.Context, username string) ([]models.MessageWithProfile, error)
	ListTo(ctx context.Context, username string) ([]models.MessageWithProfile, error)
}
