// Package access decides what an authenticated identity may do to a specific
// resource. Every check receives the record already fetched from the store,
// never a caller-supplied identifier, so request parameters cannot spoof
// sender or recipient.
package access

import (
	"github.com/Kayvinh/messagely/internal/common"
	"github.com/Kayvinh/messagely/internal/server/models"
)

// Identity is the request-scoped result of a verified bearer token. It is
// never persisted.
type Identity struct {
	Username string
}

// CanViewMessage permits reading a message only to its sender or recipient.
func CanViewMessage(id Identity, msg *models.Message) error {
	if id.Username == msg.FromUsername || id.Username == msg.ToUsername {
		return nil
	}
	return common.ErrorForbidden
}

// CanMarkRead permits the unread-to-read transition only to the recipient,
// and only once. A second mark-read is a conflict rather than a silent
// success, so callers get accurate feedback; there is no transition back to
// unread.
func CanMarkRead(id Identity, msg *models.Message) error {
	if id.Username != msg.ToUsername {
		return common.ErrorForbidden
	}
	if msg.Read() {
		return common.ErrorConflict
	}
	return nil
}

// CanViewUserMessages permits inbox/outbox listings only to their owner.
func CanViewUserMessages(id Identity, username string) error {
	if id.Username != username {
		return common.ErrorForbidden
	}
	return nil
}
