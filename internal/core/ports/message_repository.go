package ports

import (
	"context"

	"github.com/chatrelay/chat-system/internal/core/domain"
)

// MessageRepository appends relayed chat messages to durable storage.
// Persistence is best-effort relative to broadcast: callers must treat an
// Insert failure as non-fatal.
type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.ChatMessage) error
	// Recent returns the most recent messages, newest last, capped at limit.
	Recent(ctx context.Context, limit int) ([]domain.ChatMessage, error)
}
