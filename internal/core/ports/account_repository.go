package ports

import (
	"context"

	"github.com/chatrelay/chat-system/internal/core/domain"
)

// AccountRepository defines the interface for account persistence.
//
// Create must rely on the store's unique constraint for duplicate detection
// and return domain.ErrAccountExists on a constraint violation; a separate
// existence check before insert is not an acceptable substitute (it races
// under concurrent signups).
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
}
