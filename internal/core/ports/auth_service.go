package ports

import (
	"context"

	"github.com/chatrelay/chat-system/internal/core/domain"
)

type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (*domain.Account, error)
	Login(ctx context.Context, username, password string) (string, *domain.Account, error)
}
