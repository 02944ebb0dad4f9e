package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chatrelay/chat-system/internal/core/domain"
	"github.com/chatrelay/chat-system/internal/core/ports"
)

// AuthService implements signup and login on top of the account repository
// and the password hasher. Each request is independent; the service holds no
// mutable state beyond its collaborators.
type AuthService struct {
	repo      ports.AccountRepository
	hasher    ports.PasswordHasher
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(repo ports.AccountRepository, hasher ports.PasswordHasher, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, hasher: hasher, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Signup hashes the password and creates the account. Duplicate username or
// email surfaces as domain.ErrAccountExists, straight from the store's unique
// constraint.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*domain.Account, error) {
	if username == "" || email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	return s.repo.Create(ctx, account)
}

// Login verifies the credentials and returns a signed session token together
// with the account's public identity.
//
// An unknown username and a wrong password both return
// domain.ErrInvalidCredentials: callers can never distinguish the two, which
// keeps login resistant to account enumeration.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.Account, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(account)
	if err != nil {
		return "", nil, err
	}

	return token, account, nil
}

func (s *AuthService) generateToken(account *domain.Account) (string, error) {
	claims := jwt.MapClaims{
		"username": account.Username,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
