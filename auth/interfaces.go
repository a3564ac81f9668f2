package auth

import (
	"context"

	"github.com/zofiadobrowolskaa/battleship-web-protocols/domain"
)

type UserRepo interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

type TokenManager interface {
	Generate(username string) (string, error)
	Verify(token string) (string, error)
}
