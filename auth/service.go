package auth

import (
	"context"
	"regexp"
	"unicode/utf8"
)

type Service struct {
	userRepo       UserRepo
	passwordHasher PasswordHasher
	tokenManager   TokenManager
}

func NewService(userRepo UserRepo, passwordHasher PasswordHasher, tokenManager TokenManager) *Service {
	return &Service{userRepo, passwordHasher, tokenManager}
}

var (
	usernameFormat = regexp.MustCompile("^[a-z0-9_]{3,20}$")
	emailFormat    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

func (s *Service) Signup(ctx context.Context, username, email, password string) (string, error) {
	if !usernameFormat.MatchString(username) {
		return "", ErrInvalidUsernameFormat
	}
	if !emailFormat.MatchString(email) {
		return "", ErrInvalidEmailFormat
	}
	if utf8.RuneCountInString(password) < 8 {
		return "", ErrWeakPassword
	}

	passwordHash, err := s.passwordHasher.Hash(password)
	if err != nil {
		return "", err
	}

	user, err := s.userRepo.CreateUser(ctx, username, email, passwordHash)
	if err != nil {
		return "", err
	}

	return s.tokenManager.Generate(user.Username)
}

func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	match, err := s.passwordHasher.Compare(user.PasswordHash, password)
	if err != nil {
		return "", err
	}
	if !match {
		return "", ErrIncorrectPassword
	}

	return s.tokenManager.Generate(user.Username)
}

// VerifyToken returns the username if the token is valid, else an error.
func (s *Service) VerifyToken(token string) (string, error) {
	return s.tokenManager.Verify(token)
}

func (s *Service) GenerateToken(username string) (string, error) {
	return s.tokenManager.Generate(username)
}
