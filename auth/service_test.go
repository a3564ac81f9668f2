package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zofiadobrowolskaa/battleship-web-protocols/domain"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (domain.User, error) {
	args := m.Called(ctx, username, email, passwordHash)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(domain.User), args.Error(1)
}

type mockHasher struct {
	mock.Mock
}

func (m *mockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *mockHasher) Compare(hash, password string) (bool, error) {
	args := m.Called(hash, password)
	return args.Bool(0), args.Error(1)
}

type mockTokens struct {
	mock.Mock
}

func (m *mockTokens) Generate(username string) (string, error) {
	args := m.Called(username)
	return args.String(0), args.Error(1)
}

func (m *mockTokens) Verify(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

func TestServiceSignup_InputValidation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{
			desc:     "username too short",
			username: "ab",
			email:    "a@b.com",
			password: "longenough",
			wantErr:  ErrInvalidUsernameFormat,
		},
		{
			desc:     "username with capitals",
			username: "Admiral",
			email:    "a@b.com",
			password: "longenough",
			wantErr:  ErrInvalidUsernameFormat,
		},
		{
			desc:     "email without domain",
			username: "admiral",
			email:    "a@b",
			password: "longenough",
			wantErr:  ErrInvalidEmailFormat,
		},
		{
			desc:     "password below eight runes",
			username: "admiral",
			email:    "a@b.com",
			password: "short12",
			wantErr:  ErrWeakPassword,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			repo := &mockUserRepo{}
			s := NewService(repo, &mockHasher{}, &mockTokens{})

			_, err := s.Signup(context.Background(), tc.username, tc.email, tc.password)
			assert.ErrorIs(t, err, tc.wantErr)
			repo.AssertNotCalled(t, "CreateUser")
		})
	}
}

func TestServiceSignup(t *testing.T) {
	t.Parallel()

	t.Run("success returns a session token", func(t *testing.T) {
		t.Parallel()
		repo, hasher, tokens := &mockUserRepo{}, &mockHasher{}, &mockTokens{}
		hasher.On("Hash", "opensesame").Return("$argon2id$...", nil)
		repo.On("CreateUser", mock.Anything, "admiral", "a@b.com", "$argon2id$...").
			Return(domain.User{Username: "admiral"}, nil)
		tokens.On("Generate", "admiral").Return("token-123", nil)

		s := NewService(repo, hasher, tokens)
		token, err := s.Signup(context.Background(), "admiral", "a@b.com", "opensesame")
		require.NoError(t, err)
		assert.Equal(t, "token-123", token)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate username surfaces the repo error", func(t *testing.T) {
		t.Parallel()
		repo, hasher := &mockUserRepo{}, &mockHasher{}
		hasher.On("Hash", mock.Anything).Return("h", nil)
		repo.On("CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(domain.User{}, domain.ErrDuplicateUsername)

		s := NewService(repo, hasher, &mockTokens{})
		_, err := s.Signup(context.Background(), "admiral", "a@b.com", "opensesame")
		assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
	})
}

func TestServiceLogin(t *testing.T) {
	t.Parallel()

	t.Run("success returns a session token", func(t *testing.T) {
		t.Parallel()
		repo, hasher, tokens := &mockUserRepo{}, &mockHasher{}, &mockTokens{}
		repo.On("GetUserByUsername", mock.Anything, "admiral").
			Return(domain.User{Username: "admiral", PasswordHash: "h"}, nil)
		hasher.On("Compare", "h", "opensesame").Return(true, nil)
		tokens.On("Generate", "admiral").Return("token-123", nil)

		s := NewService(repo, hasher, tokens)
		token, err := s.Login(context.Background(), "admiral", "opensesame")
		require.NoError(t, err)
		assert.Equal(t, "token-123", token)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		repo := &mockUserRepo{}
		repo.On("GetUserByUsername", mock.Anything, "ghost").
			Return(domain.User{}, domain.ErrUserNotFound)

		s := NewService(repo, &mockHasher{}, &mockTokens{})
		_, err := s.Login(context.Background(), "ghost", "whatever")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		repo, hasher, tokens := &mockUserRepo{}, &mockHasher{}, &mockTokens{}
		repo.On("GetUserByUsername", mock.Anything, "admiral").
			Return(domain.User{Username: "admiral", PasswordHash: "h"}, nil)
		hasher.On("Compare", "h", "nope1234").Return(false, nil)

		s := NewService(repo, hasher, tokens)
		_, err := s.Login(context.Background(), "admiral", "nope1234")
		assert.ErrorIs(t, err, ErrIncorrectPassword)
		tokens.AssertNotCalled(t, "Generate")
	})
}
