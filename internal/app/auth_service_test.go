package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"aikona/internal/model"
	"aikona/internal/pkg/jwtutil"
	"aikona/internal/repository"
	"aikona/internal/testutil"
)

const testSecret = "test-secret"

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := testutil.NewDB(t)
	return NewAuthService(repository.NewUserRepository(db), testSecret, time.Hour).WithBcryptCost(bcrypt.MinCost)
}

func TestAuthService_SignupThenLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "Alice@Example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, model.DefaultProfilePic("alice"), user.ProfilePic)
	assert.NotEqual(t, "password123", user.PasswordHash)

	for _, in := range []LoginInput{
		{Username: "alice", Password: "password123"},
		{Email: "ALICE@example.com", Password: "password123"},
	} {
		res, err := svc.Login(ctx, in)
		require.NoError(t, err)

		claims, err := jwtutil.ParseToken(testSecret, res.Token)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, "alice@example.com", claims.Email)
	}
}

func TestAuthService_SignupValidation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Username: "bob", Email: "bob@example.com", Password: "password123", ProfilePic: "https://cdn/bob.png"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   SignupInput
		want error
	}{
		{name: "missing username", in: SignupInput{Email: "x@example.com", Password: "password123"}, want: ErrInvalidInput},
		{name: "missing password", in: SignupInput{Username: "x", Email: "x@example.com"}, want: ErrInvalidInput},
		{name: "bad email", in: SignupInput{Username: "x", Email: "not-an-email", Password: "password123"}, want: ErrInvalidEmail},
		{name: "short password", in: SignupInput{Username: "x", Email: "x@example.com", Password: "short"}, want: ErrPasswordTooShort},
		{name: "duplicate username", in: SignupInput{Username: "bob", Email: "other@example.com", Password: "password123"}, want: ErrUsernameExists},
		{name: "duplicate email", in: SignupInput{Username: "bobby", Email: "BOB@example.com", Password: "password123"}, want: ErrEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	_, err := svc.Signup(ctx, SignupInput{Username: "carol", Email: "carol@example.com", Password: "password123"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, LoginInput{Username: "carol", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.Nil(t, res)

	_, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Login(ctx, LoginInput{Password: "password123"})
	assert.ErrorIs(t, err, ErrLoginInput)
}
