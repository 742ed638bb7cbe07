package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"aikona/internal/model"
	"aikona/internal/pkg/jwtutil"
	"aikona/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("Username, email and password required")
	ErrInvalidEmail      = errors.New("Invalid email address")
	ErrPasswordTooShort  = errors.New("Password must be at least 8 characters")
	ErrLoginInput        = errors.New("Username or email and password required")
	ErrUsernameExists    = errors.New("Username already registered")
	ErrEmailExists       = errors.New("Email already registered")
	ErrInvalidCredential = errors.New("Invalid credentials")
	ErrUserNotFound      = errors.New("User not found")
)

const minPasswordLen = 8

type AuthService struct {
	userRepo      *repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
	bcryptCost    int
}

type SignupInput struct {
	Username   string
	Email      string
	Password   string
	ProfilePic string
}

// LoginInput identifies the user by Username when set, otherwise by Email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

type AuthResult struct {
	Token string
	User  *model.User
}

func NewAuthService(userRepo *repository.UserRepository, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		bcryptCost:    bcrypt.DefaultCost,
	}
}

// WithBcryptCost lowers hashing cost in tests.
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.bcryptCost = cost
	return s
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := input.Password

	if username == "" || email == "" || password == "" {
		return nil, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}

	existing, err := s.userRepo.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Username == username {
			return nil, ErrUsernameExists
		}
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	profilePic := strings.TrimSpace(input.ProfilePic)
	if profilePic == "" {
		profilePic = model.DefaultProfilePic(username)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		ProfilePic:   profilePic,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if (username == "" && email == "") || input.Password == "" {
		return nil, ErrLoginInput
	}

	var (
		user *model.User
		err  error
	)
	if username != "" {
		user, err = s.userRepo.GetByUsername(ctx, username)
	} else {
		user, err = s.userRepo.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Username, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}
