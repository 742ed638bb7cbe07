package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"aikona/internal/imaging"
	"aikona/internal/repository"
	"aikona/internal/storage"
)

var (
	ErrNoFile       = errors.New("No file uploaded. Please select an image file.")
	ErrNotImageFile = errors.New("Only image files are allowed (JPEG, PNG, GIF, etc.)")
	ErrFileTooLarge = errors.New("File size must be less than 5MB")
)

const avatarMaxSide = 512

type AvatarUpload struct {
	UserID      uint
	ContentType string
	Size        int64
	Body        io.Reader
	// BaseURL turns store-relative locations into absolute URLs.
	BaseURL string
}

type AvatarService struct {
	userRepo *repository.UserRepository
	store    storage.Store
	maxBytes int64
	now      func() time.Time
	logger   *slog.Logger
}

func NewAvatarService(userRepo *repository.UserRepository, store storage.Store, maxBytes int64, logger *slog.Logger) *AvatarService {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AvatarService{
		userRepo: userRepo,
		store:    store,
		maxBytes: maxBytes,
		now:      time.Now,
		logger:   logger,
	}
}

// Upload validates the file fully before touching the store or the user row.
func (s *AvatarService) Upload(ctx context.Context, in AvatarUpload) (string, error) {
	if in.Body == nil {
		return "", ErrNoFile
	}
	if !strings.HasPrefix(strings.ToLower(in.ContentType), "image/") {
		return "", ErrNotImageFile
	}
	if in.Size > s.maxBytes {
		return "", ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrNoFile
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrFileTooLarge
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return "", ErrNotImageFile
	}

	avatar, err := imaging.Normalize(data, avatarMaxSide)
	if err != nil {
		return "", ErrNotImageFile
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	name := fmt.Sprintf("%d-%d%s", in.UserID, s.now().UnixMilli(), avatarExt(avatar))
	location, err := s.store.Save(ctx, name, avatar.ContentType, bytes.NewReader(avatar.Data))
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(location, "/") {
		location = strings.TrimRight(in.BaseURL, "/") + location
	}

	ok, err := s.userRepo.UpdateProfilePic(ctx, in.UserID, location)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrUserNotFound
	}

	s.logger.InfoContext(ctx, "profile picture updated", "user", user.Username, "url", location)
	return location, nil
}

// avatarExt follows the decoded format so the static route never serves an
// upload under a client-chosen extension.
func avatarExt(avatar *imaging.Avatar) string {
	if avatar.Ext != "" {
		return avatar.Ext
	}
	if avatar.Format == "jpeg" {
		return ".jpg"
	}
	return "." + avatar.Format
}
