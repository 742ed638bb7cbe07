package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"aikona/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetByUsernameOrEmail matches either field; empty arguments are ignored.
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	switch {
	case username != "" && email != "":
		return r.first(ctx, "username = ? OR email = ?", username, email)
	case username != "":
		return r.GetByUsername(ctx, username)
	case email != "":
		return r.GetByEmail(ctx, email)
	default:
		return nil, nil
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

// UpdateProfilePic reports false when no user row matched id.
func (r *UserRepository) UpdateProfilePic(ctx context.Context, id uint, url string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("profile_pic", url)
	if res.Error != nil {
		return false, fmt.Errorf("update profile pic failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *UserRepository) first(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user failed: %w", err)
	}
	return &user, nil
}
