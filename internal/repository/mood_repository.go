package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"aikona/internal/model"
)

type MoodRepository struct {
	db *gorm.DB
}

func NewMoodRepository(db *gorm.DB) *MoodRepository {
	return &MoodRepository{db: db}
}

func (r *MoodRepository) Create(ctx context.Context, entry *model.MoodEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create mood entry failed: %w", err)
	}
	return nil
}

// ListRecentByUserID returns the latest limit entries, oldest first.
func (r *MoodRepository) ListRecentByUserID(ctx context.Context, userID uint, limit int) ([]model.MoodEntry, error) {
	switch {
	case limit <= 0:
		limit = 100
	case limit > 500:
		limit = 500
	}

	var entries []model.MoodEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list mood entries failed: %w", err)
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
