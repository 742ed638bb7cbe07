package app

import (
	"context"

	"aikona/internal/model"
	"aikona/internal/repository"
)

type MoodService struct {
	moodRepo *repository.MoodRepository
}

func NewMoodService(moodRepo *repository.MoodRepository) *MoodService {
	return &MoodService{moodRepo: moodRepo}
}

// Recent returns the user's latest mood samples, oldest first.
func (s *MoodService) Recent(ctx context.Context, userID uint, limit int) ([]model.MoodEntry, error) {
	return s.moodRepo.ListRecentByUserID(ctx, userID, limit)
}
