package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aikona/internal/model"
	"aikona/internal/repository"
	"aikona/internal/testutil"
)

func TestMoodPersistWorker_Handle(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "alice")
	repo := repository.NewMoodRepository(db)
	w := NewMoodPersistWorker(nil, repo, "aikona.mood.persist", nil)
	ctx := context.Background()

	body, err := json.Marshal(model.MoodEntry{ID: 99, UserID: user.ID, Score: -3, Comparative: -1, Hint: "sad"})
	require.NoError(t, err)
	require.NoError(t, w.handle(ctx, body))

	entries, err := repo.ListRecentByUserID(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, -3, entries[0].Score)
	assert.Equal(t, "sad", entries[0].Hint)

	assert.Error(t, w.handle(ctx, []byte("{")))
	assert.Error(t, w.handle(ctx, []byte(`{"score":1}`)))
}
