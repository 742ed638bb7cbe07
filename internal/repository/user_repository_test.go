package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aikona/internal/model"
	"aikona/internal/testutil"
)

func TestUserRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &model.User{Username: "mira", Email: "mira@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	require.NotZero(t, user.ID)

	t.Run("lookup by either field", func(t *testing.T) {
		byName, err := repo.GetByUsernameOrEmail(ctx, "mira", "")
		require.NoError(t, err)
		require.NotNil(t, byName)
		assert.Equal(t, user.ID, byName.ID)

		byEmail, err := repo.GetByUsernameOrEmail(ctx, "", "mira@example.com")
		require.NoError(t, err)
		require.NotNil(t, byEmail)
		assert.Equal(t, user.ID, byEmail.ID)

		either, err := repo.GetByUsernameOrEmail(ctx, "nobody", "mira@example.com")
		require.NoError(t, err)
		require.NotNil(t, either)
		assert.Equal(t, user.ID, either.ID)
	})

	t.Run("not found returns nil", func(t *testing.T) {
		missing, err := repo.GetByUsername(ctx, "ghost")
		assert.NoError(t, err)
		assert.Nil(t, missing)

		missing, err = repo.GetByID(ctx, 9999)
		assert.NoError(t, err)
		assert.Nil(t, missing)

		missing, err = repo.GetByUsernameOrEmail(ctx, "", "")
		assert.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("unique username is enforced", func(t *testing.T) {
		err := repo.Create(ctx, &model.User{Username: "mira", Email: "other@example.com", PasswordHash: "hash"})
		assert.Error(t, err)
	})

	t.Run("update profile pic", func(t *testing.T) {
		ok, err := repo.UpdateProfilePic(ctx, user.ID, "/uploads/1-1.png")
		require.NoError(t, err)
		assert.True(t, ok)

		reloaded, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "/uploads/1-1.png", reloaded.ProfilePic)

		ok, err = repo.UpdateProfilePic(ctx, 9999, "/uploads/x.png")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
