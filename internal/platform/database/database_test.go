package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aikona/internal/model"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable(&model.User{}))
	assert.True(t, db.Migrator().HasTable(&model.Message{}))
	assert.True(t, db.Migrator().HasTable(&model.MoodEntry{}))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mongodb", "mongodb://localhost")
	assert.Error(t, err)
}

func TestOpenUnreachableServer(t *testing.T) {
	db, err := Open(context.Background(), "mysql", "aikona:secret@tcp(127.0.0.1:1)/aikona?timeout=1s")
	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "mysql failed")
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on", SQLiteDSN(":memory:"))
	assert.Equal(t, "file:a.db?cache=shared&_foreign_keys=on", SQLiteDSN("file:a.db?cache=shared"))
	assert.Equal(t, "a.db?_fk=1", SQLiteDSN("a.db?_fk=1"))
}

func TestSQLiteEnforcesMessageOwner(t *testing.T) {
	db, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	require.NoError(t, Migrate(db))

	orphan := &model.Message{UserID: 999, Role: model.RoleUser, Text: "hello"}
	assert.Error(t, db.Create(orphan).Error, "message without a user must be rejected")

	user := &model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&model.Message{UserID: user.ID, Role: model.RoleUser, Text: "hi"}).Error)

	require.NoError(t, db.Delete(&model.User{}, user.ID).Error)
	var count int64
	require.NoError(t, db.Model(&model.Message{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count, "deleting a user removes their messages")
}
