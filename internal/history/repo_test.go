package history

import (
	"context"
	"testing"
	"time"

	"github.com/debugly/debugly-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHistoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS debug_history (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  code TEXT NOT NULL,
  result TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT 'Untitled Debug Session',
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)

	return db
}

func seedHistoryItem(t *testing.T, repo *Repository, userID uuid.UUID, code string, createdAt time.Time) *models.DebugHistoryItem {
	t.Helper()

	item := &models.DebugHistoryItem{
		ID:        uuid.New(),
		UserID:    userID,
		Code:      code,
		Result:    "fixed: " + code,
		Title:     "Untitled Debug Session",
		CreatedAt: createdAt,
	}
	require.NoError(t, repo.Insert(context.Background(), item))
	return item
}

func TestHistoryRepositoryListByUserNewestFirst(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	otherID := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	oldest := seedHistoryItem(t, repo, userID, "a", base)
	newest := seedHistoryItem(t, repo, userID, "b", base.Add(2*time.Hour))
	middle := seedHistoryItem(t, repo, userID, "c", base.Add(time.Hour))
	seedHistoryItem(t, repo, otherID, "d", base.Add(3*time.Hour))

	items, err := repo.ListByUser(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, newest.ID, items[0].ID)
	assert.Equal(t, middle.ID, items[1].ID)
	assert.Equal(t, oldest.ID, items[2].ID)
}

func TestHistoryRepositoryListByUserHonorsLimit(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedHistoryItem(t, repo, userID, "snippet", base.Add(time.Duration(i)*time.Minute))
	}

	items, err := repo.ListByUser(context.Background(), userID, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestHistoryRepositoryFindByID(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewRepository(db)

	item := seedHistoryItem(t, repo, uuid.New(), "x := 1", time.Now().UTC())

	found, err := repo.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Code, found.Code)
	assert.Equal(t, item.Result, found.Result)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
