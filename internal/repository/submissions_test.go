package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skillora/instructor-os/internal/logger"
	"github.com/skillora/instructor-os/internal/models"
)

func newSubmissionsRepo(t *testing.T) *SubmissionsRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	log, err := logger.New("error", "")
	require.NoError(t, err)

	repo, err := NewSubmissionsRepository(db, log)
	require.NoError(t, err)
	return repo
}

func submittedState(userID string, version int) *models.ApplicationState {
	state := models.NewApplicationState(userID)
	state.Version = version
	state.Status = models.ApplicationStatusSubmitted
	state.PersonalInfo.FirstName = "Amira"
	verID := "ver-test"
	state.VerificationID = &verID
	return state
}

func TestSubmissionsRepository_RecordAndLatest(t *testing.T) {
	repo := newSubmissionsRepo(t)
	ctx := context.Background()

	sub, err := repo.Record(ctx, submittedState("user-1", 5))
	require.NoError(t, err)
	assert.NotZero(t, sub.ID)
	assert.Equal(t, "ver-test", sub.VerificationID)

	latest, err := repo.Latest(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 5, latest.Version)
	// the archived snapshot round-trips through the json serializer
	assert.Equal(t, "Amira", latest.State.PersonalInfo.FirstName)
	assert.Equal(t, models.ApplicationStatusSubmitted, latest.State.Status)
}

func TestSubmissionsRepository_LatestNoRows(t *testing.T) {
	repo := newSubmissionsRepo(t)

	latest, err := repo.Latest(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSubmissionsRepository_History(t *testing.T) {
	repo := newSubmissionsRepo(t)
	ctx := context.Background()

	_, err := repo.Record(ctx, submittedState("user-1", 3))
	require.NoError(t, err)
	_, err = repo.Record(ctx, submittedState("user-1", 9))
	require.NoError(t, err)
	_, err = repo.Record(ctx, submittedState("user-2", 1))
	require.NoError(t, err)

	subs, err := repo.History(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	for _, s := range subs {
		assert.Equal(t, "user-1", s.UserID)
	}
}
