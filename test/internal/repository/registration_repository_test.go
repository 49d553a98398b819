package repository

import (
	"context"
	"testing"
	"time"

	"go-gin-course-booking/internal/model"
	"go-gin-course-booking/internal/repository"
	apperrors "go-gin-course-booking/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationRepository_Create(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	repo := repository.NewRegistrationRepository(getTestDB())
	ctx := context.Background()

	courseID := createTestCourse(t, "瑜珈", 10, 500.0)
	sessionID := createTestSession(t, courseID, 10, time.Now().UTC().Add(48*time.Hour))

	tx, err := testDB.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	registration := &model.Registration{
		UserID:       1,
		SessionID:    sessionID,
		Status:       model.RegistrationStatusConfirmed,
		RegisteredAt: time.Now().UTC(),
	}

	created, err := repo.Create(ctx, tx, registration)

	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	assert.NotZero(t, created.ID)
	assert.Equal(t, model.RegistrationStatusConfirmed, created.Status)
	assert.Nil(t, created.SessionBookID)
}

func TestRegistrationRepository_ExistsConfirmed(t *testing.T) {
	repo := repository.NewRegistrationRepository(getTestDB())
	ctx := context.Background()

	t.Run("ConfirmedExists", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		courseID := createTestCourse(t, "瑜珈", 10, 500.0)
		sessionID := createTestSession(t, courseID, 10, time.Now().UTC().Add(48*time.Hour))
		createTestRegistration(t, 1, sessionID, model.RegistrationStatusConfirmed)

		tx, err := testDB.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		exists, err := repo.ExistsConfirmed(ctx, tx, 1, sessionID)

		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("CancelledDoesNotCount", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		courseID := createTestCourse(t, "瑜珈", 10, 500.0)
		sessionID := createTestSession(t, courseID, 10, time.Now().UTC().Add(48*time.Hour))
		// 取消過的報名不阻擋再次報名
		createTestRegistration(t, 1, sessionID, model.RegistrationStatusCancelled)

		tx, err := testDB.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		exists, err := repo.ExistsConfirmed(ctx, tx, 1, sessionID)

		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestRegistrationRepository_MarkCancelled(t *testing.T) {
	repo := repository.NewRegistrationRepository(getTestDB())
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		courseID := createTestCourse(t, "瑜珈", 10, 500.0)
		sessionID := createTestSession(t, courseID, 10, time.Now().UTC().Add(48*time.Hour))
		regID := createTestRegistration(t, 1, sessionID, model.RegistrationStatusConfirmed)

		tx, err := testDB.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		cancelledAt := time.Now().UTC()
		cancelled, err := repo.MarkCancelled(ctx, tx, regID, cancelledAt)

		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))
		assert.Equal(t, model.RegistrationStatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancelledAt)
	})

	t.Run("AlreadyCancelled", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		courseID := createTestCourse(t, "瑜珈", 10, 500.0)
		sessionID := createTestSession(t, courseID, 10, time.Now().UTC().Add(48*time.Hour))
		regID := createTestRegistration(t, 1, sessionID, model.RegistrationStatusCancelled)

		tx, err := testDB.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		_, err = repo.MarkCancelled(ctx, tx, regID, time.Now().UTC())

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrAlreadyCancelled, err)
	})
}

func TestRegistrationRepository_ListByUserID(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	repo := repository.NewRegistrationRepository(getTestDB())
	ctx := context.Background()

	courseID := createTestCourse(t, "皮拉提斯", 8, 650.0)
	sessionID := createTestSession(t, courseID, 8, time.Now().UTC().Add(48*time.Hour))
	createTestRegistration(t, 1, sessionID, model.RegistrationStatusConfirmed)
	createTestRegistration(t, 2, sessionID, model.RegistrationStatusConfirmed)

	registrations, err := repo.ListByUserID(ctx, 1)

	require.NoError(t, err)
	require.Len(t, registrations, 1)
	// join 帶出場次與課程
	require.NotNil(t, registrations[0].Session)
	require.NotNil(t, registrations[0].Session.Course)
	assert.Equal(t, "皮拉提斯", registrations[0].Session.Course.Name)
}

func TestRegistrationRepository_CountBySessionID(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	repo := repository.NewRegistrationRepository(getTestDB())
	ctx := context.Background()

	courseID := createTestCourse(t, "有氧", 10, 400.0)
	sessionID := createTestSession(t, courseID, 10, time.Now().UTC().Add(48*time.Hour))
	createTestRegistration(t, 1, sessionID, model.RegistrationStatusConfirmed)
	createTestRegistration(t, 2, sessionID, model.RegistrationStatusCancelled)

	// 含已取消的報名，刪除防呆用
	count, err := repo.CountBySessionID(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	confirmed, err := repo.CountConfirmedBySessionID(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, confirmed)
}

func TestRegistrationRepository_FindByIDWithLock(t *testing.T) {
	repo := repository.NewRegistrationRepository(getTestDB())
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		tx, err := testDB.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		_, err = repo.FindByIDWithLock(ctx, tx, 99999)

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrRegistrationNotFound, err)
	})
}
