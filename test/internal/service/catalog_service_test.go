package service

import (
	"context"
	"testing"
	"time"

	"go-gin-course-booking/internal/model"
	apperrors "go-gin-course-booking/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_CreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("SnapshotsMaxParticipants", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		svc := newCatalogService()
		courseID := createTestCourse(t, "瑜珈", 12, 500.0)

		start := time.Now().UTC().Add(48 * time.Hour)
		session, err := svc.CreateSession(ctx, &model.CreateSessionRequest{
			CourseID:  courseID,
			StartTime: start,
			EndTime:   start.Add(time.Hour),
		})

		require.NoError(t, err)
		assert.Equal(t, 12, session.AvailableSpots)
		assert.Equal(t, model.SessionStatusScheduled, session.Status)

		// 之後調整課程上限不回溯已建立的場次
		_, err = svc.UpdateCourse(ctx, courseID, &model.UpdateCourseParams{MaxParticipants: intPtr(20)})
		require.NoError(t, err)
		assert.Equal(t, 12, getAvailableSpots(t, session.ID))
	})

	t.Run("EndBeforeStart_Rejected", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		svc := newCatalogService()
		courseID := createTestCourse(t, "瑜珈", 12, 500.0)

		start := time.Now().UTC().Add(48 * time.Hour)
		_, err := svc.CreateSession(ctx, &model.CreateSessionRequest{
			CourseID:  courseID,
			StartTime: start,
			EndTime:   start.Add(-time.Hour),
		})

		assert.Equal(t, apperrors.ErrInvalidInput, err)
	})

	t.Run("CourseNotFound", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		svc := newCatalogService()

		start := time.Now().UTC().Add(48 * time.Hour)
		_, err := svc.CreateSession(ctx, &model.CreateSessionRequest{
			CourseID:  99999,
			StartTime: start,
			EndTime:   start.Add(time.Hour),
		})

		assert.Equal(t, apperrors.ErrCourseNotFound, err)
	})
}

func TestCatalogService_DeleteSession(t *testing.T) {
	ctx := context.Background()

	t.Run("WithRegistrations_Rejected", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		catalog := newCatalogService()
		booking := newBookingService(nil)
		courseID := createTestCourse(t, "瑜珈", 10, 500.0)
		sessionID := createTestSession(t, courseID, 10, time.Now().UTC().Add(72*time.Hour))

		registration, err := booking.Reserve(ctx, 1, sessionID, "")
		require.NoError(t, err)

		err = catalog.DeleteSession(ctx, sessionID)
		assert.Equal(t, apperrors.ErrHasRegistrations, err)

		// 已取消的報名仍然阻擋刪除，保留歷史
		_, err = booking.Cancel(ctx, 1, registration.ID)
		require.NoError(t, err)

		err = catalog.DeleteSession(ctx, sessionID)
		assert.Equal(t, apperrors.ErrHasRegistrations, err)
	})

	t.Run("NoRegistrations_Deleted", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		svc := newCatalogService()
		courseID := createTestCourse(t, "瑜珈", 10, 500.0)
		sessionID := createTestSession(t, courseID, 10, time.Now().UTC().Add(72*time.Hour))

		err := svc.DeleteSession(ctx, sessionID)
		require.NoError(t, err)

		_, err = svc.GetSession(ctx, sessionID)
		assert.Equal(t, apperrors.ErrSessionNotFound, err)
	})
}

func TestCatalogService_DeleteCourse(t *testing.T) {
	ctx := context.Background()

	t.Run("WithSessions_Rejected", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		svc := newCatalogService()
		courseID := createTestCourse(t, "瑜珈", 10, 500.0)
		createTestSession(t, courseID, 10, time.Now().UTC().Add(48*time.Hour))

		err := svc.DeleteCourse(ctx, courseID)

		assert.Equal(t, apperrors.ErrHasSessions, err)
	})

	t.Run("NoSessions_SoftDeleted", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		svc := newCatalogService()
		courseID := createTestCourse(t, "瑜珈", 10, 500.0)

		err := svc.DeleteCourse(ctx, courseID)
		require.NoError(t, err)

		_, err = svc.GetCourse(ctx, courseID)
		assert.Equal(t, apperrors.ErrCourseNotFound, err)
	})
}

func TestCatalogService_UpdateSession(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	svc := newCatalogService()
	ctx := context.Background()

	courseID := createTestCourse(t, "瑜珈", 10, 500.0)
	sessionID := createTestSession(t, courseID, 10, time.Now().UTC().Add(48*time.Hour))

	status := model.SessionStatusCompleted
	updated, err := svc.UpdateSession(ctx, sessionID, &model.UpdateSessionParams{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, updated.Status)
}

func intPtr(v int) *int {
	return &v
}
