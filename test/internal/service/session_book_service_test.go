package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go-gin-course-booking/internal/model"
	apperrors "go-gin-course-booking/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionBookService_Purchase(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultExpiry", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		svc := newSessionBookService()

		book, err := svc.Purchase(ctx, 1, &model.PurchaseSessionBookRequest{
			Name:          "10堂課卡",
			TotalSessions: 10,
			Price:         2500.0,
		}, "")

		require.NoError(t, err)
		assert.Equal(t, 10, book.TotalSessions)
		assert.Equal(t, 10, book.RemainingSessions)
		require.NotNil(t, book.ExpiresAt)

		// 未指定到期日時預設一年
		expected := time.Now().UTC().AddDate(0, 12, 0)
		assert.WithinDuration(t, expected, *book.ExpiresAt, time.Minute)
	})

	t.Run("CreatesLinkedPayment", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		svc := newSessionBookService()

		book, err := svc.Purchase(ctx, 1, &model.PurchaseSessionBookRequest{
			Name:          "10堂課卡",
			TotalSessions: 10,
			Price:         2500.0,
		}, "")
		require.NoError(t, err)

		var externalRef string
		var amount float64
		err = testDB.QueryRow(ctx, "SELECT external_ref, amount FROM payments WHERE session_book_id = $1", book.ID).Scan(&externalRef, &amount)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(externalRef, model.SimulatedRefPrefix))
		assert.Equal(t, 2500.0, amount)
	})

	t.Run("ExplicitExpiryInPast_Rejected", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		svc := newSessionBookService()

		past := time.Now().UTC().AddDate(0, 0, -1)
		_, err := svc.Purchase(ctx, 1, &model.PurchaseSessionBookRequest{
			Name:          "10堂課卡",
			TotalSessions: 10,
			Price:         2500.0,
			ExpiresAt:     &past,
		}, "")

		assert.Equal(t, apperrors.ErrInvalidInput, err)
		// 交易回滾，不留下孤兒課卡
		assert.Equal(t, 0, countPayments(t, 1))
	})
}

func TestSessionBookService_GetBook(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerOnly", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		svc := newSessionBookService()
		expires := time.Now().UTC().AddDate(1, 0, 0)
		bookID := createTestSessionBook(t, 1, 5, &expires)

		book, err := svc.GetBook(ctx, 1, bookID)
		require.NoError(t, err)
		assert.Equal(t, bookID, book.ID)

		_, err = svc.GetBook(ctx, 2, bookID)
		assert.Equal(t, apperrors.ErrForbidden, err)
	})

	t.Run("NotFound", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		svc := newSessionBookService()

		_, err := svc.GetBook(ctx, 1, 99999)

		assert.Equal(t, apperrors.ErrSessionBookNotFound, err)
	})
}

func TestSessionBookService_ListMyBooks(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	svc := newSessionBookService()
	ctx := context.Background()

	expires := time.Now().UTC().AddDate(1, 0, 0)
	createTestSessionBook(t, 1, 5, &expires)
	createTestSessionBook(t, 2, 5, &expires)

	books, err := svc.ListMyBooks(ctx, 1)

	require.NoError(t, err)
	assert.Len(t, books, 1)
}
