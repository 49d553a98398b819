package repository

import (
	"context"
	"fmt"
	"time"

	"go-gin-course-booking/internal/model"
	apperrors "go-gin-course-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionBookRepository interface {
	ListByUserID(ctx context.Context, userID int) ([]*model.SessionBook, error)
	FindByID(ctx context.Context, id int) (*model.SessionBook, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, book *model.SessionBook) (*model.SessionBook, error)
	// FindActiveForUpdate 取得使用者目前可用的課卡並鎖定：
	// 剩餘堂數 > 0 且未過期，多張時取最早到期者（無期限的排最後）
	FindActiveForUpdate(ctx context.Context, tx pgx.Tx, userID int, asOf time.Time) (*model.SessionBook, error)
	DecrementRemaining(ctx context.Context, tx pgx.Tx, id int) error
	IncrementRemaining(ctx context.Context, tx pgx.Tx, id int) error
}

type SessionBookRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewSessionBookRepository(pool *pgxpool.Pool) SessionBookRepository {
	return &SessionBookRepositoryImpl{
		pool: pool,
	}
}

const sessionBookColumns = `id, user_id, name, total_sessions, remaining_sessions, price, expires_at, created_at`

func scanSessionBook(row pgx.Row, book *model.SessionBook) error {
	return row.Scan(
		&book.ID,
		&book.UserID,
		&book.Name,
		&book.TotalSessions,
		&book.RemainingSessions,
		&book.Price,
		&book.ExpiresAt,
		&book.CreatedAt,
	)
}

func (r *SessionBookRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, book *model.SessionBook) (*model.SessionBook, error) {
	query := `
		INSERT INTO session_books (user_id, name, total_sessions, remaining_sessions, price, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + sessionBookColumns

	err := scanSessionBook(tx.QueryRow(ctx, query,
		book.UserID, book.Name, book.TotalSessions,
		book.RemainingSessions, book.Price, book.ExpiresAt,
	), book)

	if err != nil {
		return nil, fmt.Errorf("failed to create session book: %w", err)
	}

	return book, nil
}

func (r *SessionBookRepositoryImpl) ListByUserID(ctx context.Context, userID int) ([]*model.SessionBook, error) {
	query := `
		SELECT ` + sessionBookColumns + `
		FROM session_books
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make([]*model.SessionBook, 0)

	for rows.Next() {
		var book model.SessionBook
		if err := scanSessionBook(rows, &book); err != nil {
			return nil, err
		}
		books = append(books, &book)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return books, nil
}

func (r *SessionBookRepositoryImpl) FindByID(ctx context.Context, id int) (*model.SessionBook, error) {
	query := `
		SELECT ` + sessionBookColumns + `
		FROM session_books
		WHERE id = $1
	`

	var book model.SessionBook
	err := scanSessionBook(r.pool.QueryRow(ctx, query, id), &book)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrSessionBookNotFound
		}
		return nil, err
	}

	return &book, nil
}

func (r *SessionBookRepositoryImpl) FindActiveForUpdate(ctx context.Context, tx pgx.Tx, userID int, asOf time.Time) (*model.SessionBook, error) {
	// 最早到期的先用，減少過期浪費；NULLS LAST 讓無期限的課卡最後消耗
	query := `
		SELECT ` + sessionBookColumns + `
		FROM session_books
		WHERE user_id = $1
		  AND remaining_sessions > 0
		  AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY expires_at ASC NULLS LAST
		LIMIT 1
		FOR UPDATE
	`

	var book model.SessionBook
	err := scanSessionBook(tx.QueryRow(ctx, query, userID, asOf), &book)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrSessionBookNotFound
		}
		return nil, err
	}

	return &book, nil
}

// DecrementRemaining 條件扣減剩餘堂數，已扣完時回傳 ErrSessionBookExhausted
func (r *SessionBookRepositoryImpl) DecrementRemaining(ctx context.Context, tx pgx.Tx, id int) error {
	query := `
		UPDATE session_books
		SET remaining_sessions = remaining_sessions - 1
		WHERE id = $1 AND remaining_sessions > 0
	`

	result, err := tx.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrSessionBookExhausted
	}

	return nil
}

// IncrementRemaining 回補一堂，上限為 total_sessions
func (r *SessionBookRepositoryImpl) IncrementRemaining(ctx context.Context, tx pgx.Tx, id int) error {
	query := `
		UPDATE session_books
		SET remaining_sessions = remaining_sessions + 1
		WHERE id = $1 AND remaining_sessions < total_sessions
	`

	result, err := tx.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrSessionBookNotFound
	}

	return nil
}
