package repository

import (
	"context"
	"fmt"

	"go-gin-course-booking/internal/model"
	apperrors "go-gin-course-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository interface {
	ListByUserID(ctx context.Context, userID int) ([]*model.Payment, error)
	FindByRegistrationID(ctx context.Context, registrationID int) (*model.Payment, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) (*model.Payment, error)
}

type PaymentRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &PaymentRepositoryImpl{
		pool: pool,
	}
}

const paymentColumns = `id, user_id, amount, external_ref, session_book_id, registration_id, created_at`

func scanPayment(row pgx.Row, payment *model.Payment) error {
	return row.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.Amount,
		&payment.ExternalRef,
		&payment.SessionBookID,
		&payment.RegistrationID,
		&payment.CreatedAt,
	)
}

// Create 寫入付款紀錄，必須與報名或課卡的建立在同一個交易中
func (r *PaymentRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) (*model.Payment, error) {
	// 付款恰好連結報名或課卡其中之一
	if (payment.RegistrationID == nil) == (payment.SessionBookID == nil) {
		return nil, apperrors.ErrInvalidInput
	}

	query := `
		INSERT INTO payments (user_id, amount, external_ref, session_book_id, registration_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + paymentColumns

	err := scanPayment(tx.QueryRow(ctx, query,
		payment.UserID, payment.Amount, payment.ExternalRef,
		payment.SessionBookID, payment.RegistrationID,
	), payment)

	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	return payment, nil
}

func (r *PaymentRepositoryImpl) ListByUserID(ctx context.Context, userID int) ([]*model.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*model.Payment, 0)

	for rows.Next() {
		var payment model.Payment
		if err := scanPayment(rows, &payment); err != nil {
			return nil, err
		}
		payments = append(payments, &payment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *PaymentRepositoryImpl) FindByRegistrationID(ctx context.Context, registrationID int) (*model.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE registration_id = $1
	`

	var payment model.Payment
	err := scanPayment(r.pool.QueryRow(ctx, query, registrationID), &payment)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, err
	}

	return &payment, nil
}
