package service

import (
	"context"
	"time"

	"go-gin-course-booking/config"
	"go-gin-course-booking/internal/model"
	"go-gin-course-booking/internal/repository"
	apperrors "go-gin-course-booking/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionBookService interface {
	// Purchase 購買課卡：建立課卡與對應付款紀錄，同一交易內完成
	Purchase(ctx context.Context, userID int, req *model.PurchaseSessionBookRequest, paymentRef string) (*model.SessionBook, error)
	ListMyBooks(ctx context.Context, userID int) ([]*model.SessionBook, error)
	GetBook(ctx context.Context, userID int, bookID int) (*model.SessionBook, error)
}

type SessionBookServiceImpl struct {
	pool            *pgxpool.Pool
	sessionBookRepo repository.SessionBookRepository
	paymentRepo     repository.PaymentRepository
	bookingConfig   config.BookingConfig
}

func NewSessionBookService(
	pool *pgxpool.Pool,
	sessionBookRepo repository.SessionBookRepository,
	paymentRepo repository.PaymentRepository,
	bookingConfig config.BookingConfig,
) SessionBookService {
	return &SessionBookServiceImpl{
		pool:            pool,
		sessionBookRepo: sessionBookRepo,
		paymentRepo:     paymentRepo,
		bookingConfig:   bookingConfig,
	}
}

func (s *SessionBookServiceImpl) Purchase(ctx context.Context, userID int, req *model.PurchaseSessionBookRequest, paymentRef string) (*model.SessionBook, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	expiresAt := req.ExpiresAt
	if expiresAt == nil {
		// 未指定時預設自購買日起算的有效期
		exp := now.AddDate(0, s.bookingConfig.DefaultBookValidityMonths, 0)
		expiresAt = &exp
	}
	if !expiresAt.After(now) {
		return nil, apperrors.ErrInvalidInput
	}

	book := &model.SessionBook{
		UserID:            userID,
		Name:              req.Name,
		TotalSessions:     req.TotalSessions,
		RemainingSessions: req.TotalSessions,
		Price:             req.Price,
		ExpiresAt:         expiresAt,
	}

	created, err := s.sessionBookRepo.Create(ctx, tx, book)
	if err != nil {
		return nil, err
	}

	if paymentRef == "" {
		paymentRef = model.SimulatedRefPrefix + uuid.New().String()
	}
	payment := &model.Payment{
		UserID:        userID,
		Amount:        req.Price,
		ExternalRef:   paymentRef,
		SessionBookID: &created.ID,
	}
	if _, err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return created, nil
}

func (s *SessionBookServiceImpl) ListMyBooks(ctx context.Context, userID int) ([]*model.SessionBook, error) {
	return s.sessionBookRepo.ListByUserID(ctx, userID)
}

func (s *SessionBookServiceImpl) GetBook(ctx context.Context, userID int, bookID int) (*model.SessionBook, error) {
	book, err := s.sessionBookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return book, nil
}
