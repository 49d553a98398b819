package service

import (
	"context"
	"errors"
	"time"

	"go-gin-course-booking/config"
	"go-gin-course-booking/internal/model"
	"go-gin-course-booking/internal/queue"
	"go-gin-course-booking/internal/repository"
	apperrors "go-gin-course-booking/pkg/app_errors"
	"go-gin-course-booking/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// CancelResult 取消結果：取消本身一定已落地，退款狀態另外回報
type CancelResult struct {
	Registration *model.Registration
	// RefundQueued 退款工作已發佈到隊列
	RefundQueued bool
	// ManualRefundRequired 有付款紀錄但無法自動退款，需人工處理
	ManualRefundRequired bool
	// CreditRestored 以課卡扣抵的報名，堂數已回補
	CreditRestored bool
}

type BookingService interface {
	// Reserve 預約場次。paymentRef 為金流端付款參考，
	// 空字串表示未經 hosted checkout（模擬付款或課卡扣抵）
	Reserve(ctx context.Context, userID int, sessionID int, paymentRef string) (*model.Registration, error)
	// Cancel 取消自己的報名，受取消期限政策限制
	Cancel(ctx context.Context, userID int, registrationID int) (*CancelResult, error)
	// AdminCancel 管理者取消任一報名，不檢查擁有者與期限
	AdminCancel(ctx context.Context, registrationID int) (*CancelResult, error)
	ListMyRegistrations(ctx context.Context, userID int) ([]*model.Registration, error)
	ListRegistrations(ctx context.Context, status *model.RegistrationStatus) ([]*model.Registration, error)
}

type BookingServiceImpl struct {
	pool             *pgxpool.Pool
	sessionRepo      repository.SessionRepository
	registrationRepo repository.RegistrationRepository
	sessionBookRepo  repository.SessionBookRepository
	paymentRepo      repository.PaymentRepository
	refundQueue      queue.RefundQueue
	bookingConfig    config.BookingConfig
}

func NewBookingService(
	pool *pgxpool.Pool,
	sessionRepo repository.SessionRepository,
	registrationRepo repository.RegistrationRepository,
	sessionBookRepo repository.SessionBookRepository,
	paymentRepo repository.PaymentRepository,
	refundQueue queue.RefundQueue,
	bookingConfig config.BookingConfig,
) BookingService {
	return &BookingServiceImpl{
		pool:             pool,
		sessionRepo:      sessionRepo,
		registrationRepo: registrationRepo,
		sessionBookRepo:  sessionBookRepo,
		paymentRepo:      paymentRepo,
		refundQueue:      refundQueue,
		bookingConfig:    bookingConfig,
	}
}

// isRetryableTxError 序列化失敗與死鎖可重試一次
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func (s *BookingServiceImpl) Reserve(ctx context.Context, userID int, sessionID int, paymentRef string) (*model.Registration, error) {
	registration, err := s.reserveTx(ctx, userID, sessionID, paymentRef)
	if err != nil && isRetryableTxError(err) {
		logger.WithComponent("service").Warn("reserve tx conflict, retrying once",
			zap.Int("user_id", userID), zap.Int("session_id", sessionID), zap.Error(err))
		registration, err = s.reserveTx(ctx, userID, sessionID, paymentRef)
		if err != nil && isRetryableTxError(err) {
			return nil, apperrors.ErrConflict
		}
	}
	return registration, err
}

// reserveTx 預約的單一交易：鎖定場次列 → 前置檢查 → 選擇資金來源 →
// 建立報名 → 扣減名額，全部成功才 commit
func (s *BookingServiceImpl) reserveTx(ctx context.Context, userID int, sessionID int, paymentRef string) (*model.Registration, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 1. 鎖定場次，並發的預約在這裡序列化
	session, err := s.sessionRepo.FindByIDWithLock(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}

	// 2. 場次必須是 scheduled
	if session.Status != model.SessionStatusScheduled {
		return nil, apperrors.ErrSessionNotAvailable
	}

	// 3. 還有名額
	if session.AvailableSpots <= 0 {
		return nil, apperrors.ErrSessionFull
	}

	// 4. 同一人同一場次只能有一筆 confirmed 報名
	exists, err := s.registrationRepo.ExistsConfirmed(ctx, tx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrAlreadyRegistered
	}

	// 5. 資金來源。帶付款參考表示款項已在金流端收取，
	// 一律走直接付款入帳，不動用課卡；否則優先扣最早到期的可用課卡
	now := time.Now().UTC()
	var book *model.SessionBook
	if paymentRef == "" {
		book, err = s.sessionBookRepo.FindActiveForUpdate(ctx, tx, userID, now)
		if err != nil && !errors.Is(err, apperrors.ErrSessionBookNotFound) {
			return nil, err
		}
	}

	registration := &model.Registration{
		UserID:       userID,
		SessionID:    sessionID,
		Status:       model.RegistrationStatusConfirmed,
		RegisteredAt: now,
	}

	if book != nil {
		if err := s.sessionBookRepo.DecrementRemaining(ctx, tx, book.ID); err != nil {
			return nil, err
		}
		registration.SessionBookID = &book.ID
	}

	created, err := s.registrationRepo.Create(ctx, tx, registration)
	if err != nil {
		return nil, err
	}

	// 直接付款入帳；沒有外部付款參考時補一筆模擬參考
	if book == nil {
		if paymentRef == "" {
			paymentRef = model.SimulatedRefPrefix + uuid.New().String()
		}
		payment := &model.Payment{
			UserID:         userID,
			Amount:         session.Course.Price,
			ExternalRef:    paymentRef,
			RegistrationID: &created.ID,
		}
		if _, err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
			return nil, err
		}
	}

	// 6. 扣減名額。已持有場次鎖，條件更新是雙重保險
	if err := s.sessionRepo.DecrementSpots(ctx, tx, sessionID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return created, nil
}

func (s *BookingServiceImpl) Cancel(ctx context.Context, userID int, registrationID int) (*CancelResult, error) {
	return s.cancel(ctx, &userID, registrationID)
}

func (s *BookingServiceImpl) AdminCancel(ctx context.Context, registrationID int) (*CancelResult, error) {
	return s.cancel(ctx, nil, registrationID)
}

// cancel callerID 為 nil 時是管理者路徑：跳過擁有者與取消期限檢查
func (s *BookingServiceImpl) cancel(ctx context.Context, callerID *int, registrationID int) (*CancelResult, error) {
	result, err := s.cancelTx(ctx, callerID, registrationID)
	if err != nil && isRetryableTxError(err) {
		logger.WithComponent("service").Warn("cancel tx conflict, retrying once",
			zap.Int("registration_id", registrationID), zap.Error(err))
		result, err = s.cancelTx(ctx, callerID, registrationID)
		if err != nil && isRetryableTxError(err) {
			return nil, apperrors.ErrConflict
		}
	}
	if err != nil {
		return nil, err
	}

	// 退款在交易之外：取消已落地，退款失敗不回滾，僅記錄待人工處理
	s.requestRefund(ctx, result)

	return result, nil
}

func (s *BookingServiceImpl) cancelTx(ctx context.Context, callerID *int, registrationID int) (*CancelResult, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	registration, err := s.registrationRepo.FindByIDWithLock(ctx, tx, registrationID)
	if err != nil {
		return nil, err
	}

	if callerID != nil && registration.UserID != *callerID {
		return nil, apperrors.ErrForbidden
	}

	if registration.Status != model.RegistrationStatusConfirmed {
		return nil, apperrors.ErrAlreadyCancelled
	}

	// 鎖定場次後才讀取開始時間與名額
	session, err := s.sessionRepo.FindByIDWithLock(ctx, tx, registration.SessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if callerID != nil && s.bookingConfig.CancelNoticeHours > 0 {
		notice := time.Duration(s.bookingConfig.CancelNoticeHours) * time.Hour
		if session.StartTime.Sub(now) < notice {
			return nil, apperrors.ErrTooLateToCancel
		}
	}

	cancelled, err := s.registrationRepo.MarkCancelled(ctx, tx, registrationID, now)
	if err != nil {
		return nil, err
	}

	if err := s.sessionRepo.IncrementSpots(ctx, tx, registration.SessionID); err != nil {
		return nil, err
	}

	result := &CancelResult{Registration: cancelled}

	// 課卡扣抵的報名：回補堂數
	if registration.SessionBookID != nil {
		if err := s.sessionBookRepo.IncrementRemaining(ctx, tx, *registration.SessionBookID); err != nil {
			return nil, err
		}
		result.CreditRestored = true
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

// requestRefund 取消成功後嘗試發佈退款工作。任何失敗只記錄，不影響取消結果
func (s *BookingServiceImpl) requestRefund(ctx context.Context, result *CancelResult) {
	registration := result.Registration

	payment, err := s.paymentRepo.FindByRegistrationID(ctx, registration.ID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrPaymentNotFound) {
			logger.WithComponent("service").Error("lookup payment for refund failed",
				zap.Int("registration_id", registration.ID), zap.Error(err))
		}
		return
	}

	log := logger.WithComponent("service").With(
		zap.Int("registration_id", registration.ID),
		zap.Int("payment_id", payment.ID),
	)

	if !payment.HasRealExternalRef() {
		log.Info("payment has no real external reference, manual refund required",
			zap.String("external_ref", payment.ExternalRef))
		result.ManualRefundRequired = true
		return
	}

	job := &model.RefundJob{
		RegistrationID: registration.ID,
		PaymentID:      payment.ID,
		ExternalRef:    payment.ExternalRef,
		Amount:         payment.Amount,
		RequestedAt:    time.Now().UTC().Unix(),
	}

	// 發佈使用 context.Background()：取消已 commit，不因請求結束而放棄退款
	if err := s.refundQueue.PublishRefund(context.Background(), job); err != nil {
		log.Error("publish refund job failed, manual refund required", zap.Error(err))
		result.ManualRefundRequired = true
		return
	}

	result.RefundQueued = true
}

func (s *BookingServiceImpl) ListMyRegistrations(ctx context.Context, userID int) ([]*model.Registration, error) {
	return s.registrationRepo.ListByUserID(ctx, userID)
}

func (s *BookingServiceImpl) ListRegistrations(ctx context.Context, status *model.RegistrationStatus) ([]*model.Registration, error) {
	return s.registrationRepo.List(ctx, status)
}
