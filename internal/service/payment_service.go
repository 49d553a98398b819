package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go-gin-course-booking/config"
	"go-gin-course-booking/internal/cache"
	"go-gin-course-booking/internal/gateway"
	"go-gin-course-booking/internal/model"
	"go-gin-course-booking/internal/queue"
	"go-gin-course-booking/internal/repository"
	apperrors "go-gin-course-booking/pkg/app_errors"
	"go-gin-course-booking/pkg/logger"

	"go.uber.org/zap"
)

type PaymentService interface {
	ListMyPayments(ctx context.Context, userID int) ([]*model.Payment, error)
	// StartSessionCheckout 建立金流端 hosted checkout，回傳轉址網址。
	// 名額在付款完成前不保留
	StartSessionCheckout(ctx context.Context, userID int, sessionID int, successURL, cancelURL string) (*gateway.Checkout, error)
	// CompleteSessionCheckout 付款完成回跳：驗證 checkout 後才真正預約
	CompleteSessionCheckout(ctx context.Context, userID int, checkoutID string) (*model.Registration, error)
	// Refund 以付款參考向金流端發起退款，amount 為 nil 時全額退
	Refund(ctx context.Context, externalRef string, amount *float64) (*gateway.Refund, error)
}

type PaymentServiceImpl struct {
	paymentRepo    repository.PaymentRepository
	sessionRepo    repository.SessionRepository
	gateway        gateway.PaymentGateway
	pendingStore   cache.PendingCheckoutStore
	bookingService BookingService
	refundQueue    queue.RefundQueue
	bookingConfig  config.BookingConfig
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	sessionRepo repository.SessionRepository,
	paymentGateway gateway.PaymentGateway,
	pendingStore cache.PendingCheckoutStore,
	bookingService BookingService,
	refundQueue queue.RefundQueue,
	bookingConfig config.BookingConfig,
) PaymentService {
	return &PaymentServiceImpl{
		paymentRepo:    paymentRepo,
		sessionRepo:    sessionRepo,
		gateway:        paymentGateway,
		pendingStore:   pendingStore,
		bookingService: bookingService,
		refundQueue:    refundQueue,
		bookingConfig:  bookingConfig,
	}
}

func (s *PaymentServiceImpl) ListMyPayments(ctx context.Context, userID int) ([]*model.Payment, error) {
	return s.paymentRepo.ListByUserID(ctx, userID)
}

func (s *PaymentServiceImpl) StartSessionCheckout(ctx context.Context, userID int, sessionID int, successURL, cancelURL string) (*gateway.Checkout, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// 開 checkout 前先做便宜的前置檢查，省掉明顯會失敗的金流來回。
	// 真正的名額保證還是在付款完成後的預約交易裡
	if session.Status != model.SessionStatusScheduled {
		return nil, apperrors.ErrSessionNotAvailable
	}
	if session.AvailableSpots <= 0 {
		return nil, apperrors.ErrSessionFull
	}

	name := session.Course.Name
	items := []gateway.LineItem{
		{
			Name:       fmt.Sprintf("%s (%s)", name, session.StartTime.Format("2006-01-02 15:04")),
			UnitAmount: session.Course.Price,
			Quantity:   1,
		},
	}
	metadata := map[string]string{
		"user_id":    strconv.Itoa(userID),
		"session_id": strconv.Itoa(sessionID),
	}

	checkout, err := s.gateway.CreateCheckout(ctx, items, successURL, cancelURL, metadata)
	if err != nil {
		return nil, err
	}

	pending := cache.PendingCheckout{UserID: userID, SessionID: sessionID}
	if err := s.pendingStore.Put(ctx, checkout.ID, pending, s.bookingConfig.PendingCheckoutTTL); err != nil {
		logger.WithComponent("service").Error("store pending checkout failed",
			zap.String("checkout_id", checkout.ID), zap.Error(err))
		return nil, err
	}

	return checkout, nil
}

func (s *PaymentServiceImpl) CompleteSessionCheckout(ctx context.Context, userID int, checkoutID string) (*model.Registration, error) {
	pending, err := s.pendingStore.Consume(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if pending.UserID != userID {
		return nil, apperrors.ErrForbidden
	}

	result, err := s.gateway.RetrieveCheckout(ctx, checkoutID)
	if err != nil {
		// pending 已消耗又拿不到付款參考，無法自動退款，只能留紀錄人工處理
		logger.WithComponent("service").Error("retrieve checkout failed after consume, manual refund required",
			zap.String("checkout_id", checkoutID), zap.Error(err))
		return nil, err
	}

	registration, err := s.bookingService.Reserve(ctx, userID, pending.SessionID, result.PaymentReference)
	if err != nil {
		// 款項已在金流端收取但預約失敗，把已收的錢排進退款佇列
		s.refundCapturedPayment(checkoutID, result.PaymentReference)
		return nil, err
	}
	return registration, nil
}

func (s *PaymentServiceImpl) Refund(ctx context.Context, externalRef string, amount *float64) (*gateway.Refund, error) {
	return s.gateway.CreateRefund(ctx, externalRef, amount)
}

// refundCapturedPayment 預約失敗後的補償：排退款工作，排不進去就留人工退款紀錄。
// 不吃呼叫端的 ctx，請求被取消也要把退款送出去
func (s *PaymentServiceImpl) refundCapturedPayment(checkoutID, paymentRef string) {
	log := logger.WithComponent("service").With(
		zap.String("checkout_id", checkoutID),
		zap.String("payment_ref", paymentRef),
	)

	job := &model.RefundJob{
		ExternalRef: paymentRef,
		RequestedAt: time.Now().UTC().Unix(),
	}
	if err := s.refundQueue.PublishRefund(context.Background(), job); err != nil {
		log.Error("publish refund job failed, manual refund required", zap.Error(err))
		return
	}
	log.Warn("reservation failed after capture, refund queued")
}
