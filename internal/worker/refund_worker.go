package worker

import (
	"context"
	"errors"

	"go-gin-course-booking/internal/queue"
	"go-gin-course-booking/internal/service"
	apperrors "go-gin-course-booking/pkg/app_errors"
	"go-gin-course-booking/pkg/logger"

	"go.uber.org/zap"
)

type RefundWorker interface {
	// 訂閱退款隊列
	Start(ctx context.Context) error
}

type RefundWorkerImpl struct {
	payments service.PaymentService
	queue    queue.RefundQueue
}

func NewRefundWorker(payments service.PaymentService, queue queue.RefundQueue) RefundWorker {
	return &RefundWorkerImpl{
		payments: payments,
		queue:    queue,
	}
}

func (w *RefundWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeRefunds(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			w.process(ctx, msg)
		}
	}()
	return nil
}

func (w *RefundWorkerImpl) process(ctx context.Context, msg queue.Delivery) {
	job := msg.Data
	log := logger.WithComponent("worker").With(
		zap.Int("registration_id", job.RegistrationID),
		zap.Int("payment_id", job.PaymentID),
	)

	refund, err := w.payments.Refund(ctx, job.ExternalRef, nil)
	if err != nil {
		// 金流端明確拒絕：重試也不會成功，結案並轉人工
		if errors.Is(err, apperrors.ErrGatewayRejected) {
			log.Error("refund rejected by gateway, manual refund required", zap.Error(err))
			msg.Ack()
			return
		}
		// 連不上或 5xx：requeue 重試
		log.Warn("gateway unavailable, requeueing refund", zap.Error(err))
		msg.Nack(true)
		return
	}

	log.Info("refund completed", zap.String("refund_id", refund.RefundID))
	msg.Ack()
}
