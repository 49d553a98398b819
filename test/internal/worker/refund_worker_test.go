package worker

import (
	"context"
	"testing"
	"time"

	"go-gin-course-booking/config"
	"go-gin-course-booking/internal/gateway"
	"go-gin-course-booking/internal/model"
	"go-gin-course-booking/internal/queue"
	"go-gin-course-booking/internal/service"
	"go-gin-course-booking/internal/worker"
	apperrors "go-gin-course-booking/pkg/app_errors"
	"go-gin-course-booking/test/internal/mocks/gateways"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newRefundPaymentService Worker 只會用到 Refund，其餘依賴給 nil 即可
func newRefundPaymentService(gw gateway.PaymentGateway) service.PaymentService {
	return service.NewPaymentService(nil, nil, gw, nil, nil, nil, config.BookingConfig{})
}

func testRefundJob() *model.RefundJob {
	return &model.RefundJob{
		RegistrationID: 7,
		PaymentID:      3,
		ExternalRef:    "pi_live_123",
		Amount:         500.0,
		RequestedAt:    time.Now().UTC().Unix(),
	}
}

func TestRefundWorker_Success(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewRefundQueue(10)

	mockGateway := gateways.NewPaymentGatewayMock()
	done := make(chan struct{}, 1)
	mockGateway.On("CreateRefund", mock.Anything, "pi_live_123", (*float64)(nil)).
		Run(func(args mock.Arguments) { done <- struct{}{} }).
		Return(&gateway.Refund{RefundID: "re_abc"}, nil).Once()

	w := worker.NewRefundWorker(newRefundPaymentService(mockGateway), q)
	require.NoError(t, w.Start(ctx))

	require.NoError(t, q.PublishRefund(ctx, testRefundJob()))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("超時！Worker 沒有在時間內處理退款")
	}
	mockGateway.AssertExpectations(t)
}

func TestRefundWorker_GatewayUnavailable_Retries(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewRefundQueue(10)

	mockGateway := gateways.NewPaymentGatewayMock()
	done := make(chan struct{}, 1)
	// 第一次連不上，Nack 重回隊列後第二次成功
	mockGateway.On("CreateRefund", mock.Anything, "pi_live_123", (*float64)(nil)).
		Return(nil, apperrors.ErrGatewayUnavailable).Once()
	mockGateway.On("CreateRefund", mock.Anything, "pi_live_123", (*float64)(nil)).
		Run(func(args mock.Arguments) { done <- struct{}{} }).
		Return(&gateway.Refund{RefundID: "re_retry"}, nil).Once()

	w := worker.NewRefundWorker(newRefundPaymentService(mockGateway), q)
	require.NoError(t, w.Start(ctx))

	require.NoError(t, q.PublishRefund(ctx, testRefundJob()))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("超時！退款沒有被重試")
	}
	mockGateway.AssertExpectations(t)
}

func TestRefundWorker_GatewayRejected_NoRetry(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewRefundQueue(10)

	mockGateway := gateways.NewPaymentGatewayMock()
	called := make(chan struct{}, 2)
	// 明確拒絕：結案不重試
	mockGateway.On("CreateRefund", mock.Anything, "pi_live_123", (*float64)(nil)).
		Run(func(args mock.Arguments) { called <- struct{}{} }).
		Return(nil, apperrors.ErrGatewayRejected)

	w := worker.NewRefundWorker(newRefundPaymentService(mockGateway), q)
	require.NoError(t, w.Start(ctx))

	require.NoError(t, q.PublishRefund(ctx, testRefundJob()))

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("超時！Worker 沒有處理退款")
	}

	// 短暫等待，確認沒有第二次呼叫
	select {
	case <-called:
		t.Fatal("被拒絕的退款不應重試")
	case <-time.After(300 * time.Millisecond):
	}
}
