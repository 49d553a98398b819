package queue

import (
	"context"

	"go-gin-course-booking/internal/model"
)

type Delivery struct {
	Data *model.RefundJob
	Ack  func()
	Nack func(requeue bool)
}

// RefundQueue 退款工作隊列。取消報名成功後發佈退款工作，
// 由 worker 非同步執行，退款失敗不影響已完成的取消
type RefundQueue interface {
	PublishRefund(ctx context.Context, job *model.RefundJob) error
	SubscribeRefunds(ctx context.Context) (<-chan Delivery, error)
}

type RefundQueueImpl struct {
	// 使用 Go channel 來模擬 MQ 隊列，供單機部署與測試使用
	ch chan *model.RefundJob
}

func NewRefundQueue(bufferSize int) RefundQueue {
	return &RefundQueueImpl{
		ch: make(chan *model.RefundJob, bufferSize),
	}
}

func (q *RefundQueueImpl) PublishRefund(ctx context.Context, job *model.RefundJob) error {
	q.ch <- job
	return nil
}

func (q *RefundQueueImpl) SubscribeRefunds(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case job, ok := <-q.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Data: job,
					Ack:  func() { /* 記憶體版不用做特別動作 */ },
					Nack: func(requeue bool) {
						if requeue {
							q.ch <- job // 簡單模擬重回隊列
						}
					},
				}
			}
		}
	}()

	return out, nil
}
