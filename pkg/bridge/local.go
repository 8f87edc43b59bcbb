package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"selection_assistant/models/models"
	"selection_assistant/pkg/logger"
	"sync"

	"github.com/sourcegraph/conc"
)

type localJob struct {
	id      string
	payload []byte
	deliver func(Reply)
}

// LocalTransport 进程内的消息通道。两侧只交换序列化后的字节，不共享内存
type LocalTransport struct {
	router *Router
	queue  chan localJob

	mu     sync.RWMutex
	closed bool
}

func NewLocalTransport(router *Router, size int) *LocalTransport {
	if size <= 0 {
		size = 16
	}
	return &LocalTransport{router: router, queue: make(chan localJob, size)}
}

func (t *LocalTransport) Post(ctx context.Context, env Envelope, deliver func(Reply)) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return ErrClosed
	}

	select {
	case t.queue <- localJob{id: env.ID, payload: payload, deliver: deliver}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve 在后台侧消费消息，直到 ctx 结束或 Close 被调用。返回前等待处理中的请求完成
func (t *LocalTransport) Serve(ctx context.Context) {
	wg := conc.NewWaitGroup()
	defer wg.Wait()

	for {
		select {
		case job, ok := <-t.queue:
			if !ok {
				return
			}
			wg.Go(func() { t.handle(ctx, job) })
		case <-ctx.Done():
			return
		}
	}
}

func (t *LocalTransport) handle(ctx context.Context, job localJob) {
	var env Envelope
	if err := json.Unmarshal(job.payload, &env); err != nil {
		logger.Logger.Error("malformed bridge message", "id", job.id, "error", err.Error())
		job.deliver(Reply{ID: job.id, Result: models.Failure(models.NewError(models.ErrInternal, "malformed request"))})
		return
	}

	res := t.router.Dispatch(ctx, env.Request)
	payload, err := json.Marshal(Reply{ID: env.ID, Result: res})
	if err != nil {
		payload, _ = json.Marshal(Reply{ID: env.ID, Result: models.Failure(models.NewError(models.ErrInternal, "failed to encode reply"))})
	}

	var reply Reply
	if err := json.Unmarshal(payload, &reply); err != nil {
		reply = Reply{ID: env.ID, Result: models.Failure(models.NewError(models.ErrInternal, "failed to decode reply"))}
	}
	job.deliver(reply)
}

// Close 停止接收新消息，已排队的消息仍由 Serve 处理
func (t *LocalTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
}
