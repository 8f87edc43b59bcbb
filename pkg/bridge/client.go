package bridge

import (
	"context"
	"errors"
	"selection_assistant/models/models"
	"selection_assistant/pkg/logger"
	"sync"

	"github.com/google/uuid"
)

var ErrClosed = errors.New("bridge: closed")

// Envelope 前台发往后台的消息
type Envelope struct {
	ID      string               `json:"id"`
	Request models.ActionRequest `json:"request"`
}

// Reply 后台回传的消息，ID 与 Envelope 对应
type Reply struct {
	ID     string              `json:"id"`
	Result models.ActionResult `json:"result"`
}

// Transport 把消息送过隔离边界。Post 只负责投递，结果稍后通过 deliver 回传
type Transport interface {
	Post(ctx context.Context, env Envelope, deliver func(Reply)) error
}

// Future 一个请求的待定结果
type Future struct {
	id     string
	done   chan struct{}
	result models.ActionResult
}

func (f *Future) ID() string {
	return f.id
}

func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await 等待结果；ctx 结束时返回 ctx 的错误，结果仍会在之后到达
func (f *Future) Await(ctx context.Context) (models.ActionResult, error) {
	select {
	case <-f.done:
		return f.result, nil
	case <-ctx.Done():
		return models.ActionResult{}, ctx.Err()
	}
}

// Client 前台一侧，按请求 ID 配对 Future 与 Reply
type Client struct {
	transport Transport

	mu      sync.Mutex
	pending map[string]*Future
	closed  bool
}

func NewClient(t Transport) *Client {
	return &Client{transport: t, pending: make(map[string]*Future)}
}

// Send 投递请求并立即返回 Future
func (c *Client) Send(ctx context.Context, req models.ActionRequest) *Future {
	f := &Future{id: uuid.NewString(), done: make(chan struct{})}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		f.result = models.Failure(models.NewError(models.ErrNetwork, "background is not available"))
		close(f.done)
		return f
	}
	c.pending[f.id] = f
	c.mu.Unlock()

	if err := c.transport.Post(ctx, Envelope{ID: f.id, Request: req}, c.resolve); err != nil {
		logger.Logger.Error("failed to post bridge message", "id", f.id, "kind", string(req.Kind), "error", err.Error())
		c.resolve(Reply{ID: f.id, Result: models.Failure(models.NewError(models.ErrNetwork, "background is not available"))})
	}
	return f
}

// Call 发送并等待结果
func (c *Client) Call(ctx context.Context, req models.ActionRequest) (models.ActionResult, error) {
	return c.Send(ctx, req).Await(ctx)
}

// Pending 仍在等待回复的请求数
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// resolve 每个 ID 只生效一次，重复或未知的回复直接丢弃
func (c *Client) resolve(r Reply) {
	c.mu.Lock()
	f, ok := c.pending[r.ID]
	if ok {
		delete(c.pending, r.ID)
	}
	c.mu.Unlock()

	if !ok {
		logger.Logger.Warn("dropping bridge reply with no pending request", "id", r.ID)
		return
	}
	f.result = r.Result
	close(f.done)
}

// Close 让所有未完成的请求以错误结束
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	ids := make([]string, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		c.resolve(Reply{ID: id, Result: models.Failure(models.NewError(models.ErrNetwork, "bridge closed"))})
	}
}
