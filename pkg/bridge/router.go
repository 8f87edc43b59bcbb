package bridge

import (
	"context"
	"fmt"
	"runtime/debug"
	"selection_assistant/models/models"
	"selection_assistant/pkg/completion"
	"selection_assistant/pkg/logger"
)

// HandlerFunc 后台对某一类请求的处理
type HandlerFunc func(ctx context.Context, req models.ActionRequest) (string, error)

// Completer 是 Router 需要的模型调用能力
type Completer interface {
	TestConnection(ctx context.Context, cfg models.APIConfig) error
	Translate(ctx context.Context, cfg models.APIConfig, text, targetLang string) (string, error)
	Explain(ctx context.Context, cfg models.APIConfig, text, targetLang string) (string, error)
}

var _ Completer = (*completion.Client)(nil)

// Router 在后台按 kind 分发请求，所有错误都在这里变成 ActionResult
type Router struct {
	handlers map[models.ActionKind]HandlerFunc
}

func NewRouter(c Completer) *Router {
	r := &Router{handlers: make(map[models.ActionKind]HandlerFunc)}
	r.Handle(models.KindTestConnection, func(ctx context.Context, req models.ActionRequest) (string, error) {
		return "", c.TestConnection(ctx, req.Config)
	})
	r.Handle(models.KindTranslate, func(ctx context.Context, req models.ActionRequest) (string, error) {
		return c.Translate(ctx, req.Config, req.Text, req.TargetLang)
	})
	r.Handle(models.KindExplain, func(ctx context.Context, req models.ActionRequest) (string, error) {
		return c.Explain(ctx, req.Config, req.Text, req.TargetLang)
	})
	return r
}

func (r *Router) Handle(kind models.ActionKind, fn HandlerFunc) {
	r.handlers[kind] = fn
}

// Dispatch 处理一个请求，保证只返回一个结果且不会 panic
func (r *Router) Dispatch(ctx context.Context, req models.ActionRequest) (result models.ActionResult) {
	defer func() {
		if p := recover(); p != nil {
			logger.Logger.Error("panic recovered in bridge handler",
				"kind", string(req.Kind),
				"error", fmt.Sprint(p),
				"stack", string(debug.Stack()),
			)
			result = models.Failure(models.NewError(models.ErrInternal, "internal error"))
		}
	}()

	fn, ok := r.handlers[req.Kind]
	if !ok {
		return models.Failure(models.NewError(models.ErrUnknownRequestKind, "Unknown request type: "+string(req.Kind)))
	}
	if err := req.Validate(); err != nil {
		return models.Failure(models.AsActionError(err))
	}

	value, err := fn(ctx, req)
	if err != nil {
		ae := models.AsActionError(err)
		logger.Logger.Error("Request failed", "kind", string(req.Kind), "error_kind", string(ae.Kind), "error", ae.Message)
		return models.Failure(ae)
	}
	return models.Success(value)
}
