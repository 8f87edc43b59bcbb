package ui

import (
	"context"
	"selection_assistant/models/models"
	"selection_assistant/pkg/bridge"
	"time"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

const (
	errorToastDuration = 2000 * time.Millisecond
	infoToastDuration  = 1500 * time.Millisecond
)

// Toast 一条短暂的提示
type Toast struct {
	Level    Level         `json:"level"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
}

type Notifier interface {
	Notify(t Toast)
}

type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Sender 跨上下文发送请求，*bridge.Client 满足该接口
type Sender interface {
	Send(ctx context.Context, req models.ActionRequest) *bridge.Future
}

var _ Sender = (*bridge.Client)(nil)

func errorToast(msg string) Toast {
	return Toast{Level: LevelError, Message: msg, Duration: errorToastDuration}
}

func infoToast(msg string) Toast {
	return Toast{Level: LevelInfo, Message: msg, Duration: infoToastDuration}
}
