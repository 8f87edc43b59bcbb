package models

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrUnknownRequestKind    ErrorKind = "UnknownRequestKind"
	ErrConnectionTestFailed  ErrorKind = "ConnectionTestFailed"
	ErrNetwork               ErrorKind = "NetworkError"
	ErrHTTP                  ErrorKind = "HttpError"
	ErrInvalidResponseFormat ErrorKind = "InvalidResponseFormat"
	ErrValidation            ErrorKind = "ValidationError"
	ErrInternal              ErrorKind = "InternalError"
)

// ActionError 可序列化的错误，穿过 bridge 时保持 kind
type ActionError struct {
	Kind    ErrorKind `json:"kind"`
	Status  int       `json:"status,omitempty"`
	Message string    `json:"message"`
}

func (e *ActionError) Error() string {
	return e.Message
}

// Is 按 kind（以及 HttpError 的状态码）比较
func (e *ActionError) Is(target error) bool {
	t, ok := target.(*ActionError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Status == 0 || t.Status == e.Status
}

func NewError(kind ErrorKind, message string) *ActionError {
	return &ActionError{Kind: kind, Message: message}
}

func HTTPError(status int) *ActionError {
	return &ActionError{Kind: ErrHTTP, Status: status, Message: fmt.Sprintf("HTTP error: %d", status)}
}

// AsActionError 把任意 error 规整为 ActionError
func AsActionError(err error) *ActionError {
	if err == nil {
		return nil
	}
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae
	}
	return &ActionError{Kind: ErrInternal, Message: err.Error()}
}
