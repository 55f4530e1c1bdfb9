package service

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindInvalidInput      Kind = "INVALID_INPUT"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindStorageFailure    Kind = "STORAGE_FAILURE"
)

// Error 业务错误，Message 直接返回给调用方
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

func InsufficientFunds(gameName string) *Error {
	return &Error{
		Kind:    KindInsufficientFunds,
		Message: fmt.Sprintf("insufficient balance to buy %s", gameName),
	}
}

func StorageFailure(op string, err error) *Error {
	return &Error{
		Kind:    KindStorageFailure,
		Message: op + " failed",
		Err:     err,
	}
}

// KindOf 非 *Error 一律视为存储失败
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorageFailure
}

// asError 事务回调里返回的业务错误原样透出，其余包装为存储失败
func asError(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return StorageFailure(op, err)
}
