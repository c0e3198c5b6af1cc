package service

import (
	"errors"
	"fmt"
)

// 错误分类：调用方通过 errors.Is 判断
var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidOperation        = errors.New("invalid operation")
	ErrConflict                = errors.New("conflict")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)

func notFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func invalidOperation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}

// unavailable 包装协作方故障，保留底层错误用于日志
func unavailable(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCollaboratorUnavailable, what, err)
}
