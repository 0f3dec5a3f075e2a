package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 400 入力不正
func ValidationError(message string) error {
	return NewHTTPError(http.StatusBadRequest, message)
}

// 404 対象なし
func NotFoundError(message string) error {
	return NewHTTPError(http.StatusNotFound, message)
}

// 500 中身は出さない
func InternalError() error {
	return NewHTTPError(http.StatusInternalServerError, "internal error")
}

// ステータスだけ見たい時用（テストなど）
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if he, ok := AsHTTPError(err); ok {
		return he.Status
	}
	return http.StatusInternalServerError
}
