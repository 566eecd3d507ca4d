package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrCodeConflict         ErrorCode = "CONFLICT"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeNoPendingSession ErrorCode = "NO_PENDING_SESSION"
	ErrCodeCodeMismatch     ErrorCode = "CODE_MISMATCH"
	ErrCodeCodeExpired      ErrorCode = "CODE_EXPIRED"
	ErrCodeDeliveryFailure  ErrorCode = "NOTIFICATION_DELIVERY_FAILURE"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, чтобы обёрнутые sentinel'ы находились через errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeUnauthorized, ErrCodeNoPendingSession, ErrCodeCodeMismatch, ErrCodeCodeExpired:
		return http.StatusUnauthorized
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки приложения или ErrCodeInternal для прочих ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// MessageOf возвращает безопасное для пользователя сообщение.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ErrInternal.Message
}

var (
	ErrInternal             = New(ErrCodeInternal, "внутренняя ошибка сервера, попробуйте позже")
	ErrInvalidCredentials   = New(ErrCodeUnauthorized, "неверное имя пользователя или пароль")
	ErrNoPendingSession     = New(ErrCodeNoPendingSession, "сессия подтверждения истекла или недействительна, войдите снова")
	ErrCodeMismatch         = New(ErrCodeCodeMismatch, "неверный код, попробуйте ещё раз")
	ErrCodeExpired          = New(ErrCodeCodeExpired, "срок действия кода истёк, войдите снова")
	ErrNotificationDelivery = New(ErrCodeDeliveryFailure, "не удалось отправить код на email")
)
