package types

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the pipeline stage that produced an error.
type ErrorCode string

// Pipeline error codes
const (
	ErrInvalidUpload    ErrorCode = "INVALID_UPLOAD"
	ErrDecodeFailed     ErrorCode = "DECODE_FAILED"
	ErrBackgroundFailed ErrorCode = "BACKGROUND_FAILED"
	ErrSketchFailed     ErrorCode = "SKETCH_FAILED"
	ErrContourFailed    ErrorCode = "CONTOUR_FAILED"
	ErrExportFailed     ErrorCode = "EXPORT_FAILED"
	ErrRenderFailed     ErrorCode = "RENDER_FAILED"
	ErrInternalError    ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Stage   string    `json:"stage,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithStage records the pipeline stage name.
func (e *Error) WithStage(stage string) *Error {
	e.Stage = stage
	return e
}

// WrapError 将任意错误包装为带错误码的 *Error；已是 *Error 的原样返回。
func WrapError(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(code, message).WithCause(err)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// PublicMessage 返回面向调用方的错误文本（不含错误码前缀）。
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}
