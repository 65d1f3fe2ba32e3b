package perrors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
)

type ErrCode struct {
	Code   string `json:"code"`
	Status int    `json:"status"`
}

var (
	ErrCodeInvalidRequest   = ErrCode{"invalid_request", http.StatusBadRequest}
	ErrCodeInternalServer   = ErrCode{"internal_server_error", http.StatusInternalServerError}
	ErrCodeNotFound         = ErrCode{"not_found", http.StatusNotFound}
	ErrCodeUnauthorized     = ErrCode{"unauthorized", http.StatusUnauthorized}
	ErrCodeMethodNotAllowed = ErrCode{"method_not_allowed", http.StatusMethodNotAllowed}
)

// Err is an error that knows the HTTP status it should be reported with.
type Err struct {
	Message    string                   `json:"-"`
	Err        string                   `json:"error"`
	Code       ErrCode                  `json:"code"`
	Stacktrace []string                 `json:"-"`
	Args       []map[string]interface{} `json:"args,omitempty"`

	cause error
}

func (e Err) Error() string {
	return e.Err
}

func (e Err) Unwrap() error {
	return e.cause
}

func (e Err) HttpStatus() int {
	return e.Code.Status
}

func (e Err) Print(ctx context.Context) {
	args := []any{slog.String("code", e.Code.Code), slog.Any("error", e.Error())}
	if len(e.Args) > 0 {
		for k, v := range e.Args[0] {
			args = append(args, slog.Any(k, v))
		}
	}

	// Client errors are expected traffic and don't need a stacktrace.
	if e.Code.Status >= http.StatusInternalServerError {
		args = append(args, slog.Any("stacktrace", e.Stacktrace))
		slog.ErrorContext(ctx, e.Message, args...)
		return
	}
	slog.WarnContext(ctx, e.Message, args...)
}

func New(code ErrCode, msg string, err error, args ...map[string]interface{}) error {
	pc := make([]uintptr, 20)
	count := runtime.Callers(2, pc)
	frames := runtime.CallersFrames(pc[:count])

	var stacktrace []string
	for frame, hasMore := frames.Next(); hasMore; frame, hasMore = frames.Next() {
		stacktrace = append(stacktrace, fmt.Sprintf("%s:%d", frame.File, frame.Line))
	}

	errString := "error missing"
	if err != nil {
		errString = err.Error()
	}

	return Err{
		Code:       code,
		Message:    msg,
		Err:        errString,
		Stacktrace: stacktrace,
		Args:       args,
		cause:      err,
	}
}

// As returns err as an Err, wrapping it as an internal server error when it
// carries no code of its own.
func As(msg string, err error) Err {
	var perr Err
	if errors.As(err, &perr) {
		return perr
	}
	return New(ErrCodeInternalServer, msg, err).(Err)
}

func NewErrInvalidRequest(msg string, err error, args ...map[string]interface{}) error {
	return New(ErrCodeInvalidRequest, msg, err, args...)
}

func NewErrNotFound(msg string, err error, args ...map[string]interface{}) error {
	return New(ErrCodeNotFound, msg, err, args...)
}

func NewErrUnauthorized(msg string, err error) error {
	return New(ErrCodeUnauthorized, msg, err)
}

func NewErrInternalServerError(msg string, err error, args ...map[string]interface{}) error {
	return New(ErrCodeInternalServer, msg, err, args...)
}
