// Ошибки с накоплением трассы вызовов и контекста для логирования в обработчиках API.
package stack_error

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/labstack/echo/v4"
)

// TrackerError хранит исходную ошибку, точки, через которые она прошла, и атрибуты контекста (id документа, ключ блока).
type TrackerError struct {
	Context  map[string]any
	ErrStack []slog.Attr
	cause    error
}

// TrackErrorStack добавляет место вызова в трассу. Если err уже TrackerError, дополняется существующая трасса.
func TrackErrorStack(err error) *TrackerError {
	if err == nil {
		return nil
	}

	var te *TrackerError
	if !errors.As(err, &te) {
		te = &TrackerError{
			Context: make(map[string]any),
			cause:   err,
		}
	}
	te.ErrStack = append(te.ErrStack, callerAttr(err))
	return te
}

// AddContext не перезаписывает уже заданный ключ: значение из самой глубокой точки важнее.
func (te *TrackerError) AddContext(k string, v any) *TrackerError {
	if _, ok := te.Context[k]; !ok {
		te.Context[k] = v
	}
	return te
}

func (te *TrackerError) AddErr(err error) *TrackerError {
	te.ErrStack = append(te.ErrStack, callerAttr(err))
	return te
}

func (te *TrackerError) Error() string {
	if te.cause != nil {
		return te.cause.Error()
	}
	return "TrackerError"
}

func (te *TrackerError) Unwrap() error {
	return te.cause
}

// GetError пишет ошибку в лог вместе с трассой, контекстом и данными запроса.
func GetError(c echo.Context, err error) {
	var te *TrackerError
	var attrs []any

	if errors.As(err, &te) {
		for _, attr := range te.ErrStack {
			attrs = append(attrs, attr)
		}
		for k, v := range te.Context {
			attrs = append(attrs, slog.Any(k, v))
		}
	} else {
		attrs = []any{slog.String("raw_error", err.Error())}
	}

	if c != nil {
		attrs = append(attrs,
			slog.String("method", c.Request().Method),
			slog.String("url", c.Request().URL.String()))
	}

	slog.With(attrs...).Error("stack error")
}

func callerAttr(err error) slog.Attr {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return slog.String("trace", "unknown")
	}
	_, file := filepath.Split(path)
	return slog.String("trace", fmt.Sprintf("%s:%d %s", file, no, err.Error()))
}
