// Утилиты возврата ошибок API с нужным статусом HTTP и логированием.
//
// Основные возможности:
//   - Единый формат ответа с ошибкой (apierrors.DefinedError).
//   - Логирование ошибок API с контекстом запроса (метод, адрес, место вызова).
//   - Разворачивание ошибок, обернутых через %w и TrackerError.
//   - Обработка превышения размера тела запроса.
package draftdoc

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"runtime"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	errStack "github.com/aisa-it/draftdoc/internal/draftdoc/stack-error"
	"github.com/labstack/echo/v4"
)

// Возврат ошибки с универсальным сообщением. Определенные ошибки отдаются со своим статусом.
func EError(c echo.Context, err error) error {
	var definedErr apierrors.DefinedError
	if errors.As(err, &definedErr) {
		return EErrorDefined(c, definedErr)
	}

	var te *errStack.TrackerError
	switch {
	case err == nil:
		slog.Error("Unknown API error",
			"method", c.Request().Method,
			"url", c.Request().URL,
			getCallerFile(),
		)
	case errors.As(err, &te):
		errStack.GetError(c, err)
	default:
		slog.Error("API error",
			"err", err,
			"method", c.Request().Method,
			"url", c.Request().URL,
			getCallerFile(),
		)
	}
	return EErrorDefined(c, apierrors.ErrGeneric)
}

// Возврат ошибки <status> с сообщением ошибки (404 не логируется)
func EErrorMsgStatus(c echo.Context, err error, status int) error {
	if status == http.StatusRequestEntityTooLarge {
		return EErrorDefined(c, apierrors.ErrEntityToLarge)
	}

	er := apierrors.ErrGeneric
	er.StatusCode = status
	if err == nil {
		slog.Error("Unknown API error",
			"method", c.Request().Method,
			slog.Int("status", status),
			"url", c.Request().URL,
			getCallerFile(),
		)
		return EErrorDefined(c, er)
	}

	if status != http.StatusNotFound {
		slog.Error("API error",
			"err", err,
			"method", c.Request().Method,
			slog.Int("status", status),
			"url", c.Request().URL,
			getCallerFile(),
		)
	}
	er.Err = err.Error()
	return EErrorDefined(c, er)
}

// Возврат ошибки 400 с сообщением ошибки
func EErrorMsg(c echo.Context, err error) error {
	return EErrorMsgStatus(c, err, http.StatusBadRequest)
}

// EErrorDefined возвращает JSON-ответ с кодом статуса и сообщением ошибки. Если код статуса не определен, используется 400 Bad Request.
func EErrorDefined(c echo.Context, err apierrors.DefinedError) error {
	if http.StatusText(err.StatusCode) == "" {
		err.StatusCode = http.StatusBadRequest
	}
	return c.JSON(err.StatusCode, err)
}

func getCallerFile() slog.Attr {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return slog.Attr{}
	}
	_, file := filepath.Split(path)
	return slog.String("caller", fmt.Sprintf("%s:%d", file, no))
}
