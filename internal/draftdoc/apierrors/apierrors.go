// Пакет содержит определения ошибок draftdoc: ошибки модели документа, сериализации, рендеринга, медиа и загрузки вложений.
// Каждая ошибка имеет код, статус HTTP и описание, поэтому одни и те же значения используются и ядром, и HTTP слоем.
//
// Основные возможности:
//   - Ошибки ядра (MalformedDocument, UnknownEntityKey, InvalidEntityType, UnrenderableType, UnknownMediaType).
//   - Ошибки API документов и вложений.
//   - Конвертация ошибки в ответ tusd.
//   - Форматирование сообщений с аргументами.
package apierrors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	tusd "github.com/tus/tusd/v2/pkg/handler"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

func (e DefinedError) TusdError() tusd.Error {
	b, _ := json.Marshal(e)
	return tusd.Error{
		HTTPResponse: tusd.HTTPResponse{
			StatusCode: e.StatusCode,
			Body:       string(b),
			Header: tusd.HTTPHeader{
				"Content-Type": "application/json",
			},
		},
	}
}

var (
	// 1*** - document model errors
	ErrMalformedDocument  = DefinedError{Code: 1001, StatusCode: http.StatusBadRequest, Err: "malformed document", RuErr: "Документ поврежден"}
	ErrUnknownBlockKey    = DefinedError{Code: 1002, StatusCode: http.StatusNotFound, Err: "unknown block key", RuErr: "Блок не найден"}
	ErrInvalidBlockType   = DefinedError{Code: 1003, StatusCode: http.StatusBadRequest, Err: "invalid block type", RuErr: "Недопустимый тип блока"}
	ErrInvalidInlineStyle = DefinedError{Code: 1004, StatusCode: http.StatusBadRequest, Err: "invalid inline style", RuErr: "Недопустимый стиль текста"}
	ErrInvalidSelection   = DefinedError{Code: 1005, StatusCode: http.StatusBadRequest, Err: "invalid selection", RuErr: "Некорректное выделение"}

	// 2*** - entity errors
	ErrUnknownEntityKey     = DefinedError{Code: 2001, StatusCode: http.StatusNotFound, Err: "unknown entity key", RuErr: "Сущность не найдена"}
	ErrInvalidEntityType    = DefinedError{Code: 2002, StatusCode: http.StatusBadRequest, Err: "invalid entity type", RuErr: "Недопустимый тип сущности"}
	ErrPendingImageNotFound = DefinedError{Code: 2003, StatusCode: http.StatusNotFound, Err: "pending image not found", RuErr: "Изображение, ожидающее загрузки, не найдено"}

	// 3*** - render and media errors
	ErrUnrenderableType    = DefinedError{Code: 3001, StatusCode: http.StatusUnprocessableEntity, Err: "unrenderable type", RuErr: "Тип не поддерживается при отображении"}
	ErrUnknownMediaType    = DefinedError{Code: 3002, StatusCode: http.StatusUnprocessableEntity, Err: "unknown media type", RuErr: "Неизвестный тип медиа"}
	ErrUnsupportedMediaURL = DefinedError{Code: 3003, StatusCode: http.StatusBadRequest, Err: "unsupported media url", RuErr: "Не удалось распознать адрес медиа"}

	// 4*** - documents and attachments API errors
	ErrDocNotFound                  = DefinedError{Code: 4001, StatusCode: http.StatusNotFound, Err: "doc not found", RuErr: "Документ не найден"}
	ErrDocTitleRequired             = DefinedError{Code: 4002, StatusCode: http.StatusBadRequest, Err: "doc title is required", RuErr: "Название документа не может быть пустым"}
	ErrAttachmentIsTooBig           = DefinedError{Code: 4003, StatusCode: http.StatusRequestEntityTooLarge, Err: "attachment size exceed %d MB", RuErr: "Размер вложения не должен превышать %d МБ"}
	ErrAttachmentsIncorrectMetadata = DefinedError{Code: 4004, StatusCode: http.StatusBadRequest, Err: "incorrect attachment metadata", RuErr: "Ошибка клиента"}
	ErrAttachmentNotImage           = DefinedError{Code: 4005, StatusCode: http.StatusBadRequest, Err: "attachment is not an image", RuErr: "Вложение не является изображением"}
	ErrFileNotFound                 = DefinedError{Code: 4006, StatusCode: http.StatusNotFound, Err: "file not found", RuErr: "Файл не найден"}
	ErrPdfExport                    = DefinedError{Code: 4007, StatusCode: http.StatusInternalServerError, Err: "pdf export failed", RuErr: "Не удалось сформировать PDF"}

	// 5*** - generic errors
	ErrGeneric       = DefinedError{Code: 5000, StatusCode: http.StatusBadRequest, Err: "Something went wrong. Please try again later or contact the support team.", RuErr: "Что-то пошло не так. Повторите попытку позже или обратитесь в службу поддержки"}
	ErrInvalidJSON   = DefinedError{Code: 5001, StatusCode: http.StatusBadRequest, Err: "invalid request body", RuErr: "Некорректное тело запроса"}
	ErrEntityToLarge = DefinedError{Code: 5010, StatusCode: http.StatusRequestEntityTooLarge, Err: "size exceeds the allowed limit", RuErr: "Размер файла превышает допустимый."}
)

func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	} else {
		e.Err = strings.Replace(e.Err, "%d", "", -1)
		e.RuErr = strings.Replace(e.RuErr, "%d", "", -1)
	}
	return e
}
