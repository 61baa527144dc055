// Загрузка изображений документа (multipart и tus) и отдача сохраненных файлов.
package draftdoc

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/business"
	"github.com/aisa-it/draftdoc/internal/draftdoc/dao"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	tusd "github.com/tus/tusd/v2/pkg/handler"
)

const tusBasePath = "/api/docs/attachments/tus/"

func (s *Services) AddAttachmentServices(g *echo.Group) {
	g.POST("docs/:docId/attachments/", s.uploadDocImage, s.DocMiddleware)
	g.Any("docs/attachments/tus/*", s.storage.GetTUSHandler(s.cfg, tusBasePath, s.attachmentsUploadValidator, s.attachmentsPostUploadHook))

	g.GET("file/:fileName/", s.getFile)
}

// uploadDocImage godoc
// @Summary doc: загрузка изображения
// @Description Сохраняет файл и записывает его адрес в изображение, ожидающее загрузки.
// @Description Изображение ищется по token, без токена по имени файла.
// @Accept multipart/form-data
// @Param file formData file true "изображение"
// @Param token formData string false "токен из ответа вставки медиа"
// @Param name formData string false "имя файла, если отличается от имени загружаемого файла"
// @Router /api/docs/{docId}/attachments/ [post]
func (s *Services) uploadDocImage(c echo.Context) error {
	docId := c.(DocContext).DocId

	file, err := c.FormFile("file")
	if err != nil {
		return EErrorDefined(c, apierrors.ErrAttachmentsIncorrectMetadata)
	}

	name := c.FormValue("name")
	if name == "" {
		name = file.Filename
	}

	f, err := file.Open()
	if err != nil {
		return EError(c, err)
	}
	defer f.Close()

	contentType, err := uploadContentType(file.Header.Get(echo.HeaderContentType), name, f)
	if err != nil {
		return EError(c, err)
	}

	doc, err := s.business.AttachImage(docId, business.Upload{
		FileDescriptor: editor.FileDescriptor{Name: name, Token: c.FormValue("token")},
		Size:           file.Size,
		ContentType:    contentType,
	}, f)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// uploadContentType берет тип из заголовка части, затем по расширению, затем по содержимому.
func uploadContentType(header string, name string, f io.ReadSeeker) (string, error) {
	if header != "" && header != echo.MIMEOctetStream {
		return header, nil
	}
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		return byExt, nil
	}

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

func (s *Services) attachmentsUploadValidator(hook tusd.HookEvent) (tusd.HTTPResponse, tusd.FileInfoChanges, error) {
	docId, dOk := hook.Upload.MetaData["doc_id"]
	fileName := hook.Upload.MetaData["file_name"]
	token := hook.Upload.MetaData["token"]
	fileType := hook.Upload.MetaData["file_type"]

	if !dOk || (fileName == "" && token == "") {
		return tusd.HTTPResponse{}, tusd.FileInfoChanges{}, apierrors.ErrAttachmentsIncorrectMetadata.TusdError()
	}

	if !strings.HasPrefix(fileType, "image/") {
		return tusd.HTTPResponse{}, tusd.FileInfoChanges{}, apierrors.ErrAttachmentNotImage.TusdError()
	}

	if hook.Upload.Size > s.cfg.MaxUploadSize() {
		return tusd.HTTPResponse{}, tusd.FileInfoChanges{}, apierrors.ErrAttachmentIsTooBig.WithFormattedMessage(s.cfg.MaxUploadSizeMB).TusdError()
	}

	id, err := uuid.FromString(docId)
	if err != nil {
		return tusd.HTTPResponse{}, tusd.FileInfoChanges{}, apierrors.ErrDocNotFound.TusdError()
	}
	if _, err := s.business.GetDoc(id); err != nil {
		if errors.Is(err, apierrors.ErrDocNotFound) {
			return tusd.HTTPResponse{}, tusd.FileInfoChanges{}, apierrors.ErrDocNotFound.TusdError()
		}
		return tusd.HTTPResponse{}, tusd.FileInfoChanges{}, apierrors.ErrGeneric.TusdError()
	}

	filteredMetadata := tusd.MetaData{
		"doc_id":    id.String(),
		"file_name": fileName,
		"token":     token,
		"filetype":  fileType, // s3store передает filetype в Content-Type объекта
	}

	return tusd.HTTPResponse{}, tusd.FileInfoChanges{ID: dao.GenID(), MetaData: filteredMetadata}, nil
}

func (s *Services) attachmentsPostUploadHook(event tusd.HookEvent) {
	fileId, err := uuid.FromString(strings.Split(event.Upload.ID, "+")[0])
	if err != nil {
		slog.Error("Parse uploaded file id", "id", event.Upload.ID, "err", err)
		return
	}
	docId, err := uuid.FromString(event.Upload.MetaData["doc_id"])
	if err != nil {
		slog.Error("Parse uploaded file doc id", "fileId", fileId, "err", err)
		return
	}

	if _, err := s.business.CompleteUpload(docId, fileId, business.Upload{
		FileDescriptor: editor.FileDescriptor{
			Name:  event.Upload.MetaData["file_name"],
			Token: event.Upload.MetaData["token"],
		},
		Size:        event.Upload.Size,
		ContentType: event.Upload.MetaData["filetype"],
	}); err != nil {
		slog.Error("Complete tus upload", "docId", docId, "fileId", fileId, "err", err)
		if err := s.storage.Delete(fileId); err != nil {
			slog.Error("Delete unattached file", "fileId", fileId, "err", err)
		}
	}
}

func (s *Services) getFile(c echo.Context) error {
	fileId, err := uuid.FromString(c.Param("fileName"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrFileNotFound)
	}

	r, info, err := s.business.OpenFile(fileId)
	if err != nil {
		return EError(c, err)
	}
	defer r.Close()

	c.Response().Header().Set("Cache-Control", "private, max-age=86400")
	return c.Stream(http.StatusOK, info.ContentType, r)
}
