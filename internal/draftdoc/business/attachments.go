package business

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/dao"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor"
	filestorage "github.com/aisa-it/draftdoc/internal/draftdoc/file-storage"
	errStack "github.com/aisa-it/draftdoc/internal/draftdoc/stack-error"
	"github.com/gofrs/uuid"
)

const fileURLPrefix = "/api/file/"

// FileURL - адрес, по которому API отдает сохраненный файл.
func FileURL(id uuid.UUID) string {
	return fileURLPrefix + id.String() + "/"
}

// fileIDFromURL возвращает id файла, если адрес указывает на файл этого сервиса.
func fileIDFromURL(src string) (uuid.UUID, bool) {
	rest, ok := strings.CutPrefix(src, fileURLPrefix)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.FromString(strings.TrimSuffix(rest, "/"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Upload - завершенная загрузка изображения.
type Upload struct {
	editor.FileDescriptor
	Size        int64
	ContentType string
}

func (b *Business) validateUpload(u Upload) error {
	if !strings.HasPrefix(u.ContentType, "image/") {
		return apierrors.ErrAttachmentNotImage
	}
	if b.cfg != nil && u.Size > b.cfg.MaxUploadSize() {
		return apierrors.ErrAttachmentIsTooBig.WithFormattedMessage(b.cfg.MaxUploadSizeMB)
	}
	if u.Name == "" && u.Token == "" {
		return apierrors.ErrAttachmentsIncorrectMetadata
	}
	return nil
}

// AttachImage сохраняет файл в хранилище и записывает его адрес в ожидающее изображение документа.
// Если подходящего изображения нет, файл удаляется.
func (b *Business) AttachImage(docId uuid.UUID, u Upload, reader io.Reader) (*dao.Doc, error) {
	if err := b.validateUpload(u); err != nil {
		return nil, err
	}
	if _, err := dao.GetDoc(b.db, docId); err != nil {
		return nil, errStack.TrackErrorStack(err).AddContext("docId", docId.String())
	}

	fileId := dao.GenUUID()
	if err := b.storage.SaveReader(reader, u.Size, fileId, u.ContentType, &filestorage.Metadata{DocId: docId.String(), Token: u.Token}); err != nil {
		return nil, errStack.TrackErrorStack(err).AddContext("docId", docId.String())
	}

	doc, err := b.CompleteUpload(docId, fileId, u)
	if err != nil {
		if derr := b.storage.Delete(fileId); derr != nil {
			slog.Error("Delete unattached file", "fileId", fileId, "err", derr)
		}
		return nil, err
	}
	return doc, nil
}

// CompleteUpload привязывает уже сохраненный файл к документу и разрешает ожидающее изображение.
// Используется и после загрузки через tus.
func (b *Business) CompleteUpload(docId uuid.UUID, fileId uuid.UUID, u Upload) (*dao.Doc, error) {
	attachment := dao.DocAttachment{
		Id:          fileId,
		DocId:       docId,
		Name:        u.Name,
		Token:       u.Token,
		FileSize:    int(u.Size),
		ContentType: u.ContentType,
	}

	doc, err := b.Mutate(docId, func(ed *editor.Editor) error {
		if _, err := ed.ResolvePendingImage(u.FileDescriptor, FileURL(fileId)); err != nil {
			return err
		}
		return b.db.Create(&attachment).Error
	})
	if err != nil {
		var definedErr apierrors.DefinedError
		if errors.As(err, &definedErr) {
			return nil, err
		}
		return nil, errStack.TrackErrorStack(err).AddContext("docId", docId.String()).AddContext("fileId", fileId.String())
	}
	return doc, nil
}

// OpenFile открывает сохраненный файл и возвращает его mime тип.
func (b *Business) OpenFile(id uuid.UUID) (io.ReadCloser, *filestorage.FileInfo, error) {
	info, err := b.storage.GetFileInfo(id)
	if err != nil {
		if errors.Is(err, filestorage.ErrNotFound) {
			return nil, nil, apierrors.ErrFileNotFound
		}
		return nil, nil, errStack.TrackErrorStack(err).AddContext("fileId", id.String())
	}

	var attachment dao.DocAttachment
	if err := b.db.Select("content_type").Where("id = ?", id).First(&attachment).Error; err == nil && attachment.ContentType != "" {
		info.ContentType = attachment.ContentType
	}

	r, err := b.storage.LoadReader(id)
	if err != nil {
		return nil, nil, errStack.TrackErrorStack(err).AddContext("fileId", id.String())
	}
	return r, info, nil
}
