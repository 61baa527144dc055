package dao

import (
	"errors"
	"time"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
	"github.com/aisa-it/draftdoc/internal/draftdoc/types"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Doc struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title       string             `json:"title" validate:"required,max=150"`
	Content     edtypes.Document   `json:"content"`
	ContentHTML types.RedactorHTML `json:"html"`

	Attachments []DocAttachment `json:"-" gorm:"foreignKey:DocId;constraint:OnDelete:CASCADE"`
}

// DocAttachment - загруженный файл изображения документа. Id совпадает с именем объекта в хранилище.
type DocAttachment struct {
	Id        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at"`

	DocId uuid.UUID `json:"doc" gorm:"type:uuid;index"`

	Name        string `json:"name" gorm:"index"`
	Token       string `json:"token,omitempty"`
	FileSize    int    `json:"size"`
	ContentType string `json:"content_type"`
}

func (d *Doc) BeforeCreate(tx *gorm.DB) error {
	if d.ID.IsNil() {
		d.ID = GenUUID()
	}
	if d.Content.Blocks == nil {
		d.Content = *edtypes.NewDocument()
	}
	return nil
}

func (a *DocAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.Id.IsNil() {
		a.Id = GenUUID()
	}
	return nil
}

// GetDoc загружает документ по id. Отсутствие документа - ErrDocNotFound.
func GetDoc(tx *gorm.DB, id uuid.UUID) (*Doc, error) {
	var doc Doc
	if err := tx.Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrDocNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// SaveDocContent сохраняет содержимое и превью документа без изменения остальных полей.
func SaveDocContent(tx *gorm.DB, doc *Doc) error {
	return tx.Model(doc).Updates(map[string]any{
		"content":      doc.Content,
		"content_html": doc.ContentHTML,
		"updated_at":   time.Now(),
	}).Error
}

// DeleteDoc удаляет документ и возвращает вложения, объекты которых нужно удалить из хранилища.
func DeleteDoc(tx *gorm.DB, id uuid.UUID) ([]DocAttachment, error) {
	var attachments []DocAttachment
	err := tx.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&Doc{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apierrors.ErrDocNotFound
		}
		if err := tx.Where("doc_id = ?", id).Find(&attachments).Error; err != nil {
			return err
		}
		return tx.Where("doc_id = ?", id).Delete(&DocAttachment{}).Error
	})
	return attachments, err
}

// ReferencedAttachmentIDs возвращает множество id всех вложений, привязанных к документам.
func ReferencedAttachmentIDs(tx *gorm.DB) (map[string]struct{}, error) {
	var ids []uuid.UUID
	if err := tx.Model(&DocAttachment{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	res := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		res[id.String()] = struct{}{}
	}
	return res, nil
}
