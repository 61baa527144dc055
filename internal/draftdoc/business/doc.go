package business

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/dao"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/draftjs"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
	"github.com/aisa-it/draftdoc/internal/draftdoc/media"
	"github.com/aisa-it/draftdoc/internal/draftdoc/notifications"
	"github.com/aisa-it/draftdoc/internal/draftdoc/render"
	errStack "github.com/aisa-it/draftdoc/internal/draftdoc/stack-error"
	"github.com/aisa-it/draftdoc/internal/draftdoc/types"
	"github.com/gofrs/uuid"
)

// MediaRequest - элемент очереди вставки медиа. Если задан URL, тип и идентификатор определяются по нему.
type MediaRequest struct {
	Type edtypes.EntityType
	Src  string
	Name string
	URL  string
}

// CreateDoc создает документ. Пустое содержимое заменяется документом с одним пустым блоком.
func (b *Business) CreateDoc(title string, content *edtypes.Document) (*dao.Doc, error) {
	if title == "" {
		return nil, apierrors.ErrDocTitleRequired
	}
	if content == nil || len(content.Blocks) == 0 {
		content = edtypes.NewDocument()
	}

	doc := dao.Doc{ID: dao.GenUUID(), Title: title, Content: *content}
	if err := b.refreshPreview(&doc); err != nil {
		return nil, err
	}
	if err := b.db.Create(&doc).Error; err != nil {
		return nil, errStack.TrackErrorStack(err).AddContext("title", title)
	}
	return &doc, nil
}

func (b *Business) GetDoc(id uuid.UUID) (*dao.Doc, error) {
	doc, err := dao.GetDoc(b.db, id)
	if err != nil {
		return nil, errStack.TrackErrorStack(err).AddContext("docId", id.String())
	}
	return doc, nil
}

// ReplaceContent заменяет все содержимое документа.
func (b *Business) ReplaceContent(id uuid.UUID, content *edtypes.Document) (*dao.Doc, error) {
	return b.Mutate(id, func(ed *editor.Editor) error {
		ed.Replace(content)
		return nil
	})
}

// DeleteDoc удаляет документ, файлы его вложений и закрывает сессии превью.
func (b *Business) DeleteDoc(id uuid.UUID) error {
	unlock := b.lockDoc(id)
	attachments, err := dao.DeleteDoc(b.db, id)
	unlock()
	if err != nil {
		return errStack.TrackErrorStack(err).AddContext("docId", id.String())
	}
	b.forgetLock(id)

	for _, a := range attachments {
		if err := b.storage.Delete(a.Id); err != nil {
			slog.Error("Delete doc attachment", "docId", id, "attachmentId", a.Id, "err", err)
		}
	}
	if b.hub != nil {
		b.hub.CloseDocSessions(id.String())
	}
	return nil
}

// Mutate выполняет изменение документа под его блокировкой, перестраивает превью и сохраняет.
// Рассылка превью идет уже после снятия блокировки. Если f возвращает ошибку, документ не сохраняется.
func (b *Business) Mutate(id uuid.UUID, f func(ed *editor.Editor) error) (*dao.Doc, error) {
	doc, err := b.mutate(id, f)
	if err != nil {
		return nil, err
	}
	b.broadcast(doc)
	return doc, nil
}

func (b *Business) mutate(id uuid.UUID, f func(ed *editor.Editor) error) (*dao.Doc, error) {
	unlock := b.lockDoc(id)
	defer unlock()

	doc, err := dao.GetDoc(b.db, id)
	if err != nil {
		return nil, errStack.TrackErrorStack(err).AddContext("docId", id.String())
	}

	if err := f(editor.New(&doc.Content)); err != nil {
		return nil, err
	}

	if err := b.refreshPreview(doc); err != nil {
		return nil, err
	}
	if err := dao.SaveDocContent(b.db, doc); err != nil {
		return nil, errStack.TrackErrorStack(err).AddContext("docId", id.String())
	}
	return doc, nil
}

func (b *Business) ToggleBlockType(id uuid.UUID, blockKey string, t edtypes.BlockType) (*dao.Doc, error) {
	return b.Mutate(id, func(ed *editor.Editor) error {
		return ed.ToggleBlockType(blockKey, t)
	})
}

func (b *Business) AdjustDepth(id uuid.UUID, blockKey string, delta int) (*dao.Doc, error) {
	return b.Mutate(id, func(ed *editor.Editor) error {
		return ed.AdjustDepth(blockKey, delta, b.maxDepth())
	})
}

func (b *Business) ToggleInlineStyle(id uuid.UUID, sel edtypes.Selection, style edtypes.InlineStyle) (*dao.Doc, error) {
	return b.Mutate(id, func(ed *editor.Editor) error {
		return ed.ToggleInlineStyle(sel, style)
	})
}

func (b *Business) ApplyLink(id uuid.UUID, sel edtypes.Selection, url string) (*dao.Doc, error) {
	return b.Mutate(id, func(ed *editor.Editor) error {
		_, err := ed.ApplyLink(sel, url)
		return err
	})
}

// InsertMedia вставляет очередь медиа с позиции at. Для ожидающих изображений возвращаются токены корреляции,
// которые клиент передает при загрузке файла.
func (b *Business) InsertMedia(id uuid.UUID, at edtypes.Position, requests []MediaRequest) (*dao.Doc, []editor.InsertedMedia, error) {
	items := make([]editor.MediaItem, len(requests))
	for i, r := range requests {
		item := editor.MediaItem{Type: r.Type, Src: r.Src, Name: r.Name}
		if r.URL != "" {
			t, src, err := media.Detect(r.URL)
			if err != nil {
				return nil, nil, err
			}
			item.Type, item.Src = t, src
		}
		items[i] = item
	}

	var inserted []editor.InsertedMedia
	doc, err := b.Mutate(id, func(ed *editor.Editor) error {
		var err error
		_, inserted, err = ed.InsertMedia(at, items)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return doc, inserted, nil
}

// refreshPreview перестраивает HTML превью. Документ, который не удается отобразить, сохраняется без превью.
func (b *Business) refreshPreview(doc *dao.Doc) error {
	body, err := render.RenderString(&doc.Content)
	if errors.Is(err, apierrors.ErrUnrenderableType) {
		slog.Warn("Doc preview unavailable", "docId", doc.ID, "err", err)
		doc.ContentHTML = types.NewRedactorHTML("")
		return nil
	}
	if err != nil {
		return err
	}

	minified, err := b.minifier.String("text/html", body)
	if err != nil {
		slog.Warn("Minify doc preview", "docId", doc.ID, "err", err)
		minified = body
	}
	doc.ContentHTML = types.NewRedactorHTML(minified)
	return nil
}

func (b *Business) broadcast(doc *dao.Doc) {
	if b.hub == nil {
		return
	}
	raw, err := draftjs.Serialize(&doc.Content)
	if err != nil {
		slog.Error("Serialize doc for preview", "docId", doc.ID, "err", err)
		return
	}
	b.hub.Send(notifications.PreviewMsg{
		DocId:     doc.ID.String(),
		Content:   json.RawMessage(raw),
		HTML:      doc.ContentHTML.Body,
		UpdatedAt: time.Now(),
	})
}
