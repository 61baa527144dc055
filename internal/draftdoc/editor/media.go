package editor

import (
	"fmt"
	"log/slog"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
	"github.com/gofrs/uuid"
)

// MediaItem - медиа из очереди вставки. Изображение без Src вставляется как ожидающее загрузки.
type MediaItem struct {
	Type edtypes.EntityType
	Src  string
	Name string
}

type InsertedMedia struct {
	EntityKey edtypes.EntityKey
	BlockKey  string
	// Token - токен корреляции ожидающего изображения, пустой для остальных медиа
	Token string
}

// FileDescriptor описывает завершенную загрузку.
type FileDescriptor struct {
	Name  string
	Token string
}

// InsertMedia вставляет медиа последовательными atomic блоками в заданном порядке, начиная с позиции at.
// Возвращает позицию после последнего блока и вставленные сущности.
func (e *Editor) InsertMedia(at edtypes.Position, items []MediaItem) (edtypes.Position, []InsertedMedia, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, item := range items {
		if !item.Type.IsMedia() {
			return edtypes.Position{}, nil, fmt.Errorf("%w: %q is not a media type", apierrors.ErrInvalidEntityType, item.Type)
		}
		if item.Type != edtypes.ImageEntity && item.Src == "" {
			return edtypes.Position{}, nil, fmt.Errorf("%w: empty %s id", apierrors.ErrUnsupportedMediaURL, item.Type)
		}
	}
	idx, offset, err := e.resolvePosition(at)
	if err != nil {
		return edtypes.Position{}, nil, err
	}

	res := make([]InsertedMedia, 0, len(items))
	pos := at
	for _, item := range items {
		data := edtypes.EntityData{"src": item.Src}
		var token string
		if item.Type == edtypes.ImageEntity {
			data["name"] = item.Name
			if item.Src == "" {
				token = uuid.Must(uuid.NewV4()).String()
				data["token"] = token
			}
		}

		key, err := e.doc.Entities.Create(item.Type, edtypes.Immutable, data)
		if err != nil {
			return pos, res, err
		}
		pos = e.insertAtomicBlock(idx, offset, key, " ")

		// atomic блок стоит перед хвостом, в который указывает pos
		tailIdx := e.doc.BlockIndex(pos.BlockKey)
		res = append(res, InsertedMedia{EntityKey: key, BlockKey: e.doc.Blocks[tailIdx-1].Key, Token: token})
		idx, offset = tailIdx, 0
	}
	return pos, res, nil
}

// ResolvePendingImage записывает адрес загруженного файла в ожидающее изображение.
// При наличии токена изображение ищется по нему, иначе берется первое в порядке документа ожидающее изображение
// с тем же именем файла, поэтому одинаковые имена разрешаются в порядке вставки.
func (e *Editor) ResolvePendingImage(fd FileDescriptor, url string) (edtypes.EntityKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var found edtypes.EntityKey
	_, err := e.forEachEntity(func(ent edtypes.Entity) bool {
		if found != 0 || ent.Type != edtypes.ImageEntity || ent.Data.String("src") != "" {
			return false
		}
		if fd.Token != "" {
			return ent.Data.String("token") == fd.Token
		}
		return ent.Data.String("name") == fd.Name
	}, func(ent edtypes.Entity) edtypes.EntityData {
		found = ent.Key
		return edtypes.EntityData{"src": url}
	})
	if err != nil {
		return 0, err
	}
	if found == 0 {
		return 0, fmt.Errorf("%w: name %q token %q", apierrors.ErrPendingImageNotFound, fd.Name, fd.Token)
	}

	slog.Debug("Resolve pending image", "name", fd.Name, "token", fd.Token, "entity", found)
	return found, nil
}
