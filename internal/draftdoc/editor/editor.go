// Пакет editor предоставляет API изменения документа: вставку медиа блоков, переключение типов блоков
// и стилей текста, работу с сущностями, а также импорт HTML в блочную модель.
//
// Основные возможности:
//   - Editor: изменение edtypes.Document с одним писателем за раз.
//   - Вставка atomic блоков и очереди медиа, отложенные изображения с токеном корреляции.
//   - Переключение типа блока, глубины элементов списка и стилей текста по выделению.
//   - Обход сущностей в порядке документа.
//   - ParseDocument: импорт HTML фрагмента.
package editor

import (
	"fmt"
	"sync"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
)

const DefaultMaxDepth = 4

// Editor изменяет документ. Все операции выполняются под мьютексом и оставляют документ согласованным.
type Editor struct {
	mu  sync.Mutex
	doc *edtypes.Document
}

func New(doc *edtypes.Document) *Editor {
	if doc == nil {
		doc = edtypes.NewDocument()
	}
	if doc.Entities == nil {
		doc.Entities = edtypes.NewEntityStore()
	}
	return &Editor{doc: doc}
}

// Document возвращает редактируемый документ. Читать его можно только между операциями редактора.
func (e *Editor) Document() *edtypes.Document {
	return e.doc
}

// Replace заменяет содержимое документа целиком. Пустой документ заменяется пустым состоянием редактора.
func (e *Editor) Replace(content *edtypes.Document) {
	if content == nil || len(content.Blocks) == 0 {
		content = edtypes.NewDocument()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	*e.doc = *content
	if e.doc.Entities == nil {
		e.doc.Entities = edtypes.NewEntityStore()
	}
}

// PatchEntity сливает patch с данными сущности.
func (e *Editor) PatchEntity(key edtypes.EntityKey, patch edtypes.EntityData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Entities.UpdateData(key, patch)
}

// ForEachEntity обходит сущности, на которые ссылаются блоки, в порядке документа, каждую один раз.
// Для сущностей, прошедших predicate, вызывается fn; непустой результат fn сливается с данными сущности.
// Возвращает количество измененных сущностей.
func (e *Editor) ForEachEntity(predicate func(edtypes.Entity) bool, fn func(edtypes.Entity) edtypes.EntityData) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.forEachEntity(predicate, fn)
}

func (e *Editor) forEachEntity(predicate func(edtypes.Entity) bool, fn func(edtypes.Entity) edtypes.EntityData) (int, error) {
	visited := make(map[edtypes.EntityKey]struct{})
	patched := 0
	for _, b := range e.doc.Blocks {
		for _, r := range b.EntityRanges {
			if _, ok := visited[r.Key]; ok {
				continue
			}
			visited[r.Key] = struct{}{}

			entity, err := e.doc.Entities.Get(r.Key)
			if err != nil {
				return patched, fmt.Errorf("block %s: %w", b.Key, err)
			}
			if predicate != nil && !predicate(entity) {
				continue
			}
			if patch := fn(entity); len(patch) > 0 {
				if err := e.doc.Entities.UpdateData(r.Key, patch); err != nil {
					return patched, err
				}
				patched++
			}
		}
	}
	return patched, nil
}

func (e *Editor) blockIndex(key string) (int, error) {
	idx := e.doc.BlockIndex(key)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %q", apierrors.ErrUnknownBlockKey, key)
	}
	return idx, nil
}
