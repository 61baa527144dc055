package editor

import (
	"fmt"
	"slices"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
)

// InsertAtomicBlock вставляет atomic блок с сущностью entityKey в точку at.
// Блок в точке вставки делится на голову и хвост: [голова, atomic, хвост]. Пустая голова не сохраняется,
// хвост сохраняется всегда. Возвращает позицию в начале хвоста, от нее продолжается вставка следующего медиа.
func (e *Editor) InsertAtomicBlock(at edtypes.Position, entityKey edtypes.EntityKey, text string) (edtypes.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, offset, err := e.resolvePosition(at)
	if err != nil {
		return edtypes.Position{}, err
	}
	if !e.doc.Entities.Has(entityKey) {
		return edtypes.Position{}, fmt.Errorf("%w: %d", apierrors.ErrUnknownEntityKey, entityKey)
	}
	return e.insertAtomicBlock(idx, offset, entityKey, text), nil
}

// resolvePosition возвращает индекс блока и смещение. Для пустого документа индекс -1.
func (e *Editor) resolvePosition(at edtypes.Position) (int, int, error) {
	if at.IsZero() {
		last := len(e.doc.Blocks) - 1
		if last < 0 {
			return -1, 0, nil
		}
		return last, e.doc.Blocks[last].Len(), nil
	}

	idx, err := e.blockIndex(at.BlockKey)
	if err != nil {
		return -1, 0, err
	}
	if at.Offset < 0 || at.Offset > e.doc.Blocks[idx].Len() {
		return -1, 0, fmt.Errorf("%w: offset %d out of block %q", apierrors.ErrInvalidSelection, at.Offset, at.BlockKey)
	}
	return idx, at.Offset, nil
}

func (e *Editor) insertAtomicBlock(idx, offset int, entityKey edtypes.EntityKey, text string) edtypes.Position {
	if text == "" {
		text = " "
	}
	atomic := edtypes.Block{
		Key:          e.doc.GenBlockKey(),
		Type:         edtypes.Atomic,
		Text:         text,
		EntityRanges: []edtypes.EntityRange{{Key: entityKey, Offset: 0, Length: edtypes.TextLen(text)}},
	}

	var replacement []edtypes.Block
	switch {
	case idx < 0:
		replacement = []edtypes.Block{atomic, {Key: e.doc.GenBlockKey(), Type: edtypes.Unstyled}}
		e.doc.Blocks = replacement
		return edtypes.Position{BlockKey: replacement[1].Key}
	case e.doc.Blocks[idx].Type == edtypes.Atomic:
		// atomic блок не делится, вставка идет после него
		replacement = []edtypes.Block{e.doc.Blocks[idx], atomic, {Key: e.doc.GenBlockKey(), Type: edtypes.Unstyled}}
	default:
		head, tail := splitBlock(e.doc.Blocks[idx], offset)
		if head.Text == "" {
			replacement = []edtypes.Block{atomic, tail}
		} else {
			tail.Key = e.doc.GenBlockKey()
			replacement = []edtypes.Block{head, atomic, tail}
		}
	}

	e.doc.Blocks = slices.Replace(e.doc.Blocks, idx, idx+1, replacement...)
	return edtypes.Position{BlockKey: replacement[len(replacement)-1].Key}
}

// splitBlock делит блок по смещению. Обе части сохраняют ключ, тип и глубину исходного блока.
func splitBlock(b edtypes.Block, offset int) (edtypes.Block, edtypes.Block) {
	head, tail := b, b
	head.Text, tail.Text = edtypes.SplitText(b.Text, offset)
	head.InlineStyleRanges, tail.InlineStyleRanges = nil, nil
	head.EntityRanges, tail.EntityRanges = nil, nil

	for _, r := range b.InlineStyleRanges {
		if start, end := r.Offset, min(r.End(), offset); start < end {
			head.InlineStyleRanges = append(head.InlineStyleRanges, edtypes.StyleRange{Style: r.Style, Offset: start, Length: end - start})
		}
		if start, end := max(r.Offset, offset), r.End(); start < end {
			tail.InlineStyleRanges = append(tail.InlineStyleRanges, edtypes.StyleRange{Style: r.Style, Offset: start - offset, Length: end - start})
		}
	}
	for _, r := range b.EntityRanges {
		if start, end := r.Offset, min(r.End(), offset); start < end {
			head.EntityRanges = append(head.EntityRanges, edtypes.EntityRange{Key: r.Key, Offset: start, Length: end - start})
		}
		if start, end := max(r.Offset, offset), r.End(); start < end {
			tail.EntityRanges = append(tail.EntityRanges, edtypes.EntityRange{Key: r.Key, Offset: start - offset, Length: end - start})
		}
	}
	return head, tail
}

// ToggleBlockType устанавливает блоку тип t, а если тип уже t - возвращает unstyled.
// Текст и диапазоны не меняются. Atomic блоки не переключаются, atomic тип назначить нельзя.
func (e *Editor) ToggleBlockType(blockKey string, t edtypes.BlockType) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !t.Valid() || t == edtypes.Atomic {
		return fmt.Errorf("%w: %q", apierrors.ErrInvalidBlockType, t)
	}
	idx, err := e.blockIndex(blockKey)
	if err != nil {
		return err
	}

	block := &e.doc.Blocks[idx]
	if block.Type == edtypes.Atomic {
		return nil
	}
	if block.Type == t {
		block.Type = edtypes.Unstyled
	} else {
		block.Type = t
	}
	return nil
}

// AdjustDepth меняет глубину элемента списка на delta. Новая глубина ограничена [0, min(prev+1, maxDepth)],
// где prev - глубина предыдущего блока, если он тоже элемент списка, иначе верхняя граница 0.
// Для блоков, не являющихся элементами списка, ничего не делает.
func (e *Editor) AdjustDepth(blockKey string, delta, maxDepth int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, err := e.blockIndex(blockKey)
	if err != nil {
		return err
	}
	block := &e.doc.Blocks[idx]
	if !block.Type.IsList() {
		return nil
	}

	limit := 0
	if idx > 0 && e.doc.Blocks[idx-1].Type.IsList() {
		limit = min(e.doc.Blocks[idx-1].Depth+1, maxDepth)
	}
	block.Depth = max(0, min(block.Depth+delta, limit))
	return nil
}
