package editor

import (
	"fmt"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
)

// span - участок блока [start, end) в UTF-16 единицах
type span struct {
	idx        int
	start, end int
}

// selectionSpans нормализует выделение к порядку документа и разбивает его на участки блоков.
// Atomic блоки и пустые участки пропускаются.
func (e *Editor) selectionSpans(sel edtypes.Selection) ([]span, error) {
	anchorIdx, err := e.blockIndex(sel.AnchorKey)
	if err != nil {
		return nil, err
	}
	focusIdx, err := e.blockIndex(sel.FocusKey)
	if err != nil {
		return nil, err
	}
	if sel.AnchorOffset < 0 || sel.AnchorOffset > e.doc.Blocks[anchorIdx].Len() ||
		sel.FocusOffset < 0 || sel.FocusOffset > e.doc.Blocks[focusIdx].Len() {
		return nil, fmt.Errorf("%w: offset out of block bounds", apierrors.ErrInvalidSelection)
	}

	startIdx, startOff, endIdx, endOff := anchorIdx, sel.AnchorOffset, focusIdx, sel.FocusOffset
	if focusIdx < anchorIdx || (focusIdx == anchorIdx && sel.FocusOffset < sel.AnchorOffset) {
		startIdx, startOff, endIdx, endOff = focusIdx, sel.FocusOffset, anchorIdx, sel.AnchorOffset
	}

	var res []span
	for i := startIdx; i <= endIdx; i++ {
		b := &e.doc.Blocks[i]
		if b.Type == edtypes.Atomic {
			continue
		}
		s := span{idx: i, start: 0, end: b.Len()}
		if i == startIdx {
			s.start = startOff
		}
		if i == endIdx {
			s.end = endOff
		}
		if s.start < s.end {
			res = append(res, s)
		}
	}
	return res, nil
}

// ToggleInlineStyle переключает стиль на выделении: если весь выделенный текст уже имеет стиль, стиль снимается,
// иначе назначается на все выделение. Свернутое выделение ничего не меняет.
func (e *Editor) ToggleInlineStyle(sel edtypes.Selection, style edtypes.InlineStyle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !style.Valid() {
		return fmt.Errorf("%w: %q", apierrors.ErrInvalidInlineStyle, style)
	}
	if sel.IsCollapsed() {
		return nil
	}

	spans, err := e.selectionSpans(sel)
	if err != nil {
		return err
	}

	covered := true
	for _, s := range spans {
		if !hasStyle(&e.doc.Blocks[s.idx], style, s.start, s.end) {
			covered = false
			break
		}
	}

	for _, s := range spans {
		b := &e.doc.Blocks[s.idx]
		if covered {
			b.InlineStyleRanges = removeStyle(b.InlineStyleRanges, style, s.start, s.end)
		} else {
			b.InlineStyleRanges = edtypes.NormalizeStyleRanges(append(b.InlineStyleRanges, edtypes.StyleRange{Style: style, Offset: s.start, Length: s.end - s.start}))
		}
	}
	return nil
}

// hasStyle сообщает, покрыт ли весь участок [start, end) стилем.
func hasStyle(b *edtypes.Block, style edtypes.InlineStyle, start, end int) bool {
	pos := start
	for _, r := range b.InlineStyleRanges {
		if r.Style != style || r.End() <= pos || r.Offset > pos {
			continue
		}
		pos = r.End()
		if pos >= end {
			return true
		}
	}
	return pos >= end
}

func removeStyle(ranges []edtypes.StyleRange, style edtypes.InlineStyle, start, end int) []edtypes.StyleRange {
	res := make([]edtypes.StyleRange, 0, len(ranges)+1)
	for _, r := range ranges {
		if r.Style != style || r.End() <= start || r.Offset >= end {
			res = append(res, r)
			continue
		}
		if r.Offset < start {
			res = append(res, edtypes.StyleRange{Style: style, Offset: r.Offset, Length: start - r.Offset})
		}
		if r.End() > end {
			res = append(res, edtypes.StyleRange{Style: style, Offset: end, Length: r.End() - end})
		}
	}
	return edtypes.NormalizeStyleRanges(res)
}

// ApplyLink создает link сущность с адресом url и назначает ее выделенному тексту одного блока.
// Существующие сущности на выделенном участке снимаются. Пустой url только снимает ссылки.
func (e *Editor) ApplyLink(sel edtypes.Selection, url string) (edtypes.EntityKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sel.AnchorKey != sel.FocusKey {
		return 0, fmt.Errorf("%w: link must be inside one block", apierrors.ErrInvalidSelection)
	}
	if sel.IsCollapsed() {
		return 0, fmt.Errorf("%w: empty selection", apierrors.ErrInvalidSelection)
	}
	spans, err := e.selectionSpans(sel)
	if err != nil {
		return 0, err
	}
	if len(spans) == 0 {
		return 0, fmt.Errorf("%w: nothing to link", apierrors.ErrInvalidSelection)
	}
	s := spans[0]
	b := &e.doc.Blocks[s.idx]

	b.EntityRanges = removeEntities(b.EntityRanges, s.start, s.end)
	if url == "" {
		return 0, nil
	}

	key, err := e.doc.Entities.Create(edtypes.LinkEntity, edtypes.Mutable, edtypes.EntityData{"url": url})
	if err != nil {
		return 0, err
	}
	b.EntityRanges = append(b.EntityRanges, edtypes.EntityRange{Key: key, Offset: s.start, Length: s.end - s.start})
	edtypes.SortEntityRanges(b.EntityRanges)
	return key, nil
}

func removeEntities(ranges []edtypes.EntityRange, start, end int) []edtypes.EntityRange {
	res := make([]edtypes.EntityRange, 0, len(ranges)+1)
	for _, r := range ranges {
		if r.End() <= start || r.Offset >= end {
			res = append(res, r)
			continue
		}
		if r.Offset < start {
			res = append(res, edtypes.EntityRange{Key: r.Key, Offset: r.Offset, Length: start - r.Offset})
		}
		if r.End() > end {
			res = append(res, edtypes.EntityRange{Key: r.Key, Offset: end, Length: r.End() - end})
		}
	}
	return res
}
