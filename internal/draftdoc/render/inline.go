package render

import (
	"slices"
	"unicode/utf16"

	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
)

// Segment - участок текста блока с одинаковым набором стилей и одной сущностью.
type Segment struct {
	Text   string
	Styles []edtypes.InlineStyle
	Entity edtypes.EntityKey
	// HasEntity отличает отсутствие сущности от сущности с ключом 0
	HasEntity bool
}

// Segments режет текст блока на всех границах стилей и сущностей.
// Символ, внутри суррогатной пары которого проходит граница, выделяется в отдельный сегмент
// и получает стили обеих половин.
func Segments(b *edtypes.Block) []Segment {
	units := utf16.Encode([]rune(b.Text))
	if len(units) == 0 {
		return nil
	}

	bounds := []int{0, len(units)}
	for _, r := range b.InlineStyleRanges {
		bounds = append(bounds, r.Offset, r.End())
	}
	for _, r := range b.EntityRanges {
		bounds = append(bounds, r.Offset, r.End())
	}
	for i, bound := range bounds {
		if bound > 0 && bound < len(units) && isHighSurrogate(units[bound-1]) && isLowSurrogate(units[bound]) {
			bounds[i] = bound - 1
			bounds = append(bounds, bound+1)
		}
	}
	slices.Sort(bounds)
	bounds = slices.Compact(bounds)

	var res []Segment
	for i := 1; i < len(bounds); i++ {
		start, end := bounds[i-1], bounds[i]
		if start < 0 || end > len(units) || start >= end {
			continue
		}
		key, ok := b.EntityAt(start)
		styles := b.StylesAt(start)
		if isHighSurrogate(units[start]) && start+1 < end {
			if !ok {
				key, ok = b.EntityAt(start + 1)
			}
			styles = unionStyles(styles, b.StylesAt(start+1))
		}
		res = append(res, Segment{
			Text:      string(utf16.Decode(units[start:end])),
			Styles:    styles,
			Entity:    key,
			HasEntity: ok,
		})
	}
	return res
}

func isHighSurrogate(u uint16) bool {
	return u >= 0xd800 && u < 0xdc00
}

func isLowSurrogate(u uint16) bool {
	return u >= 0xdc00 && u < 0xe000
}

func unionStyles(a, b []edtypes.InlineStyle) []edtypes.InlineStyle {
	var res []edtypes.InlineStyle
	for _, style := range edtypes.StyleOrder {
		if slices.Contains(a, style) || slices.Contains(b, style) {
			res = append(res, style)
		}
	}
	return res
}

// EntityRun - подряд идущие сегменты под одной сущностью или без нее.
type EntityRun struct {
	Segments  []Segment
	Entity    edtypes.EntityKey
	HasEntity bool
}

// EntityRuns объединяет соседние сегменты с одной и той же сущностью.
func EntityRuns(segments []Segment) []EntityRun {
	var res []EntityRun
	for _, s := range segments {
		if n := len(res); n > 0 && res[n-1].HasEntity == s.HasEntity && res[n-1].Entity == s.Entity {
			res[n-1].Segments = append(res[n-1].Segments, s)
			continue
		}
		res = append(res, EntityRun{Segments: []Segment{s}, Entity: s.Entity, HasEntity: s.HasEntity})
	}
	return res
}
