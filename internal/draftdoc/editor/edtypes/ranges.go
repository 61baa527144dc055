package edtypes

import (
	"cmp"
	"slices"
)

// NormalizeStyleRanges сливает пересекающиеся и смежные диапазоны одного стиля,
// отбрасывает пустые и сортирует результат по смещению, затем по StyleOrder.
func NormalizeStyleRanges(ranges []StyleRange) []StyleRange {
	res := make([]StyleRange, 0, len(ranges))
	for _, style := range StyleOrder {
		var spans []StyleRange
		for _, r := range ranges {
			if r.Style == style && r.Length > 0 {
				spans = append(spans, r)
			}
		}
		slices.SortFunc(spans, func(a, b StyleRange) int {
			return cmp.Compare(a.Offset, b.Offset)
		})

		for _, r := range spans {
			if n := len(res); n > 0 && res[n-1].Style == style && r.Offset <= res[n-1].End() {
				res[n-1].Length = max(res[n-1].End(), r.End()) - res[n-1].Offset
				continue
			}
			res = append(res, r)
		}
	}

	slices.SortStableFunc(res, func(a, b StyleRange) int {
		if c := cmp.Compare(a.Offset, b.Offset); c != 0 {
			return c
		}
		return cmp.Compare(slices.Index(StyleOrder, a.Style), slices.Index(StyleOrder, b.Style))
	})
	return res
}

// SortEntityRanges упорядочивает диапазоны сущностей по смещению.
func SortEntityRanges(ranges []EntityRange) {
	slices.SortFunc(ranges, func(a, b EntityRange) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
}

// EntityRangesOverlap сообщает, покрывают ли два диапазона одного блока общий символ.
// Диапазоны должны быть отсортированы.
func EntityRangesOverlap(ranges []EntityRange) bool {
	for i := 1; i < len(ranges); i++ {
		if ranges[i].Offset < ranges[i-1].End() {
			return true
		}
	}
	return false
}
