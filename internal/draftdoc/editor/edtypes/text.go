package edtypes

import (
	"slices"
	"unicode/utf16"

	"github.com/sethvargo/go-password/password"
)

const blockKeyLength = 5

// TextLen возвращает длину строки в UTF-16 единицах, как ее считает редактор в браузере.
func TextLen(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// SliceText возвращает подстроку [start, end) в UTF-16 единицах.
func SliceText(s string, start, end int) string {
	units := utf16.Encode([]rune(s))
	start = max(0, min(start, len(units)))
	end = max(start, min(end, len(units)))
	return string(utf16.Decode(units[start:end]))
}

// SplitText делит строку по смещению в UTF-16 единицах.
func SplitText(s string, offset int) (string, string) {
	units := utf16.Encode([]rune(s))
	offset = max(0, min(offset, len(units)))
	return string(utf16.Decode(units[:offset])), string(utf16.Decode(units[offset:]))
}

// GenBlockKey генерирует случайный ключ блока, не занятый в документе.
// Уникальность проверяется только среди текущих блоков: ключ удаленного или замененного блока
// может совпасть с новым лишь случайно, история ключей не хранится.
func (d *Document) GenBlockKey() string {
	for {
		key := password.MustGenerate(blockKeyLength, 2, 0, true, true)
		if !slices.ContainsFunc(d.Blocks, func(b Block) bool { return b.Key == key }) {
			return key
		}
	}
}
