// Пакет draftjs конвертирует документы между raw форматом draft-js редактора и edtypes.Document.
//
// Raw документ - это JSON снимок всего документа: упорядоченные блоки и карта сущностей.
// Смещения диапазонов считаются в UTF-16 единицах, ключи сущностей в entityMap - числовые строки.
package draftjs

// RawDocument - корень raw документа.
type RawDocument struct {
	Blocks    []RawBlock           `json:"blocks"`
	EntityMap map[string]RawEntity `json:"entityMap"`
}

type RawBlock struct {
	Key               string           `json:"key"`
	Type              string           `json:"type"`
	Depth             int              `json:"depth"`
	Text              string           `json:"text"`
	InlineStyleRanges []RawStyleRange  `json:"inlineStyleRanges"`
	EntityRanges      []RawEntityRange `json:"entityRanges"`
	Data              map[string]any   `json:"data"`
}

type RawStyleRange struct {
	Style  string `json:"style"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

type RawEntityRange struct {
	Key    int `json:"key"`
	Offset int `json:"offset"`
	Length int `json:"length"`
}

type RawEntity struct {
	Type       string         `json:"type"`
	Mutability string         `json:"mutability"`
	Data       map[string]any `json:"data"`
}
