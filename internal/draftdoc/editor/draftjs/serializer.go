package draftjs

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
)

// Serialize сериализует документ в raw JSON.
func Serialize(doc *edtypes.Document) ([]byte, error) {
	raw, err := ToRaw(doc)
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// ToRaw делает полный снимок документа. Сущности перенумеровываются с нуля в порядке первого упоминания,
// сущности без ссылок из блоков в снимок не попадают.
func ToRaw(doc *edtypes.Document) (*RawDocument, error) {
	raw := &RawDocument{
		Blocks:    make([]RawBlock, 0, len(doc.Blocks)),
		EntityMap: make(map[string]RawEntity),
	}

	store := doc.Entities
	if store == nil {
		store = edtypes.NewEntityStore()
	}

	rawKeys := make(map[edtypes.EntityKey]int)
	for _, b := range doc.Blocks {
		rb := RawBlock{
			Key:               b.Key,
			Type:              string(b.Type),
			Depth:             b.Depth,
			Text:              b.Text,
			InlineStyleRanges: make([]RawStyleRange, 0, len(b.InlineStyleRanges)),
			EntityRanges:      make([]RawEntityRange, 0, len(b.EntityRanges)),
			Data:              map[string]any{},
		}

		for _, sr := range b.InlineStyleRanges {
			rb.InlineStyleRanges = append(rb.InlineStyleRanges, RawStyleRange{Style: string(sr.Style), Offset: sr.Offset, Length: sr.Length})
		}

		for _, er := range b.EntityRanges {
			n, ok := rawKeys[er.Key]
			if !ok {
				e, err := store.Get(er.Key)
				if err != nil {
					return nil, fmt.Errorf("block %s: %w", b.Key, err)
				}
				n = len(rawKeys)
				rawKeys[er.Key] = n
				raw.EntityMap[strconv.Itoa(n)] = RawEntity{
					Type:       string(e.Type),
					Mutability: string(e.Mutability),
					Data:       e.Data,
				}
			}
			rb.EntityRanges = append(rb.EntityRanges, RawEntityRange{Key: n, Offset: er.Offset, Length: er.Length})
		}

		raw.Blocks = append(raw.Blocks, rb)
	}

	return raw, nil
}
