package draftjs_test

import (
	"fmt"
	"strings"

	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/draftjs"
)

// ExampleParseJSON демонстрирует загрузку raw документа draft-js.
func ExampleParseJSON() {
	raw := `{
		"blocks": [
			{"key": "k1", "type": "unstyled", "depth": 0, "text": "Привет",
				"inlineStyleRanges": [{"style": "BOLD", "offset": 0, "length": 6}], "entityRanges": []},
			{"key": "k2", "type": "atomic", "depth": 0, "text": " ",
				"inlineStyleRanges": [], "entityRanges": [{"key": 0, "offset": 0, "length": 1}]}
		],
		"entityMap": {
			"0": {"type": "youtube", "mutability": "IMMUTABLE", "data": {"src": "XYZ"}}
		}
	}`

	doc, err := draftjs.ParseJSON(strings.NewReader(raw))
	if err != nil {
		fmt.Printf("Ошибка парсинга: %v\n", err)
		return
	}

	fmt.Printf("Документ содержит %d блока\n", len(doc.Blocks))
	for _, key := range doc.Entities.Keys() {
		e, _ := doc.Entities.Get(key)
		fmt.Println(e.Type, e.Data.String("src"))
	}

	// Output:
	// Документ содержит 2 блока
	// youtube XYZ
}
