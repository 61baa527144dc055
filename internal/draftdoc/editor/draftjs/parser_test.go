package draftjs

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRaw = `{
	"blocks": [
		{"key": "a1b2c", "type": "header-two", "depth": 0, "text": "Заголовок", "inlineStyleRanges": [], "entityRanges": [], "data": {}},
		{"key": "d3e4f", "type": "unstyled", "depth": 0, "text": "Привет мир",
			"inlineStyleRanges": [{"style": "BOLD", "offset": 0, "length": 6}, {"style": "ITALIC", "offset": 3, "length": 7}],
			"entityRanges": [{"key": 3, "offset": 7, "length": 3}], "data": {}},
		{"key": "g5h6i", "type": "atomic", "depth": 0, "text": " ", "inlineStyleRanges": [],
			"entityRanges": [{"key": 7, "offset": 0, "length": 1}], "data": {}}
	],
	"entityMap": {
		"3": {"type": "LINK", "mutability": "MUTABLE", "data": {"url": "https://example.com"}},
		"7": {"type": "image", "mutability": "IMMUTABLE", "data": {"src": "https://cdn/a.png", "name": "a.png"}},
		"9": {"type": "youtube", "mutability": "IMMUTABLE", "data": {"src": "unused"}}
	}
}`

func TestParseJSON(t *testing.T) {
	doc, err := ParseJSON(strings.NewReader(sampleRaw))
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 3)

	assert.Equal(t, edtypes.HeaderTwo, doc.Blocks[0].Type)
	assert.Equal(t, "d3e4f", doc.Blocks[1].Key)
	assert.Equal(t, []edtypes.StyleRange{
		{Style: edtypes.Bold, Offset: 0, Length: 6},
		{Style: edtypes.Italic, Offset: 3, Length: 7},
	}, doc.Blocks[1].InlineStyleRanges)

	linkKey, ok := doc.Blocks[1].EntityAt(8)
	require.True(t, ok)
	link, err := doc.Entities.Get(linkKey)
	require.NoError(t, err)
	assert.Equal(t, edtypes.LinkEntity, link.Type)
	assert.Equal(t, edtypes.Mutable, link.Mutability)
	assert.Equal(t, "https://example.com", link.Data.String("url"))

	imgKey, ok := doc.Blocks[2].EntityAt(0)
	require.True(t, ok)
	img, err := doc.Entities.Get(imgKey)
	require.NoError(t, err)
	assert.Equal(t, edtypes.ImageEntity, img.Type)
	assert.Equal(t, "a.png", img.Data.String("name"))
}

func TestParseJSONMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"dangling entity key", `{"blocks": [{"key": "a", "type": "atomic", "text": " ", "entityRanges": [{"key": 5, "offset": 0, "length": 1}]}], "entityMap": {}}`},
		{"blocks not a sequence", `{"blocks": {"key": "a"}, "entityMap": {}}`},
		{"missing blocks", `{"entityMap": {}}`},
		{"style out of bounds", `{"blocks": [{"key": "a", "type": "unstyled", "text": "abc", "inlineStyleRanges": [{"style": "BOLD", "offset": 2, "length": 5}]}], "entityMap": {}}`},
		{"negative offset", `{"blocks": [{"key": "a", "type": "unstyled", "text": "abc", "inlineStyleRanges": [{"style": "BOLD", "offset": -1, "length": 1}]}], "entityMap": {}}`},
		{"unknown style", `{"blocks": [{"key": "a", "type": "unstyled", "text": "abc", "inlineStyleRanges": [{"style": "STRIKETHROUGH", "offset": 0, "length": 1}]}], "entityMap": {}}`},
		{"unknown entity type", `{"blocks": [], "entityMap": {"0": {"type": "vimeo", "mutability": "IMMUTABLE", "data": {}}}}`},
		{"non numeric entity key", `{"blocks": [], "entityMap": {"x": {"type": "image", "mutability": "IMMUTABLE", "data": {}}}}`},
		{"duplicate block key", `{"blocks": [{"key": "a", "type": "unstyled", "text": ""}, {"key": "a", "type": "unstyled", "text": ""}], "entityMap": {}}`},
		{"overlapping entities", `{"blocks": [{"key": "a", "type": "unstyled", "text": "abcd", "entityRanges": [{"key": 0, "offset": 0, "length": 3}, {"key": 0, "offset": 2, "length": 2}]}], "entityMap": {"0": {"type": "link", "mutability": "MUTABLE", "data": {"url": "x"}}}}`},
		{"not json", `{"blocks": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseJSON(strings.NewReader(tt.raw))
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, apierrors.ErrMalformedDocument)
		})
	}
}

func TestParseJSONInvalidEntityTypeIsReported(t *testing.T) {
	_, err := ParseJSON(strings.NewReader(`{"blocks": [], "entityMap": {"0": {"type": "vimeo", "data": {}}}}`))
	assert.ErrorIs(t, err, apierrors.ErrMalformedDocument)
	assert.ErrorIs(t, err, apierrors.ErrInvalidEntityType)
}

func TestParseJSONUTF16Offsets(t *testing.T) {
	// эмодзи занимает две UTF-16 единицы
	raw := `{"blocks": [{"key": "a", "type": "unstyled", "text": "😀ab", "inlineStyleRanges": [{"style": "BOLD", "offset": 0, "length": 4}]}], "entityMap": {}}`
	doc, err := ParseJSON(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 4, doc.Blocks[0].Len())
}

func TestParseJSONMergesDuplicateStyles(t *testing.T) {
	raw := `{"blocks": [{"key": "a", "type": "unstyled", "text": "abcdef",
		"inlineStyleRanges": [{"style": "BOLD", "offset": 0, "length": 3}, {"style": "BOLD", "offset": 2, "length": 2}]}], "entityMap": {}}`
	doc, err := ParseJSON(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, []edtypes.StyleRange{{Style: edtypes.Bold, Offset: 0, Length: 4}}, doc.Blocks[0].InlineStyleRanges)
}

func TestToRawRenumbersEntities(t *testing.T) {
	doc, err := ParseJSON(strings.NewReader(sampleRaw))
	require.NoError(t, err)

	raw, err := ToRaw(doc)
	require.NoError(t, err)

	// youtube сущность ни на что не ссылается
	assert.Len(t, raw.EntityMap, 2)
	assert.Equal(t, "link", raw.EntityMap["0"].Type)
	assert.Equal(t, "image", raw.EntityMap["1"].Type)
	assert.Equal(t, 0, raw.Blocks[1].EntityRanges[0].Key)
	assert.Equal(t, 1, raw.Blocks[2].EntityRanges[0].Key)
	assert.Equal(t, "https://cdn/a.png", raw.EntityMap["1"].Data["src"])
}

func TestRoundTrip(t *testing.T) {
	doc, err := ParseJSON(strings.NewReader(sampleRaw))
	require.NoError(t, err)

	first, err := Serialize(doc)
	require.NoError(t, err)

	again, err := ParseJSON(strings.NewReader(string(first)))
	require.NoError(t, err)

	second, err := Serialize(again)
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
	require.Len(t, again.Blocks, len(doc.Blocks))
	for i := range doc.Blocks {
		assert.Equal(t, doc.Blocks[i].Key, again.Blocks[i].Key)
		assert.Equal(t, doc.Blocks[i].Text, again.Blocks[i].Text)
		assert.Equal(t, doc.Blocks[i].InlineStyleRanges, again.Blocks[i].InlineStyleRanges)
	}
}

func TestSerializeEmptyRanges(t *testing.T) {
	doc := edtypes.NewDocument()
	b, err := Serialize(doc)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	block := raw["blocks"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{}, block["inlineStyleRanges"])
	assert.Equal(t, []any{}, block["entityRanges"])
	assert.Equal(t, map[string]any{}, raw["entityMap"])
}

func TestDocumentJSONHooks(t *testing.T) {
	var doc edtypes.Document
	require.NoError(t, json.Unmarshal([]byte(sampleRaw), &doc))
	assert.Len(t, doc.Blocks, 3)

	b, err := json.Marshal(&doc)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"entityMap"`)

	v, err := doc.Value()
	require.NoError(t, err)

	var scanned edtypes.Document
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, doc.PlainText(), scanned.PlainText())
}
