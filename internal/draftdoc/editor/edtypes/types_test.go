package edtypes

import (
	"encoding/json"
	"testing"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityStore(t *testing.T) {
	s := NewEntityStore()

	k1, err := s.Create(ImageEntity, Immutable, EntityData{"name": "a.png", "src": ""})
	require.NoError(t, err)
	k2, err := s.Create(LinkEntity, Mutable, EntityData{"url": "https://example.com"})
	require.NoError(t, err)
	assert.Greater(t, k2, k1)

	_, err = s.Create("vimeo", Immutable, nil)
	assert.ErrorIs(t, err, apierrors.ErrInvalidEntityType)

	_, err = s.Get(100)
	assert.ErrorIs(t, err, apierrors.ErrUnknownEntityKey)
	assert.ErrorIs(t, s.UpdateData(100, EntityData{}), apierrors.ErrUnknownEntityKey)

	require.NoError(t, s.UpdateData(k1, EntityData{"src": "https://cdn/a.png"}))
	e, err := s.Get(k1)
	require.NoError(t, err)
	assert.Equal(t, EntityData{"name": "a.png", "src": "https://cdn/a.png"}, e.Data)

	// копия не связана с хранилищем
	e.Data["src"] = "changed"
	e, _ = s.Get(k1)
	assert.Equal(t, "https://cdn/a.png", e.Data.String("src"))

	assert.Equal(t, []EntityKey{k1, k2}, s.Keys())
}

func TestEntityStoreDefaultMutability(t *testing.T) {
	s := NewEntityStore()
	k, err := s.Create(YoutubeEntity, "", EntityData{"src": "XYZ"})
	require.NoError(t, err)
	e, _ := s.Get(k)
	assert.Equal(t, Immutable, e.Mutability)
}

func TestParseEntityType(t *testing.T) {
	et, ok := ParseEntityType("LINK")
	assert.True(t, ok)
	assert.Equal(t, LinkEntity, et)

	_, ok = ParseEntityType("vimeo")
	assert.False(t, ok)

	assert.True(t, MusicPlaylistEntity.IsMedia())
	assert.False(t, LinkEntity.IsMedia())
}

func TestTextHelpers(t *testing.T) {
	assert.Equal(t, 6, TextLen("Привет"))
	assert.Equal(t, 3, TextLen("😀a"))
	assert.Equal(t, "a", SliceText("😀a", 2, 3))
	assert.Equal(t, "ив", SliceText("Привет", 2, 4))
	assert.Equal(t, "", SliceText("abc", 5, 9))

	head, tail := SplitText("Привет", 3)
	assert.Equal(t, "При", head)
	assert.Equal(t, "вет", tail)
}

func TestNormalizeStyleRanges(t *testing.T) {
	res := NormalizeStyleRanges([]StyleRange{
		{Style: Italic, Offset: 4, Length: 2},
		{Style: Bold, Offset: 3, Length: 2},
		{Style: Bold, Offset: 0, Length: 3},
		{Style: Underline, Offset: 1, Length: 0},
	})
	assert.Equal(t, []StyleRange{
		{Style: Bold, Offset: 0, Length: 5},
		{Style: Italic, Offset: 4, Length: 2},
	}, res)
}

func TestBlockStylesAt(t *testing.T) {
	b := Block{Text: "abcdef", InlineStyleRanges: []StyleRange{
		{Style: Underline, Offset: 0, Length: 4},
		{Style: Bold, Offset: 2, Length: 2},
	}}
	assert.Equal(t, []InlineStyle{Underline}, b.StylesAt(0))
	assert.Equal(t, []InlineStyle{Bold, Underline}, b.StylesAt(2))
	assert.Nil(t, b.StylesAt(5))
}

func TestNewDocument(t *testing.T) {
	d := NewDocument()
	require.Len(t, d.Blocks, 1)
	assert.Equal(t, Unstyled, d.Blocks[0].Type)
	assert.Len(t, d.Blocks[0].Key, 5)
	assert.Equal(t, 0, d.BlockIndex(d.Blocks[0].Key))
	assert.Equal(t, -1, d.BlockIndex("nope"))
}

func TestNilEntityStore(t *testing.T) {
	var s *EntityStore

	_, err := s.Get(1)
	assert.ErrorIs(t, err, apierrors.ErrUnknownEntityKey)
	assert.ErrorIs(t, s.UpdateData(1, EntityData{"src": "x"}), apierrors.ErrUnknownEntityKey)
	assert.False(t, s.Has(1))
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Keys())
	assert.Zero(t, s.Clone().Len())
}

func TestEntityDataString(t *testing.T) {
	data := EntityData{
		"str":   "abc",
		"float": float64(186016),
		"num":   json.Number("42"),
		"int":   7,
		"bool":  true,
	}
	assert.Equal(t, "abc", data.String("str"))
	assert.Equal(t, "186016", data.String("float"))
	assert.Equal(t, "42", data.String("num"))
	assert.Equal(t, "7", data.String("int"))
	assert.Empty(t, data.String("bool"))
	assert.Empty(t, data.String("missing"))
	assert.Empty(t, EntityData(nil).String("str"))
}

func TestGenBlockKeyAvoidsExisting(t *testing.T) {
	doc := NewDocument()
	seen := map[string]bool{doc.Blocks[0].Key: true}
	for range 200 {
		key := doc.GenBlockKey()
		assert.Len(t, key, blockKeyLength)
		assert.False(t, seen[key], key)
		seen[key] = true
		doc.Blocks = append(doc.Blocks, Block{Key: key, Type: Unstyled})
	}
}
