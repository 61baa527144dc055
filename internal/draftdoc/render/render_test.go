package render

import (
	"strings"
	"testing"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/draftjs"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRaw = `{
	"blocks": [
		{"key": "k01", "type": "header-two", "text": "Title"},
		{"key": "k02", "type": "unstyled", "text": "Hello bold world",
			"inlineStyleRanges": [{"style": "ITALIC", "offset": 6, "length": 10}, {"style": "BOLD", "offset": 6, "length": 4}]},
		{"key": "k03", "type": "unstyled", "text": "see link",
			"entityRanges": [{"key": 0, "offset": 4, "length": 4}]},
		{"key": "k04", "type": "blockquote", "text": "q1"},
		{"key": "k05", "type": "blockquote", "text": "q2"},
		{"key": "k06", "type": "unordered-list-item", "depth": 0, "text": "a"},
		{"key": "k07", "type": "unordered-list-item", "depth": 1, "text": "b"},
		{"key": "k08", "type": "unordered-list-item", "depth": 0, "text": "c"},
		{"key": "k09", "type": "atomic", "text": " ", "entityRanges": [{"key": 1, "offset": 0, "length": 1}]},
		{"key": "k10", "type": "atomic", "text": " ", "entityRanges": [{"key": 2, "offset": 0, "length": 1}]},
		{"key": "k11", "type": "atomic", "text": " ", "entityRanges": [{"key": 3, "offset": 0, "length": 1}]},
		{"key": "k12", "type": "code-block", "text": "x := 1"},
		{"key": "k13", "type": "code-block", "text": "y := <2>"}
	],
	"entityMap": {
		"0": {"type": "LINK", "mutability": "MUTABLE", "data": {"url": "https://example.com"}},
		"1": {"type": "youtube", "mutability": "IMMUTABLE", "data": {"src": "XYZ"}},
		"2": {"type": "image", "mutability": "IMMUTABLE", "data": {"src": "", "name": "a.png"}},
		"3": {"type": "163-music-song", "mutability": "IMMUTABLE", "data": {"src": "186016"}}
	}
}`

const sampleHTML = `<h2>Title</h2>` +
	`<p>Hello <strong><em>bold</em></strong><em> world</em></p>` +
	`<p>see <a href="https://example.com" target="_blank" rel="nofollow">link</a></p>` +
	`<blockquote>q1<br/>q2</blockquote>` +
	`<ul><li>a<ul><li>b</li></ul></li><li>c</li></ul>` +
	`<iframe src="https://www.youtube.com/embed/XYZ" frameborder="0" allowfullscreen=""></iframe>` +
	`<br/><img alt="a.png" data-pending="true"/>` +
	`<br/><iframe src="//music.163.com/outchain/player?type=2&amp;id=186016&amp;auto=1&amp;height=66" width="auto" height="86" frameborder="0" allowfullscreen=""></iframe>` +
	`<pre>x := 1<br/>y := &lt;2&gt;</pre>`

func loadSample(t *testing.T) *edtypes.Document {
	t.Helper()
	doc, err := draftjs.ParseJSON(strings.NewReader(sampleRaw))
	require.NoError(t, err)
	return doc
}

func blocksOf(types []edtypes.BlockType, depths ...int) []edtypes.Block {
	res := make([]edtypes.Block, len(types))
	for i, t := range types {
		res[i] = edtypes.Block{Key: string(rune('a' + i)), Type: t}
		if i < len(depths) {
			res[i].Depth = depths[i]
		}
	}
	return res
}

func TestGroupBlocks(t *testing.T) {
	q, u := edtypes.Blockquote, edtypes.Unstyled
	groups := GroupBlocks(blocksOf([]edtypes.BlockType{q, q, u, q}))
	assert.Equal(t, []Group{
		{Type: q, Start: 0, End: 2},
		{Type: u, Start: 2, End: 3},
		{Type: q, Start: 3, End: 4},
	}, groups)

	assert.Len(t, GroupBlocks(blocksOf([]edtypes.BlockType{u, u, u})), 3)
	assert.Len(t, GroupBlocks(blocksOf([]edtypes.BlockType{edtypes.Atomic, edtypes.Atomic})), 1)
	assert.Empty(t, GroupBlocks(nil))
}

func TestGroupBlocksListDepthJump(t *testing.T) {
	ul := edtypes.UnorderedListItem
	groups := GroupBlocks(blocksOf([]edtypes.BlockType{ul, ul, ul, ul}, 0, 1, 3, 0))
	assert.Equal(t, []Group{
		{Type: ul, Start: 0, End: 2},
		{Type: ul, Start: 2, End: 4},
	}, groups)

	groups = GroupBlocks(blocksOf([]edtypes.BlockType{ul, edtypes.OrderedListItem}))
	assert.Len(t, groups, 2)
}

func TestBuildForest(t *testing.T) {
	ul := edtypes.UnorderedListItem
	blocks := blocksOf([]edtypes.BlockType{ul, ul, ul, ul, ul}, 0, 1, 1, 0, 1)
	groups := GroupBlocks(blocks)
	require.Len(t, groups, 1)

	f := BuildForest(blocks, groups[0])
	require.Len(t, f.Roots, 2)

	first, second := f.Nodes[f.Roots[0]], f.Nodes[f.Roots[1]]
	assert.Equal(t, 0, first.Block)
	assert.Equal(t, 3, second.Block)
	require.Len(t, first.Children, 2)
	require.Len(t, second.Children, 1)
	assert.Equal(t, 1, f.Nodes[first.Children[0]].Block)
	assert.Equal(t, 2, f.Nodes[first.Children[1]].Block)
	assert.Equal(t, 4, f.Nodes[second.Children[0]].Block)
}

func TestBuildForestClampsDepth(t *testing.T) {
	ul := edtypes.UnorderedListItem
	blocks := blocksOf([]edtypes.BlockType{ul, ul, ul}, 2, 4, 1)

	f := BuildForest(blocks, Group{Type: ul, Start: 0, End: 3})
	// глубина 1 после 2 и 4 становится корнем, 4 - ребенком 2
	assert.Len(t, f.Roots, 2)
	assert.Equal(t, []int{1}, f.Nodes[f.Roots[0]].Children)
	assert.Empty(t, f.Nodes[f.Roots[1]].Children)
}

func TestRenderString(t *testing.T) {
	res, err := RenderString(loadSample(t))
	require.NoError(t, err)
	assert.Equal(t, sampleHTML, res)
}

func TestRenderRoundTrip(t *testing.T) {
	doc := loadSample(t)
	want, err := RenderString(doc)
	require.NoError(t, err)

	raw, err := draftjs.ToRaw(doc)
	require.NoError(t, err)
	again, err := draftjs.FromRaw(raw)
	require.NoError(t, err)

	got, err := RenderString(again)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRenderImportRoundTrip(t *testing.T) {
	imported, err := editor.ParseDocument(strings.NewReader(sampleHTML))
	require.NoError(t, err)

	got, err := RenderString(imported)
	require.NoError(t, err)
	assert.Equal(t, sampleHTML, got)
}

func TestRenderStyleOrderIsStable(t *testing.T) {
	newDoc := func(ranges ...edtypes.StyleRange) *edtypes.Document {
		return &edtypes.Document{
			Blocks:   []edtypes.Block{{Key: "a", Type: edtypes.Unstyled, Text: "abc", InlineStyleRanges: ranges}},
			Entities: edtypes.NewEntityStore(),
		}
	}
	u := edtypes.StyleRange{Style: edtypes.Underline, Offset: 0, Length: 3}
	b := edtypes.StyleRange{Style: edtypes.Bold, Offset: 0, Length: 3}
	c := edtypes.StyleRange{Style: edtypes.Code, Offset: 1, Length: 1}

	first, err := RenderString(newDoc(u, c, b))
	require.NoError(t, err)
	second, err := RenderString(newDoc(c, b, u))
	require.NoError(t, err)

	assert.Equal(t, `<p><strong><u>a<code>b</code>c</u></strong></p>`, first)
	assert.Equal(t, first, second)
}

func TestRenderUnrenderable(t *testing.T) {
	doc := &edtypes.Document{
		Blocks:   []edtypes.Block{{Key: "a", Type: "header-one", Text: "x"}},
		Entities: edtypes.NewEntityStore(),
	}
	_, err := Render(doc)
	assert.ErrorIs(t, err, apierrors.ErrUnrenderableType)

	_, err = entityRuleFor("vimeo")
	assert.ErrorIs(t, err, apierrors.ErrUnrenderableType)
}

func TestRenderDanglingEntity(t *testing.T) {
	doc := &edtypes.Document{
		Blocks:   []edtypes.Block{{Key: "a", Type: edtypes.Atomic, Text: " ", EntityRanges: []edtypes.EntityRange{{Key: 42, Length: 1}}}},
		Entities: edtypes.NewEntityStore(),
	}
	_, err := Render(doc)
	assert.ErrorIs(t, err, apierrors.ErrUnknownEntityKey)
}

func TestRenderAfterPendingImageResolved(t *testing.T) {
	doc := edtypes.NewDocument()
	ed := editor.New(doc)
	_, _, err := ed.InsertMedia(edtypes.Position{}, []editor.MediaItem{{Type: edtypes.ImageEntity, Name: "a.png"}})
	require.NoError(t, err)

	before, err := RenderString(doc)
	require.NoError(t, err)
	assert.Contains(t, before, `data-pending="true"`)

	_, err = ed.ResolvePendingImage(editor.FileDescriptor{Name: "a.png"}, "https://cdn/a.png")
	require.NoError(t, err)

	after, err := RenderString(doc)
	require.NoError(t, err)
	assert.Equal(t, `<img src="https://cdn/a.png" alt="a.png"/><p></p>`, after)
}

func TestRenderAtomicLink(t *testing.T) {
	doc := edtypes.NewDocument()
	key, err := doc.Entities.Create(edtypes.LinkEntity, edtypes.Mutable, edtypes.EntityData{"src": "https://example.com"})
	require.NoError(t, err)
	doc.Blocks = []edtypes.Block{{Key: "a", Type: edtypes.Atomic, Text: " ", EntityRanges: []edtypes.EntityRange{{Key: key, Length: 1}}}}

	res, err := RenderString(doc)
	require.NoError(t, err)
	assert.Equal(t, `<a href="https://example.com" target="_blank" rel="nofollow">https://example.com</a>`, res)
}

func TestRenderNumericMediaID(t *testing.T) {
	raw := `{"blocks": [{"key": "a", "type": "atomic", "text": " ", "depth": 0, "inlineStyleRanges": [],
		"entityRanges": [{"key": 0, "offset": 0, "length": 1}]}],
		"entityMap": {"0": {"type": "163-music-song", "mutability": "IMMUTABLE", "data": {"src": 186016}}}}`
	doc, err := draftjs.ParseJSON(strings.NewReader(raw))
	require.NoError(t, err)

	res, err := RenderString(doc)
	require.NoError(t, err)
	assert.Contains(t, res, "id=186016&amp;")
}

func TestRenderNilEntityStore(t *testing.T) {
	doc := &edtypes.Document{
		Blocks: []edtypes.Block{{Key: "a", Type: edtypes.Unstyled, Text: "x", EntityRanges: []edtypes.EntityRange{{Key: 1, Length: 1}}}},
	}
	assert.NotPanics(t, func() {
		_, err := RenderString(doc)
		assert.ErrorIs(t, err, apierrors.ErrUnknownEntityKey)
	})

	doc.Blocks[0].EntityRanges = nil
	res, err := RenderString(doc)
	require.NoError(t, err)
	assert.Equal(t, `<p>x</p>`, res)
}

func TestRenderStyleInsideSurrogatePair(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		ranges []edtypes.StyleRange
		want   string
	}{
		{"low half", "😀", []edtypes.StyleRange{{Style: edtypes.Bold, Offset: 1, Length: 1}}, `<p><strong>😀</strong></p>`},
		{"high half", "a😀b", []edtypes.StyleRange{{Style: edtypes.Italic, Offset: 0, Length: 2}}, `<p><em>a😀</em>b</p>`},
		{"whole pair", "a😀b", []edtypes.StyleRange{{Style: edtypes.Bold, Offset: 1, Length: 2}}, `<p>a<strong>😀</strong>b</p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &edtypes.Document{
				Blocks:   []edtypes.Block{{Key: "a", Type: edtypes.Unstyled, Text: tt.text, InlineStyleRanges: tt.ranges}},
				Entities: edtypes.NewEntityStore(),
			}
			res, err := RenderString(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
			assert.NotContains(t, res, "�")
		})
	}
}
