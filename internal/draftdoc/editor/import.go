package editor

import (
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
	"github.com/aisa-it/draftdoc/internal/draftdoc/media"
	"golang.org/x/net/html"
)

// Атрибуты div заглушек медиа, которые оставляет рендер redraft
var mediaDataAttrs = map[string]edtypes.EntityType{
	"data-youku":            edtypes.YoukuEntity,
	"data-tudou":            edtypes.TudouEntity,
	"data-qq":               edtypes.QQEntity,
	"data-youtube":          edtypes.YoutubeEntity,
	"data-163musicsong":     edtypes.MusicSongEntity,
	"data-163musicplaylist": edtypes.MusicPlaylistEntity,
}

// ParseDocument импортирует HTML фрагмент в блочную модель.
// Понимает разметку, которую строит рендер документа, и типовую вставку из буфера обмена.
func ParseDocument(r io.Reader) (*edtypes.Document, error) {
	rootNode, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	p := &importer{doc: &edtypes.Document{Entities: edtypes.NewEntityStore()}}
	if body := getBody(rootNode); body != nil {
		for el := body.FirstChild; el != nil; el = el.NextSibling {
			p.parseTopLevel(el)
		}
	}

	if len(p.doc.Blocks) == 0 {
		p.doc.Blocks = append(p.doc.Blocks, edtypes.Block{Key: p.doc.GenBlockKey(), Type: edtypes.Unstyled})
	}
	return p.doc, nil
}

type importer struct {
	doc *edtypes.Document

	// текущая строка
	blockType edtypes.BlockType
	depth     int
	code      bool
	text      strings.Builder
	textLen   int
	styles    []edtypes.StyleRange
	entities  []edtypes.EntityRange
	emitted   bool
}

func (p *importer) parseTopLevel(el *html.Node) {
	switch el.Type {
	case html.TextNode:
		if strings.TrimSpace(el.Data) != "" {
			p.parseLines(el, edtypes.Unstyled, 0)
		}
		return
	case html.ElementNode:
	default:
		return
	}

	switch el.Data {
	case "p":
		p.parseLines(el, edtypes.Unstyled, 0)
	case "h1", "h2", "h3", "h4", "h5", "h6":
		p.parseLines(el, edtypes.HeaderTwo, 0)
	case "blockquote":
		paragraphs := false
		for child := el.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && child.Data == "p" {
				paragraphs = true
				p.parseLines(child, edtypes.Blockquote, 0)
			}
		}
		if !paragraphs {
			p.parseLines(el, edtypes.Blockquote, 0)
		}
	case "pre":
		p.parseLines(el, edtypes.CodeBlock, 0)
	case "ul", "ol":
		p.parseList(el, 0)
	case "img":
		p.addImage(el)
	case "iframe":
		p.addFrame(el)
	case "br":
	case "div", "section", "article", "main":
		for attr, t := range mediaDataAttrs {
			if attrExists(attr, el.Attr) {
				p.addAtomic(t, edtypes.EntityData{"src": getAttrValue(attr, el.Attr)})
				return
			}
		}
		for child := el.FirstChild; child != nil; child = child.NextSibling {
			p.parseTopLevel(child)
		}
	default:
		slog.Debug("Import unknown top level element as paragraph", "tag", el.Data)
		p.parseLines(el, edtypes.Unstyled, 0)
	}
}

func (p *importer) parseList(root *html.Node, depth int) {
	t := edtypes.UnorderedListItem
	if root.Data == "ol" {
		t = edtypes.OrderedListItem
	}

	for li := root.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}

		p.startLine(t, depth)
		var nested []*html.Node
		for child := li.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && (child.Data == "ul" || child.Data == "ol") {
				nested = append(nested, child)
				continue
			}
			p.walk(child, nil, 0)
		}
		p.flush(!p.emitted)

		for _, n := range nested {
			p.parseList(n, depth+1)
		}
	}
}

// parseLines превращает содержимое элемента в блоки типа t, <br> начинает новый блок.
func (p *importer) parseLines(root *html.Node, t edtypes.BlockType, depth int) {
	p.startLine(t, depth)
	if root.Type == html.TextNode {
		p.walk(root, nil, 0)
	} else {
		for child := root.FirstChild; child != nil; child = child.NextSibling {
			p.walk(child, nil, 0)
		}
	}
	p.flush(!p.emitted)
}

func (p *importer) startLine(t edtypes.BlockType, depth int) {
	p.blockType, p.depth = t, depth
	p.code = t == edtypes.CodeBlock
	p.emitted = false
	p.resetLine()
}

func (p *importer) resetLine() {
	p.text.Reset()
	p.textLen = 0
	p.styles, p.entities = nil, nil
}

// flush завершает текущую строку блоком. Пустая строка сохраняется только при force.
func (p *importer) flush(force bool) {
	if p.textLen == 0 && !force {
		return
	}
	p.doc.Blocks = append(p.doc.Blocks, edtypes.Block{
		Key:               p.doc.GenBlockKey(),
		Type:              p.blockType,
		Depth:             p.depth,
		Text:              p.text.String(),
		InlineStyleRanges: edtypes.NormalizeStyleRanges(p.styles),
		EntityRanges:      p.entities,
	})
	p.emitted = true
	p.resetLine()
}

func (p *importer) walk(n *html.Node, styles []edtypes.InlineStyle, link edtypes.EntityKey) {
	if n.Type == html.TextNode {
		data := n.Data
		if p.code {
			lines := strings.Split(data, "\n")
			for i, line := range lines {
				if i > 0 {
					p.flush(true)
				}
				p.appendText(line, styles, link)
			}
			return
		}
		p.appendText(strings.ReplaceAll(data, "\n", " "), styles, link)
		return
	}
	if n.Type != html.ElementNode {
		return
	}

	switch n.Data {
	case "br":
		p.flush(true)
		return
	case "img":
		p.flush(false)
		p.addImage(n)
		return
	case "iframe":
		p.flush(false)
		p.addFrame(n)
		return
	case "strong", "b":
		styles = append(slices.Clone(styles), edtypes.Bold)
	case "em", "i":
		styles = append(slices.Clone(styles), edtypes.Italic)
	case "u":
		styles = append(slices.Clone(styles), edtypes.Underline)
	case "code":
		if !p.code {
			styles = append(slices.Clone(styles), edtypes.Code)
		}
	case "a":
		if href := getAttrValue("href", n.Attr); href != "" {
			key, err := p.doc.Entities.Create(edtypes.LinkEntity, edtypes.Mutable, edtypes.EntityData{"url": href})
			if err == nil {
				link = key
			}
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		p.walk(child, styles, link)
	}
}

func (p *importer) appendText(s string, styles []edtypes.InlineStyle, link edtypes.EntityKey) {
	l := edtypes.TextLen(s)
	if l == 0 {
		return
	}
	offset := p.textLen
	p.text.WriteString(s)
	p.textLen += l

	for _, style := range styles {
		p.styles = append(p.styles, edtypes.StyleRange{Style: style, Offset: offset, Length: l})
	}
	if link != 0 {
		if n := len(p.entities); n > 0 && p.entities[n-1].Key == link && p.entities[n-1].End() == offset {
			p.entities[n-1].Length += l
		} else {
			p.entities = append(p.entities, edtypes.EntityRange{Key: link, Offset: offset, Length: l})
		}
	}
}

func (p *importer) addImage(el *html.Node) {
	data := edtypes.EntityData{"src": getAttrValue("src", el.Attr)}
	if alt := getAttrValue("alt", el.Attr); alt != "" {
		data["name"] = alt
	}
	if getAttrValue("data-pending", el.Attr) == "true" {
		data["src"] = ""
	}
	p.addAtomic(edtypes.ImageEntity, data)
}

func (p *importer) addFrame(el *html.Node) {
	t, id, err := media.Detect(getAttrValue("src", el.Attr))
	if err != nil {
		slog.Debug("Skip unsupported iframe", "src", getAttrValue("src", el.Attr), "err", err)
		return
	}
	p.addAtomic(t, edtypes.EntityData{"src": id})
}

func (p *importer) addAtomic(t edtypes.EntityType, data edtypes.EntityData) {
	key, err := p.doc.Entities.Create(t, edtypes.Immutable, data)
	if err != nil {
		slog.Error("Create imported entity", "type", t, "err", err)
		return
	}
	p.doc.Blocks = append(p.doc.Blocks, edtypes.Block{
		Key:          p.doc.GenBlockKey(),
		Type:         edtypes.Atomic,
		Text:         " ",
		EntityRanges: []edtypes.EntityRange{{Key: key, Offset: 0, Length: 1}},
	})
	p.emitted = true
}

func findElementByTagName(rootNode *html.Node, tagName string) *html.Node {
	var el *html.Node
	iterNodes(rootNode, func(child *html.Node) bool {
		if el != nil {
			return true
		}
		if child.Type == html.ElementNode && child.Data == tagName {
			el = child
			return true
		}
		return false
	})
	return el
}

func getBody(rootNode *html.Node) *html.Node {
	return findElementByTagName(rootNode, "body")
}

func iterNodes(node *html.Node, f func(child *html.Node) bool) {
	if f(node) {
		return
	}
	for p := node.FirstChild; p != nil; p = p.NextSibling {
		iterNodes(p, f)
	}
}

func getAttrValue(key string, attrs []html.Attribute) string {
	for _, attr := range attrs {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func attrExists(key string, attrs []html.Attribute) bool {
	return slices.ContainsFunc(attrs, func(attr html.Attribute) bool {
		return attr.Key == key
	})
}
