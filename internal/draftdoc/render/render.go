// Пакет render строит HTML представление документа для просмотра.
//
// Блоки документа группируются (GroupBlocks), каждая группа рисуется правилом своего типа,
// текст блока режется на сегменты по границам стилей и сущностей, сущности рисуются правилами своих типов.
// Результат - дерево golang.org/x/net/html, RenderString сериализует его в HTML фрагмент.
package render

import (
	"fmt"
	"strings"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var styleTags = map[edtypes.InlineStyle]atom.Atom{
	edtypes.Bold:      atom.Strong,
	edtypes.Italic:    atom.Em,
	edtypes.Underline: atom.U,
	edtypes.Code:      atom.Code,
}

type Renderer struct {
	doc *edtypes.Document
}

func NewRenderer(doc *edtypes.Document) *Renderer {
	return &Renderer{doc: doc}
}

// Render строит разметку документа. Неизвестные типы блоков и сущностей возвращают apierrors.ErrUnrenderableType.
func Render(doc *edtypes.Document) ([]*html.Node, error) {
	return NewRenderer(doc).Render()
}

// RenderString строит разметку документа и сериализует ее в HTML.
func RenderString(doc *edtypes.Document) (string, error) {
	nodes, err := Render(doc)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, n := range nodes {
		if err := html.Render(&sb, n); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func (r *Renderer) Render() ([]*html.Node, error) {
	var res []*html.Node
	for _, g := range GroupBlocks(r.doc.Blocks) {
		nodes, err := r.RenderGroup(g)
		if err != nil {
			return nil, err
		}
		res = append(res, nodes...)
	}
	return res, nil
}

func (r *Renderer) RenderGroup(g Group) ([]*html.Node, error) {
	rule, err := blockRuleFor(g.Type)
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", r.doc.Blocks[g.Start].Key, err)
	}
	return rule.renderGroup(r, g)
}

// RenderInline рисует текст блока: стили вкладываются в порядке edtypes.StyleOrder, сущности отдаются своим правилам.
func (r *Renderer) RenderInline(b *edtypes.Block) ([]*html.Node, error) {
	var res []*html.Node
	for _, run := range EntityRuns(Segments(b)) {
		children := styledNodes(run.Segments)
		if !run.HasEntity {
			res = append(res, children...)
			continue
		}

		entity, err := r.doc.Entities.Get(run.Entity)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.Key, err)
		}
		rule, err := entityRuleFor(entity.Type)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.Key, err)
		}
		nodes, err := rule.renderEntity(entity, children)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.Key, err)
		}
		res = append(res, nodes...)
	}
	return res, nil
}

// styledNodes оборачивает сегменты в теги стилей. Соседние сегменты с общим префиксом стилей делят обертки.
func styledNodes(segments []Segment) []*html.Node {
	root := &html.Node{Type: html.DocumentNode}
	type open struct {
		style edtypes.InlineStyle
		node  *html.Node
	}
	var stack []open

	for _, s := range segments {
		common := 0
		for common < len(stack) && common < len(s.Styles) && stack[common].style == s.Styles[common] {
			common++
		}
		stack = stack[:common]

		parent := root
		if common > 0 {
			parent = stack[common-1].node
		}
		for _, style := range s.Styles[common:] {
			el := element(styleTags[style])
			parent.AppendChild(el)
			stack = append(stack, open{style: style, node: el})
			parent = el
		}
		parent.AppendChild(textNode(s.Text))
	}

	return detachChildren(root)
}

func detachChildren(parent *html.Node) []*html.Node {
	var res []*html.Node
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		parent.RemoveChild(c)
		res = append(res, c)
		c = next
	}
	return res
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func appendAll(parent *html.Node, children []*html.Node) {
	for _, c := range children {
		parent.AppendChild(c)
	}
}

func unrenderable(kind string, t any) error {
	return fmt.Errorf("%w: %s %q", apierrors.ErrUnrenderableType, kind, t)
}
