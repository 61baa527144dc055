// Экспорт документов в Markdown и PDF.
//
// Оба экспорта обходят документ так же, как рендер: группы блоков, дерево элементов списка и сегменты стилей.
package export

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
	"github.com/aisa-it/draftdoc/internal/draftdoc/media"
	"github.com/aisa-it/draftdoc/internal/draftdoc/render"
	md "github.com/nao1215/markdown"
)

// DocToMarkdown пишет документ в Markdown. Подчеркивание в Markdown не выражается и опускается.
func DocToMarkdown(doc *edtypes.Document, out io.Writer) error {
	m := md.NewMarkdown(out)

	for _, g := range render.GroupBlocks(doc.Blocks) {
		blocks := doc.Blocks[g.Start:g.End]
		switch g.Type {
		case edtypes.HeaderTwo:
			for i := range blocks {
				m.H2(markdownInline(doc, &blocks[i]))
			}
		case edtypes.Blockquote:
			lines := make([]string, len(blocks))
			for i := range blocks {
				lines[i] = markdownInline(doc, &blocks[i])
			}
			m.Blockquote(strings.Join(lines, "\n"))
		case edtypes.CodeBlock:
			lines := make([]string, len(blocks))
			for i, b := range blocks {
				lines[i] = b.Text
			}
			m.CodeBlocks(md.SyntaxHighlight(""), strings.Join(lines, "\n"))
		case edtypes.UnorderedListItem, edtypes.OrderedListItem:
			forest := render.BuildForest(doc.Blocks, g)
			var lines []string
			markdownList(doc, forest, forest.Roots, g.Type == edtypes.OrderedListItem, 0, &lines)
			m.PlainText(strings.Join(lines, "\n"))
		case edtypes.Atomic:
			for i := range blocks {
				m.PlainText(markdownAtomic(doc, &blocks[i]))
			}
		default:
			for i := range blocks {
				m.PlainText(markdownInline(doc, &blocks[i]))
			}
		}
		m.PlainText("")
	}

	return m.Build()
}

func markdownList(doc *edtypes.Document, forest render.Forest, items []int, ordered bool, level int, lines *[]string) {
	for n, item := range items {
		node := forest.Nodes[item]
		marker := "-"
		if ordered {
			marker = fmt.Sprintf("%d.", n+1)
		}
		*lines = append(*lines, strings.Repeat("  ", level)+marker+" "+markdownInline(doc, &doc.Blocks[node.Block]))
		markdownList(doc, forest, node.Children, ordered, level+1, lines)
	}
}

func markdownInline(doc *edtypes.Document, b *edtypes.Block) string {
	var sb strings.Builder
	for _, run := range render.EntityRuns(render.Segments(b)) {
		var text strings.Builder
		for _, s := range run.Segments {
			text.WriteString(markdownStyled(s))
		}

		url := ""
		if run.HasEntity {
			if e, err := doc.Entities.Get(run.Entity); err == nil && e.Type == edtypes.LinkEntity {
				url = entityURL(e)
			}
		}
		if url != "" {
			sb.WriteString(md.Link(text.String(), url))
		} else {
			sb.WriteString(text.String())
		}
	}
	return sb.String()
}

func markdownStyled(s render.Segment) string {
	text := s.Text
	if strings.TrimSpace(text) == "" {
		return text
	}
	if slices.Contains(s.Styles, edtypes.Code) {
		text = md.Code(text)
	}
	if slices.Contains(s.Styles, edtypes.Italic) {
		text = md.Italic(text)
	}
	if slices.Contains(s.Styles, edtypes.Bold) {
		text = md.Bold(text)
	}
	return text
}

func markdownAtomic(doc *edtypes.Document, b *edtypes.Block) string {
	key, ok := b.EntityAt(0)
	if !ok {
		return b.Text
	}
	e, err := doc.Entities.Get(key)
	if err != nil {
		return ""
	}

	switch e.Type {
	case edtypes.LinkEntity:
		url := entityURL(e)
		return md.Link(url, url)
	case edtypes.TudouEntity:
		return fmt.Sprintf("%s: %s", e.Type, e.Data.String("src"))
	}

	d, err := media.Resolve(e)
	if err != nil {
		return ""
	}
	switch d.Kind {
	case media.KindImage:
		return md.Image(d.Name, d.URL)
	case media.KindPending:
		return pendingLabel(d.Name)
	default:
		return md.Link(string(d.Type), absoluteURL(d.URL))
	}
}

func entityURL(e edtypes.Entity) string {
	if url := e.Data.String("url"); url != "" {
		return url
	}
	return e.Data.String("src")
}

// absoluteURL дополняет схему у адресов вида //host/path.
func absoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

func pendingLabel(name string) string {
	return "<загрузка " + name + ">"
}
