package render

import (
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
	"github.com/aisa-it/draftdoc/internal/draftdoc/media"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type blockRule interface {
	renderGroup(r *Renderer, g Group) ([]*html.Node, error)
}

type entityRule interface {
	renderEntity(e edtypes.Entity, children []*html.Node) ([]*html.Node, error)
}

func blockRuleFor(t edtypes.BlockType) (blockRule, error) {
	switch t {
	case edtypes.Unstyled:
		return perBlockRule{tag: atom.P}, nil
	case edtypes.HeaderTwo:
		return perBlockRule{tag: atom.H2}, nil
	case edtypes.Blockquote:
		return containerRule{tag: atom.Blockquote}, nil
	case edtypes.CodeBlock:
		return containerRule{tag: atom.Pre}, nil
	case edtypes.UnorderedListItem:
		return listRule{tag: atom.Ul}, nil
	case edtypes.OrderedListItem:
		return listRule{tag: atom.Ol}, nil
	case edtypes.Atomic:
		return atomicRule{}, nil
	}
	return nil, unrenderable("block type", t)
}

func entityRuleFor(t edtypes.EntityType) (entityRule, error) {
	switch t {
	case edtypes.LinkEntity:
		return linkRule{}, nil
	case edtypes.TudouEntity:
		return tudouRule{}, nil
	case edtypes.ImageEntity, edtypes.YoutubeEntity, edtypes.YoukuEntity, edtypes.QQEntity,
		edtypes.MusicSongEntity, edtypes.MusicPlaylistEntity:
		return mediaRule{}, nil
	}
	return nil, unrenderable("entity type", t)
}

// perBlockRule - каждый блок группы в собственном элементе
type perBlockRule struct {
	tag atom.Atom
}

func (rule perBlockRule) renderGroup(r *Renderer, g Group) ([]*html.Node, error) {
	res := make([]*html.Node, 0, g.Len())
	for i := g.Start; i < g.End; i++ {
		children, err := r.RenderInline(&r.doc.Blocks[i])
		if err != nil {
			return nil, err
		}
		el := element(rule.tag)
		appendAll(el, children)
		res = append(res, el)
	}
	return res, nil
}

// containerRule - вся группа в одном элементе, блоки разделены <br>
type containerRule struct {
	tag atom.Atom
}

func (rule containerRule) renderGroup(r *Renderer, g Group) ([]*html.Node, error) {
	el := element(rule.tag)
	for i := g.Start; i < g.End; i++ {
		if i > g.Start {
			el.AppendChild(element(atom.Br))
		}
		children, err := r.RenderInline(&r.doc.Blocks[i])
		if err != nil {
			return nil, err
		}
		appendAll(el, children)
	}
	return []*html.Node{el}, nil
}

// listRule - список с вложенными подсписками внутри родительского <li>
type listRule struct {
	tag atom.Atom
}

func (rule listRule) renderGroup(r *Renderer, g Group) ([]*html.Node, error) {
	forest := BuildForest(r.doc.Blocks, g)
	list, err := rule.renderItems(r, forest, forest.Roots)
	if err != nil {
		return nil, err
	}
	return []*html.Node{list}, nil
}

func (rule listRule) renderItems(r *Renderer, forest Forest, items []int) (*html.Node, error) {
	list := element(rule.tag)
	for _, idx := range items {
		node := forest.Nodes[idx]
		li := element(atom.Li)
		children, err := r.RenderInline(&r.doc.Blocks[node.Block])
		if err != nil {
			return nil, err
		}
		appendAll(li, children)

		if len(node.Children) > 0 {
			nested, err := rule.renderItems(r, forest, node.Children)
			if err != nil {
				return nil, err
			}
			li.AppendChild(nested)
		}
		list.AppendChild(li)
	}
	return list, nil
}

// atomicRule - каждый блок рисует свою сущность, соседние блоки разделены <br>
type atomicRule struct{}

func (atomicRule) renderGroup(r *Renderer, g Group) ([]*html.Node, error) {
	var res []*html.Node
	for i := g.Start; i < g.End; i++ {
		if i > g.Start {
			res = append(res, element(atom.Br))
		}
		b := &r.doc.Blocks[i]

		if len(b.EntityRanges) > 0 {
			entity, err := r.doc.Entities.Get(b.EntityRanges[0].Key)
			if err != nil {
				return nil, err
			}
			if entity.Type == edtypes.LinkEntity {
				// ссылка, вставленная как медиа, подписывается своим адресом
				nodes, err := linkRule{}.renderEntity(entity, []*html.Node{textNode(linkURL(entity))})
				if err != nil {
					return nil, err
				}
				res = append(res, nodes...)
				continue
			}
		}

		children, err := r.RenderInline(b)
		if err != nil {
			return nil, err
		}
		res = append(res, children...)
	}
	return res, nil
}

type linkRule struct{}

func (linkRule) renderEntity(e edtypes.Entity, children []*html.Node) ([]*html.Node, error) {
	a := element(atom.A, attr("href", linkURL(e)), attr("target", "_blank"), attr("rel", "nofollow"))
	appendAll(a, children)
	return []*html.Node{a}, nil
}

func linkURL(e edtypes.Entity) string {
	if url := e.Data.String("url"); url != "" {
		return url
	}
	return e.Data.String("src")
}

type tudouRule struct{}

func (tudouRule) renderEntity(e edtypes.Entity, _ []*html.Node) ([]*html.Node, error) {
	return []*html.Node{element(atom.Div, attr("data-tudou", e.Data.String("src")))}, nil
}

type mediaRule struct{}

func (mediaRule) renderEntity(e edtypes.Entity, _ []*html.Node) ([]*html.Node, error) {
	embed, err := media.Resolve(e)
	if err != nil {
		return nil, err
	}

	switch embed.Kind {
	case media.KindImage:
		img := element(atom.Img, attr("src", embed.URL))
		if embed.Name != "" {
			img.Attr = append(img.Attr, attr("alt", embed.Name))
		}
		return []*html.Node{img}, nil
	case media.KindPending:
		return []*html.Node{element(atom.Img, attr("alt", embed.Name), attr("data-pending", "true"))}, nil
	case media.KindFrame:
		frame := element(atom.Iframe, attr("src", embed.URL))
		if embed.Width != "" {
			frame.Attr = append(frame.Attr, attr("width", embed.Width))
		}
		if embed.Height != "" {
			frame.Attr = append(frame.Attr, attr("height", embed.Height))
		}
		frame.Attr = append(frame.Attr, attr("frameborder", "0"), attr("allowfullscreen", ""))
		return []*html.Node{frame}, nil
	}
	return nil, unrenderable("embed kind", embed.Kind)
}
