// Определяет политики очистки HTML превью документов. Превью строится рендером документа, но перед сохранением
// и отдачей клиентам всегда проходит через UgcPolicy.
//
// Основные возможности:
//   - Разрешение фреймов только для адресов плееров поддерживаемых провайдеров.
//   - Атрибуты заглушек медиа (data-pending, data-tudou).
//   - Ссылки открываются в новой вкладке и получают rel=nofollow.
//   - StripTagsPolicy для получения чистого текста.
package policy

import (
	"container/list"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var StripTagsPolicy *bluemonday.Policy = bluemonday.StrictPolicy()
var UgcPolicy *bluemonday.Policy = bluemonday.UGCPolicy()

func init() {
	frameSrcRegexp := regexp.MustCompile(`^(https:)?//(www\.youtube\.com/embed/|player\.youku\.com/embed/|v\.qq\.com/iframe/player\.html\?|music\.163\.com/outchain/player\?)`)
	frameSizeRegexp := regexp.MustCompile(`^(\d+|auto)$`)
	idRegexp := regexp.MustCompile(`^[A-Za-z0-9_=-]+$`)

	UgcPolicy.AllowElements("iframe")
	UgcPolicy.AllowAttrs("src").Matching(frameSrcRegexp).OnElements("iframe")
	UgcPolicy.AllowAttrs("width", "height").Matching(frameSizeRegexp).OnElements("iframe")
	UgcPolicy.AllowAttrs("frameborder").Matching(regexp.MustCompile(`^0$`)).OnElements("iframe")
	UgcPolicy.AllowAttrs("allowfullscreen").OnElements("iframe")

	UgcPolicy.AllowAttrs("data-pending").Matching(regexp.MustCompile(`^true$`)).OnElements("img")
	UgcPolicy.AllowAttrs("data-tudou").Matching(idRegexp).OnElements("div")

	UgcPolicy.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	UgcPolicy.RequireNoFollowOnLinks(true)
}

// MarkPendingImages проставляет заглушкам изображений, ожидающих загрузки, текстовую подпись с именем файла.
// Используется для превью, в которых изображения без адреса иначе не видны.
func MarkPendingImages(htmlContent string) string {
	if htmlContent == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	queue := list.New()
	queue.PushBack(doc)

	for queue.Len() > 0 {
		element := queue.Front()
		queue.Remove(element)
		node := element.Value.(*html.Node)

		var next *html.Node

		for child := node.FirstChild; child != nil; child = next {
			next = child.NextSibling
			if child.Type == html.ElementNode && child.Data == "img" && isPendingImage(child) {
				processPendingImage(child)
			} else if child.FirstChild != nil {
				queue.PushBack(child)
			}
		}
	}

	body := doc
	for n := range doc.Descendants() {
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			break
		}
	}

	var result strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&result, c)
	}

	return result.String()
}

func isPendingImage(node *html.Node) bool {
	for _, attr := range node.Attr {
		if attr.Key == "data-pending" && attr.Val == "true" {
			return true
		}
	}
	return false
}

func processPendingImage(node *html.Node) {
	var name string
	for _, attr := range node.Attr {
		if attr.Key == "alt" {
			name = attr.Val
		}
	}

	textNode := &html.Node{
		Type: html.TextNode,
		Data: "<загрузка " + name + ">",
	}
	node.Parent.InsertBefore(textNode, node)
	node.Parent.RemoveChild(node)
}
