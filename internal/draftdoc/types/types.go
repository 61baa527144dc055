// Содержит типы данных, общие для слоев хранения и API.
//
// Основные возможности:
//   - RedactorHTML: HTML превью, очищаемое политикой перед сохранением и после приема от клиента.
//   - Удаление невидимых символов из текста.
package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"html"
	"strings"

	policy "github.com/aisa-it/draftdoc/internal/draftdoc/redactor-policy"
)

// RedactorHTML type
type RedactorHTML struct {
	Body             string
	stripped         string
	AlreadySanitized bool
}

func NewRedactorHTML(body string) RedactorHTML {
	return RedactorHTML{Body: RemoveInvisibleChars(policy.UgcPolicy.Sanitize(body)), AlreadySanitized: true}
}

func (r RedactorHTML) Value() (driver.Value, error) {
	if !r.AlreadySanitized {
		return policy.UgcPolicy.Sanitize(r.Body), nil
	}
	return r.Body, nil
}

func (r *RedactorHTML) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		r.Body = v
	case []byte:
		r.Body = string(v)
	case nil:
		r.Body = ""
	default:
		return errors.New("unsupported type")
	}
	r.AlreadySanitized = true
	return nil
}

func (r RedactorHTML) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(r.Body); err != nil {
		return nil, err
	}

	return bytes.TrimSpace(buf.Bytes()), nil
}

func (r *RedactorHTML) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.Body); err != nil {
		return err
	}
	r.Body = policy.UgcPolicy.Sanitize(r.Body)
	r.Body = RemoveInvisibleChars(r.Body)
	r.AlreadySanitized = true

	return nil
}

var blockEnds = strings.NewReplacer(
	"</p>", "</p>\n",
	"</h2>", "</h2>\n",
	"</li>", "</li>\n",
	"</blockquote>", "</blockquote>\n",
	"</pre>", "</pre>\n",
	"<br/>", "\n",
	"<br>", "\n",
)

// StripTags возвращает текст превью без разметки, блоки разделены переводом строки.
func (r *RedactorHTML) StripTags() string {
	if r.stripped == "" {
		stripped := policy.StripTagsPolicy.Sanitize(blockEnds.Replace(r.Body))
		r.stripped = strings.TrimSpace(html.UnescapeString(stripped))
	}
	return r.stripped
}

func (r RedactorHTML) String() string {
	return r.Body
}

func (RedactorHTML) GormDataType() string {
	return "text"
}

func RemoveInvisibleChars(s string) string {
	invisible := []string{
		"\u200B",
		"\u200C",
		"\u200D",
		"\uFEFF",
	}

	for _, ch := range invisible {
		s = strings.ReplaceAll(s, ch, "")
	}
	return s
}
