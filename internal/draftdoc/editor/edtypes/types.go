package edtypes

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// DraftParser - функция для парсинга raw JSON документа, устанавливается из draftjs пакета
var DraftParser func(io.Reader) (*Document, error)

// DraftSerializer - функция для сериализации Document в raw JSON, устанавливается из draftjs пакета
var DraftSerializer func(*Document) ([]byte, error)

type BlockType string

const (
	Unstyled          BlockType = "unstyled"
	Blockquote        BlockType = "blockquote"
	HeaderTwo         BlockType = "header-two"
	UnorderedListItem BlockType = "unordered-list-item"
	OrderedListItem   BlockType = "ordered-list-item"
	CodeBlock         BlockType = "code-block"
	Atomic            BlockType = "atomic"
)

var BlockTypes = []BlockType{Unstyled, Blockquote, HeaderTwo, UnorderedListItem, OrderedListItem, CodeBlock, Atomic}

func (t BlockType) Valid() bool {
	return slices.Contains(BlockTypes, t)
}

// IsList - тип элемента списка, для которого имеет смысл depth
func (t BlockType) IsList() bool {
	return t == UnorderedListItem || t == OrderedListItem
}

type InlineStyle string

const (
	Bold      InlineStyle = "BOLD"
	Italic    InlineStyle = "ITALIC"
	Underline InlineStyle = "UNDERLINE"
	Code      InlineStyle = "CODE"
)

// StyleOrder задает порядок вложенности стилей при рендеринге, от внешнего к внутреннему.
var StyleOrder = []InlineStyle{Bold, Italic, Underline, Code}

func (s InlineStyle) Valid() bool {
	return slices.Contains(StyleOrder, s)
}

type EntityType string

const (
	ImageEntity             EntityType = "image"
	LinkEntity              EntityType = "link"
	YoukuEntity             EntityType = "youku"
	TudouEntity             EntityType = "tudou"
	QQEntity                EntityType = "qq"
	YoutubeEntity           EntityType = "youtube"
	MusicSongEntity         EntityType = "163-music-song"
	MusicPlaylistEntity     EntityType = "163-music-playlist"
	legacyLinkEntityTypeRaw            = "LINK"
)

var EntityTypes = []EntityType{ImageEntity, LinkEntity, YoukuEntity, TudouEntity, QQEntity, YoutubeEntity, MusicSongEntity, MusicPlaylistEntity}

func (t EntityType) Valid() bool {
	return slices.Contains(EntityTypes, t)
}

// IsMedia - сущность встраивается в atomic блок
func (t EntityType) IsMedia() bool {
	return t.Valid() && t != LinkEntity
}

// ParseEntityType приводит тип из raw документа к EntityType. "LINK" редактора ссылок принимается как link.
func ParseEntityType(raw string) (EntityType, bool) {
	if raw == legacyLinkEntityTypeRaw {
		return LinkEntity, true
	}
	t := EntityType(raw)
	return t, t.Valid()
}

type Mutability string

const (
	Immutable Mutability = "IMMUTABLE"
	Mutable   Mutability = "MUTABLE"
)

func (m Mutability) Valid() bool {
	return m == Immutable || m == Mutable
}

type EntityKey int

type StyleRange struct {
	Style  InlineStyle
	Offset int
	Length int
}

func (r StyleRange) End() int {
	return r.Offset + r.Length
}

type EntityRange struct {
	Key    EntityKey
	Offset int
	Length int
}

func (r EntityRange) End() int {
	return r.Offset + r.Length
}

// Block - структурная единица документа. Offset и Length всех диапазонов считаются в UTF-16 единицах.
type Block struct {
	Key   string
	Type  BlockType
	Depth int
	Text  string

	InlineStyleRanges []StyleRange
	EntityRanges      []EntityRange
}

// Len возвращает длину текста блока в UTF-16 единицах.
func (b *Block) Len() int {
	return TextLen(b.Text)
}

func (b Block) Clone() Block {
	b.InlineStyleRanges = slices.Clone(b.InlineStyleRanges)
	b.EntityRanges = slices.Clone(b.EntityRanges)
	return b
}

// EntityAt возвращает ключ сущности, покрывающей символ offset.
func (b *Block) EntityAt(offset int) (EntityKey, bool) {
	for _, r := range b.EntityRanges {
		if offset >= r.Offset && offset < r.End() {
			return r.Key, true
		}
	}
	return 0, false
}

// StylesAt возвращает набор стилей символа offset в порядке StyleOrder.
func (b *Block) StylesAt(offset int) []InlineStyle {
	var res []InlineStyle
	for _, style := range StyleOrder {
		for _, r := range b.InlineStyleRanges {
			if r.Style == style && offset >= r.Offset && offset < r.End() {
				res = append(res, style)
				break
			}
		}
	}
	return res
}

type EntityData map[string]any

// String безопасно извлекает строковое значение из данных сущности.
// Числа (id треков и плейлистов часто приходят числом) приводятся к десятичной строке.
func (d EntityData) String(key string) string {
	if d == nil {
		return ""
	}
	switch v := d[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

type Entity struct {
	Key        EntityKey
	Type       EntityType
	Mutability Mutability
	Data       EntityData
}

// Position - точка вставки: блок и смещение внутри него. Нулевое значение означает конец последнего блока.
type Position struct {
	BlockKey string `json:"block_key"`
	Offset   int    `json:"offset"`
}

func (p Position) IsZero() bool {
	return p.BlockKey == "" && p.Offset == 0
}

// Selection - выделение в документе, может охватывать несколько блоков и быть обратным.
type Selection struct {
	AnchorKey    string `json:"anchor_key" validate:"required"`
	AnchorOffset int    `json:"anchor_offset" validate:"min=0"`
	FocusKey     string `json:"focus_key" validate:"required"`
	FocusOffset  int    `json:"focus_offset" validate:"min=0"`
}

func (s Selection) IsCollapsed() bool {
	return s.AnchorKey == s.FocusKey && s.AnchorOffset == s.FocusOffset
}

type Document struct {
	Blocks   []Block
	Entities *EntityStore
}

// NewDocument создает пустой документ с одним пустым unstyled блоком.
func NewDocument() *Document {
	d := &Document{Entities: NewEntityStore()}
	d.Blocks = append(d.Blocks, Block{Key: d.GenBlockKey(), Type: Unstyled})
	return d
}

// BlockIndex возвращает индекс блока по ключу или -1.
func (d *Document) BlockIndex(key string) int {
	return slices.IndexFunc(d.Blocks, func(b Block) bool {
		return b.Key == key
	})
}

// PlainText возвращает текст всех блоков через перевод строки.
func (d *Document) PlainText() string {
	lines := make([]string, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		if b.Type == Atomic {
			continue
		}
		lines = append(lines, b.Text)
	}
	return strings.Join(lines, "\n")
}

// UnmarshalJSON реализует десериализацию raw JSON в Document.
// Автоматически вызывает зарегистрированный DraftParser.
func (d *Document) UnmarshalJSON(data []byte) error {
	if DraftParser == nil {
		return errors.New("DraftParser not registered, import draftjs package to enable raw JSON parsing")
	}

	doc, err := DraftParser(bytes.NewReader(data))
	if err != nil {
		return err
	}

	d.Blocks = doc.Blocks
	d.Entities = doc.Entities
	return nil
}

// MarshalJSON реализует сериализацию Document в raw JSON.
// Автоматически вызывает зарегистрированный DraftSerializer.
func (d *Document) MarshalJSON() ([]byte, error) {
	if DraftSerializer == nil {
		return nil, errors.New("DraftSerializer not registered, import draftjs package to enable raw JSON serialization")
	}

	return DraftSerializer(d)
}

// Value реализует интерфейс driver.Valuer для сохранения Document в JSONB.
func (d Document) Value() (driver.Value, error) {
	b, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Scan реализует интерфейс sql.Scanner для чтения Document из JSONB.
func (d *Document) Scan(value interface{}) error {
	if value == nil {
		*d = *NewDocument()
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	return d.UnmarshalJSON(bytes)
}

// GormDataType указывает GORM использовать тип JSONB для PostgreSQL колонок.
func (Document) GormDataType() string {
	return "jsonb"
}
