package draftjs

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
)

func init() {
	edtypes.DraftParser = ParseJSON
	edtypes.DraftSerializer = Serialize
}

// ParseJSON читает raw документ из JSON и строит edtypes.Document.
// Любое структурное нарушение возвращается как apierrors.ErrMalformedDocument.
func ParseJSON(r io.Reader) (*edtypes.Document, error) {
	var raw RawDocument
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", apierrors.ErrMalformedDocument, err)
	}
	return FromRaw(&raw)
}

// FromRaw строит документ из raw снимка. Документ либо строится целиком, либо возвращается ошибка.
func FromRaw(raw *RawDocument) (*edtypes.Document, error) {
	if raw == nil || raw.Blocks == nil {
		return nil, fmt.Errorf("%w: blocks is not a sequence", apierrors.ErrMalformedDocument)
	}

	doc := &edtypes.Document{
		Blocks:   make([]edtypes.Block, 0, len(raw.Blocks)),
		Entities: edtypes.NewEntityStore(),
	}

	entityKeys, err := loadEntities(doc.Entities, raw.EntityMap)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(raw.Blocks))
	for i, rb := range raw.Blocks {
		block, err := parseBlock(rb, entityKeys)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: %s", apierrors.ErrMalformedDocument, i, err)
		}
		if block.Key == "" {
			block.Key = doc.GenBlockKey()
		}
		if _, ok := seen[block.Key]; ok {
			return nil, fmt.Errorf("%w: block %d: duplicate key %q", apierrors.ErrMalformedDocument, i, block.Key)
		}
		seen[block.Key] = struct{}{}
		doc.Blocks = append(doc.Blocks, block)
	}

	return doc, nil
}

func loadEntities(store *edtypes.EntityStore, entityMap map[string]RawEntity) (map[int]edtypes.EntityKey, error) {
	byKey := make(map[int]RawEntity, len(entityMap))
	for k, re := range entityMap {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("%w: entity key %q is not a number", apierrors.ErrMalformedDocument, k)
		}
		if _, ok := byKey[n]; ok {
			return nil, fmt.Errorf("%w: duplicate entity key %q", apierrors.ErrMalformedDocument, k)
		}
		byKey[n] = re
	}
	rawKeys := slices.Sorted(maps.Keys(byKey))

	res := make(map[int]edtypes.EntityKey, len(rawKeys))
	for _, n := range rawKeys {
		re := byKey[n]
		t, ok := edtypes.ParseEntityType(re.Type)
		if !ok {
			return nil, fmt.Errorf("%w: entity %d: %w", apierrors.ErrMalformedDocument, n, fmt.Errorf("%w: %q", apierrors.ErrInvalidEntityType, re.Type))
		}
		key, err := store.Create(t, edtypes.Mutability(re.Mutability), re.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: entity %d: %w", apierrors.ErrMalformedDocument, n, err)
		}
		res[n] = key
	}
	return res, nil
}

func parseBlock(rb RawBlock, entityKeys map[int]edtypes.EntityKey) (edtypes.Block, error) {
	block := edtypes.Block{
		Key:   rb.Key,
		Type:  edtypes.BlockType(rb.Type),
		Depth: rb.Depth,
		Text:  rb.Text,
	}
	if block.Type == "" {
		block.Type = edtypes.Unstyled
	}
	if block.Depth < 0 {
		return block, fmt.Errorf("negative depth %d", block.Depth)
	}

	textLen := block.Len()
	for _, sr := range rb.InlineStyleRanges {
		style := edtypes.InlineStyle(sr.Style)
		if !style.Valid() {
			return block, fmt.Errorf("unknown inline style %q", sr.Style)
		}
		if !inBounds(sr.Offset, sr.Length, textLen) {
			return block, fmt.Errorf("style range %d+%d out of text bounds %d", sr.Offset, sr.Length, textLen)
		}
		block.InlineStyleRanges = append(block.InlineStyleRanges, edtypes.StyleRange{Style: style, Offset: sr.Offset, Length: sr.Length})
	}
	block.InlineStyleRanges = edtypes.NormalizeStyleRanges(block.InlineStyleRanges)

	for _, er := range rb.EntityRanges {
		key, ok := entityKeys[er.Key]
		if !ok {
			return block, fmt.Errorf("entity range references unknown entity %d", er.Key)
		}
		if !inBounds(er.Offset, er.Length, textLen) {
			return block, fmt.Errorf("entity range %d+%d out of text bounds %d", er.Offset, er.Length, textLen)
		}
		block.EntityRanges = append(block.EntityRanges, edtypes.EntityRange{Key: key, Offset: er.Offset, Length: er.Length})
	}
	edtypes.SortEntityRanges(block.EntityRanges)
	if edtypes.EntityRangesOverlap(block.EntityRanges) {
		return block, fmt.Errorf("overlapping entity ranges")
	}

	return block, nil
}

func inBounds(offset, length, textLen int) bool {
	return offset >= 0 && length >= 0 && offset+length <= textLen
}
