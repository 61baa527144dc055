// Структуры запросов и ответов API документов.
package draftdoc

import (
	"errors"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/business"
	"github.com/aisa-it/draftdoc/internal/draftdoc/dao"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
	"github.com/labstack/echo/v4"
)

type CreateDocRequest struct {
	Title   string            `json:"title" validate:"docTitle"`
	Content *edtypes.Document `json:"content"`
}

type BlockTypeRequest struct {
	BlockKey string            `json:"block_key" validate:"blockKey"`
	Type     edtypes.BlockType `json:"type" validate:"blockType"`
}

type BlockDepthRequest struct {
	BlockKey string `json:"block_key" validate:"blockKey"`
	Delta    int    `json:"delta" validate:"min=-4,max=4"`
}

type InlineStyleRequest struct {
	Style     edtypes.InlineStyle `json:"style" validate:"inlineStyle"`
	Selection edtypes.Selection   `json:"selection"`
}

type LinkRequest struct {
	Selection edtypes.Selection `json:"selection"`
	URL       string            `json:"url" validate:"required,url"`
}

// MediaItemRequest - элемент вставки. Вместо type и src можно передать url поддерживаемого провайдера.
type MediaItemRequest struct {
	Type edtypes.EntityType `json:"type" validate:"omitempty,entityType"`
	Src  string             `json:"src"`
	Name string             `json:"name"`
	URL  string             `json:"url" validate:"omitempty,url"`
}

type InsertMediaRequest struct {
	Position *edtypes.Position `json:"position"`
	Items    []MediaItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (req *InsertMediaRequest) Bind() (edtypes.Position, []business.MediaRequest, error) {
	var at edtypes.Position
	if req.Position != nil {
		at = *req.Position
	}

	res := make([]business.MediaRequest, len(req.Items))
	for i, item := range req.Items {
		if item.Type == "" && item.URL == "" {
			return at, nil, apierrors.ErrInvalidEntityType
		}
		res[i] = business.MediaRequest{Type: item.Type, Src: item.Src, Name: item.Name, URL: item.URL}
	}
	return at, res, nil
}

type InsertedMediaResponse struct {
	BlockKey string `json:"block_key"`
	Token    string `json:"token,omitempty"`
}

type InsertMediaResponse struct {
	Doc    *dao.Doc                `json:"doc"`
	Tokens []string                `json:"tokens"`
	Media  []InsertedMediaResponse `json:"media"`
}

func NewInsertMediaResponse(doc *dao.Doc, inserted []editor.InsertedMedia) InsertMediaResponse {
	resp := InsertMediaResponse{
		Doc:    doc,
		Tokens: make([]string, 0),
		Media:  make([]InsertedMediaResponse, len(inserted)),
	}
	for i, m := range inserted {
		if m.Token != "" {
			resp.Tokens = append(resp.Tokens, m.Token)
		}
		resp.Media[i] = InsertedMediaResponse{BlockKey: m.BlockKey, Token: m.Token}
	}
	return resp
}

// bindRequest разбирает и проверяет тело запроса. Ошибки разбора документа отдаются как есть,
// остальные ошибки разбора превращаются в ErrInvalidJSON.
func bindRequest(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		var definedErr apierrors.DefinedError
		if errors.As(err, &definedErr) {
			return definedErr
		}
		return apierrors.ErrInvalidJSON
	}
	if err := c.Validate(req); err != nil {
		er := apierrors.ErrInvalidJSON
		er.Err = err.Error()
		return er
	}
	return nil
}
