// Обработчики API документов: создание, чтение, замена и удаление, операции редактирования содержимого,
// вставка медиа, экспорт и websocket превью.
package draftdoc

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/draftjs"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
)

type DocContext struct {
	echo.Context
	DocId uuid.UUID
}

func (s *Services) DocMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		docId, err := uuid.FromString(c.Param("docId"))
		if err != nil {
			return EErrorDefined(c, apierrors.ErrDocNotFound)
		}
		return next(DocContext{c, docId})
	}
}

func (s *Services) AddDocServices(g *echo.Group) {
	docGroup := g.Group("docs/:docId", s.DocMiddleware)

	g.POST("docs/", s.createDoc)

	docGroup.GET("/", s.getDoc)
	docGroup.PUT("/", s.replaceDocContent)
	docGroup.DELETE("/", s.deleteDoc)

	docGroup.POST("/block-type/", s.toggleBlockType)
	docGroup.POST("/block-depth/", s.adjustBlockDepth)
	docGroup.POST("/inline-style/", s.toggleInlineStyle)
	docGroup.POST("/links/", s.applyLink)
	docGroup.POST("/media/", s.insertMedia)

	docGroup.GET("/html/", s.getDocHTML)
	docGroup.GET("/markdown/", s.getDocMarkdown)
	docGroup.GET("/text/", s.getDocText)
	docGroup.GET("/pdf/", s.getDocPDF)

	g.GET("ws/docs/:docId/", s.docPreviewWs, s.DocMiddleware)
}

// createDoc godoc
// @Summary doc: создание документа
// @Param data body CreateDocRequest true "название и raw содержимое"
// @Success 201 {object} dao.Doc "документ"
// @Router /api/docs/ [post]
func (s *Services) createDoc(c echo.Context) error {
	var req CreateDocRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}

	doc, err := s.business.CreateDoc(req.Title, req.Content)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusCreated, doc)
}

func (s *Services) getDoc(c echo.Context) error {
	doc, err := s.business.GetDoc(c.(DocContext).DocId)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// replaceDocContent godoc
// @Summary doc: замена содержимого документа
// @Description Тело запроса - документ в raw формате. Поврежденный документ возвращает 400.
// @Router /api/docs/{docId}/ [put]
func (s *Services) replaceDocContent(c echo.Context) error {
	content, err := draftjs.ParseJSON(c.Request().Body)
	if err != nil {
		return EError(c, err)
	}

	doc, err := s.business.ReplaceContent(c.(DocContext).DocId, content)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

func (s *Services) deleteDoc(c echo.Context) error {
	if err := s.business.DeleteDoc(c.(DocContext).DocId); err != nil {
		return EError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (s *Services) toggleBlockType(c echo.Context) error {
	var req BlockTypeRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}

	doc, err := s.business.ToggleBlockType(c.(DocContext).DocId, req.BlockKey, req.Type)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

func (s *Services) adjustBlockDepth(c echo.Context) error {
	var req BlockDepthRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}

	doc, err := s.business.AdjustDepth(c.(DocContext).DocId, req.BlockKey, req.Delta)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

func (s *Services) toggleInlineStyle(c echo.Context) error {
	var req InlineStyleRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}

	doc, err := s.business.ToggleInlineStyle(c.(DocContext).DocId, req.Selection, req.Style)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

func (s *Services) applyLink(c echo.Context) error {
	var req LinkRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}

	doc, err := s.business.ApplyLink(c.(DocContext).DocId, req.Selection, req.URL)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// insertMedia godoc
// @Summary doc: вставка медиа
// @Description Вставляет очередь медиа с позиции position (по умолчанию в конец документа).
// @Description Для изображений без адреса возвращаются токены, которые передаются при загрузке файла.
// @Router /api/docs/{docId}/media/ [post]
func (s *Services) insertMedia(c echo.Context) error {
	var req InsertMediaRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}

	at, items, err := req.Bind()
	if err != nil {
		return EError(c, err)
	}

	doc, inserted, err := s.business.InsertMedia(c.(DocContext).DocId, at, items)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, NewInsertMediaResponse(doc, inserted))
}

func (s *Services) getDocHTML(c echo.Context) error {
	body, err := s.business.ExportHTML(c.(DocContext).DocId)
	if err != nil {
		return EError(c, err)
	}
	return c.HTML(http.StatusOK, body)
}

func (s *Services) getDocText(c echo.Context) error {
	body, err := s.business.ExportText(c.(DocContext).DocId)
	if err != nil {
		return EError(c, err)
	}
	return c.String(http.StatusOK, body)
}

func (s *Services) getDocMarkdown(c echo.Context) error {
	docId := c.(DocContext).DocId
	body, err := s.business.ExportMarkdown(docId)
	if err != nil {
		return EError(c, err)
	}
	setAttachmentHeader(c, docId.String()+".md")
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", body)
}

func (s *Services) getDocPDF(c echo.Context) error {
	docId := c.(DocContext).DocId
	body, err := s.business.ExportPDF(c.Request().Context(), docId)
	if err != nil {
		return EError(c, err)
	}
	setAttachmentHeader(c, docId.String()+".pdf")
	return c.Blob(http.StatusOK, "application/pdf", body)
}

// docPreviewWs держит соединение превью документа. Каждое изменение содержимого рассылается всем сессиям документа.
func (s *Services) docPreviewWs(c echo.Context) error {
	docId := c.(DocContext).DocId
	if _, err := s.business.GetDoc(docId); err != nil {
		return EError(c, err)
	}
	s.hub.Handle(docId.String(), c.Response(), c.Request())
	return nil
}

func setAttachmentHeader(c echo.Context, fileName string) {
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(fileName)))
}
