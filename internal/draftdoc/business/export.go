package business

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/export"
	policy "github.com/aisa-it/draftdoc/internal/draftdoc/redactor-policy"
	"github.com/aisa-it/draftdoc/internal/draftdoc/render"
	"github.com/gofrs/uuid"
)

var imageClient = &http.Client{Timeout: 10 * time.Second}

// ExportHTML возвращает превью документа, в котором ожидающие загрузки изображения заменены подписями.
// Для документа без превью возвращается ошибка рендера.
func (b *Business) ExportHTML(id uuid.UUID) (string, error) {
	doc, err := b.GetDoc(id)
	if err != nil {
		return "", err
	}
	if doc.ContentHTML.Body == "" {
		if _, err := render.RenderString(&doc.Content); err != nil {
			return "", err
		}
	}
	return policy.MarkPendingImages(doc.ContentHTML.Body), nil
}

// ExportText возвращает текст документа без разметки, по строке на блок.
func (b *Business) ExportText(id uuid.UUID) (string, error) {
	doc, err := b.GetDoc(id)
	if err != nil {
		return "", err
	}
	return doc.ContentHTML.StripTags(), nil
}

func (b *Business) ExportMarkdown(id uuid.UUID) ([]byte, error) {
	doc, err := b.GetDoc(id)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := export.DocToMarkdown(&doc.Content, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *Business) ExportPDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	doc, err := b.GetDoc(id)
	if err != nil {
		return nil, err
	}

	opts := export.PDFOptions{
		Title:       doc.Title,
		ImageLoader: b.imageLoader(ctx),
	}
	if b.cfg != nil {
		opts.FontPath = b.cfg.PDFFontPath
	}

	var buf bytes.Buffer
	if err := export.DocToPDF(&doc.Content, opts, &buf); err != nil {
		return nil, fmt.Errorf("%w: %v", apierrors.ErrPdfExport, err)
	}
	return buf.Bytes(), nil
}

// imageLoader читает собственные файлы из хранилища, остальные адреса загружает по HTTP.
func (b *Business) imageLoader(ctx context.Context) export.ImageLoader {
	return func(src string) (io.ReadCloser, string, error) {
		if fileId, ok := fileIDFromURL(src); ok {
			r, info, err := b.OpenFile(fileId)
			if err != nil {
				return nil, "", err
			}
			return r, info.ContentType, nil
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, "", err
		}
		resp, err := imageClient.Do(req)
		if err != nil {
			return nil, "", err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, "", fmt.Errorf("get image %s: %s", src, resp.Status)
		}
		return resp.Body, resp.Header.Get("Content-Type"), nil
	}
}
