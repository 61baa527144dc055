package export

import (
	"fmt"
	"io"
	"os"
	"slices"

	"codeberg.org/go-pdf/fpdf"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
	"github.com/aisa-it/draftdoc/internal/draftdoc/media"
	"github.com/aisa-it/draftdoc/internal/draftdoc/render"
)

const (
	coreFamily = "Helvetica"
	monoFamily = "Courier"
	fontFamily = "DocFont"

	baseFontSize = 11.0
	listIndent   = 6.0
)

// ImageLoader открывает изображение по адресу из data.src и возвращает его mime тип.
type ImageLoader func(src string) (io.ReadCloser, string, error)

type PDFOptions struct {
	Title string
	// FontPath - TTF шрифт с кириллицей. Без него используются встроенные шрифты PDF (только cp1252).
	FontPath    string
	ImageLoader ImageLoader
}

type pdfWriter struct {
	pdf    *fpdf.Fpdf
	doc    *edtypes.Document
	opts   PDFOptions
	family string
	tr     func(string) string

	defaultMargins Margins
}

type Margins struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

func (m *Margins) GetMargins(pdf fpdf.Pdf) {
	m.Left, m.Top, m.Right, m.Bottom = pdf.GetMargins()
}

// DocToPDF пишет документ в PDF.
func DocToPDF(doc *edtypes.Document, opts PDFOptions, out io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")

	w := pdfWriter{
		pdf:    pdf,
		doc:    doc,
		opts:   opts,
		family: coreFamily,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
	}
	w.defaultMargins.GetMargins(pdf)

	if opts.FontPath != "" {
		font, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return fmt.Errorf("read pdf font: %w", err)
		}
		for _, style := range []string{"", "B", "I", "BI"} {
			pdf.AddUTF8FontFromBytes(fontFamily, style, font)
		}
		w.family = fontFamily
		w.tr = cleanUnsupportedSymbols
	}

	pdf.SetTitle(opts.Title, true)
	pdf.AddPage()

	if opts.Title != "" {
		pdf.SetFont(w.family, "B", 20)
		pdf.MultiCell(0, 10, w.tr(opts.Title), "", "L", false)
		pdf.Ln(4)
	}

	for _, g := range render.GroupBlocks(doc.Blocks) {
		w.writeGroup(g)
		w.resetMargins()
	}

	return pdf.Output(out)
}

func (w *pdfWriter) writeGroup(g render.Group) {
	switch g.Type {
	case edtypes.HeaderTwo:
		for i := g.Start; i < g.End; i++ {
			w.writeInline(&w.doc.Blocks[i], 16, true)
			w.pdf.Ln(3)
		}
	case edtypes.Blockquote:
		w.pdf.Ln(2)
		y1 := w.pdf.GetY()
		w.pdf.SetLeftMargin(w.defaultMargins.Left + 3)
		w.pdf.SetX(w.defaultMargins.Left + 3)
		for i := g.Start; i < g.End; i++ {
			w.writeInline(&w.doc.Blocks[i], baseFontSize, false)
		}
		w.pdf.SetLineWidth(0.5)
		w.pdf.SetDrawColor(74, 71, 82)
		w.pdf.Line(w.defaultMargins.Left+1, y1, w.defaultMargins.Left+1, w.pdf.GetY())
		w.pdf.Ln(2)
	case edtypes.CodeBlock:
		w.setFont(w.monoFamily(), "", baseFontSize-1)
		w.pdf.SetFillColor(240, 240, 240)
		for i := g.Start; i < g.End; i++ {
			w.pdf.CellFormat(0, 5, w.tr(w.doc.Blocks[i].Text), "", 1, "L", true, 0, "")
		}
		w.pdf.Ln(2)
	case edtypes.UnorderedListItem, edtypes.OrderedListItem:
		forest := render.BuildForest(w.doc.Blocks, g)
		w.writeList(forest, forest.Roots, g.Type == edtypes.OrderedListItem, 0)
		w.pdf.Ln(2)
	case edtypes.Atomic:
		for i := g.Start; i < g.End; i++ {
			w.writeAtomic(&w.doc.Blocks[i])
		}
	default:
		for i := g.Start; i < g.End; i++ {
			w.writeInline(&w.doc.Blocks[i], baseFontSize, false)
			w.pdf.Ln(2)
		}
	}
}

func (w *pdfWriter) writeList(forest render.Forest, items []int, ordered bool, level int) {
	left := w.defaultMargins.Left + listIndent*float64(level+1)
	for n, item := range items {
		node := forest.Nodes[item]

		w.pdf.SetLeftMargin(left - listIndent + 1)
		w.pdf.SetX(left - listIndent + 1)
		w.setFont(w.family, "", baseFontSize)
		marker := "•"
		if ordered {
			marker = fmt.Sprintf("%d.", n+1)
		}
		w.write(marker, "")

		w.pdf.SetLeftMargin(left)
		w.pdf.SetX(left)
		w.writeInline(&w.doc.Blocks[node.Block], baseFontSize, false)

		w.writeList(forest, node.Children, ordered, level+1)
	}
}

// writeInline пишет текст блока по сегментам и переводит строку.
func (w *pdfWriter) writeInline(b *edtypes.Block, size float64, bold bool) {
	for _, run := range render.EntityRuns(render.Segments(b)) {
		link := ""
		if run.HasEntity {
			if e, err := w.doc.Entities.Get(run.Entity); err == nil && e.Type == edtypes.LinkEntity {
				link = entityURL(e)
			}
		}

		for _, s := range run.Segments {
			w.setSegmentFont(s.Styles, size, bold, link != "")
			w.write(w.tr(s.Text), link)
		}
	}
	w.pdf.SetTextColor(0, 0, 0)
	w.pdf.Ln(-1)
}

func (w *pdfWriter) setSegmentFont(styles []edtypes.InlineStyle, size float64, bold, link bool) {
	style := ""
	if bold || slices.Contains(styles, edtypes.Bold) {
		style += "B"
	}
	if slices.Contains(styles, edtypes.Italic) {
		style += "I"
	}
	if link || slices.Contains(styles, edtypes.Underline) {
		style += "U"
	}

	family := w.family
	if slices.Contains(styles, edtypes.Code) {
		family = w.monoFamily()
	}
	w.setFont(family, style, size)

	if link {
		w.pdf.SetTextColor(30, 80, 200)
	} else {
		w.pdf.SetTextColor(0, 0, 0)
	}
}

func (w *pdfWriter) writeAtomic(b *edtypes.Block) {
	key, ok := b.EntityAt(0)
	if !ok {
		return
	}
	e, err := w.doc.Entities.Get(key)
	if err != nil {
		return
	}

	w.setFont(w.family, "", baseFontSize)
	switch e.Type {
	case edtypes.LinkEntity:
		url := entityURL(e)
		w.write(w.tr(url), url)
	case edtypes.TudouEntity:
		w.write(w.tr(fmt.Sprintf("%s: %s", e.Type, e.Data.String("src"))), "")
	default:
		d, err := media.Resolve(e)
		if err != nil {
			return
		}
		switch d.Kind {
		case media.KindImage:
			if !w.writeImage(d) {
				w.write(w.tr(d.Name), d.URL)
			}
		case media.KindPending:
			w.write(w.tr(pendingLabel(d.Name)), "")
		case media.KindFrame:
			url := absoluteURL(d.URL)
			w.write(w.tr(fmt.Sprintf("%s: %s", d.Type, url)), url)
		}
	}
	w.pdf.Ln(-1)
	w.pdf.Ln(2)
}

// writeImage вставляет изображение во всю доступную ширину. false, если изображение не удалось загрузить.
func (w *pdfWriter) writeImage(d media.EmbedDescriptor) bool {
	info := w.pdf.GetImageInfo(d.URL)
	if info == nil {
		if w.opts.ImageLoader == nil {
			return false
		}
		rc, contentType, err := w.opts.ImageLoader(d.URL)
		if err != nil {
			return false
		}
		defer rc.Close()

		options := fpdf.ImageOptions{ImageType: w.pdf.ImageTypeFromMime(contentType), ReadDpi: true}
		if options.ImageType == "" {
			// unsupported image type
			w.pdf.ClearError()
			return false
		}
		info = w.pdf.RegisterImageOptionsReader(d.URL, options, rc)
		if info == nil || w.pdf.Err() {
			w.pdf.ClearError()
			return false
		}
	}

	pageW, _ := w.pdf.GetPageSize()
	left, _, right, _ := w.pdf.GetMargins()
	width := min(info.Width(), pageW-left-right)
	w.pdf.ImageOptions(d.URL, -1, -1, width, 0, true, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	return true
}

// monoFamily - Courier для встроенных шрифтов. Для TTF шрифта моноширинного варианта нет.
func (w *pdfWriter) monoFamily() string {
	if w.family == coreFamily {
		return monoFamily
	}
	return w.family
}

func (w *pdfWriter) setFont(family, style string, size float64) {
	w.pdf.SetFont(family, style, size)
}

func (w *pdfWriter) write(text string, link string) {
	_, h := w.pdf.GetFontSize()
	w.pdf.WriteLinkString(h+1, text, link)
}

func (w *pdfWriter) resetMargins() {
	w.pdf.SetMargins(w.defaultMargins.Left, w.defaultMargins.Top, w.defaultMargins.Right)
	w.pdf.SetX(w.defaultMargins.Left)
}

// cleanUnsupportedSymbols убирает символы вне базовой плоскости Unicode, которых нет в TTF шрифтах fpdf.
func cleanUnsupportedSymbols(text string) string {
	result := make([]rune, 0, len(text))
	for _, s := range text {
		if s < 65536 {
			result = append(result, s)
		}
	}
	return string(result)
}
