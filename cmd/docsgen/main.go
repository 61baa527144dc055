// Генерация документации об ошибках API в формате Markdown.
// Разбирает файл с определениями ошибок и строит таблицу с кодами ошибок, HTTP кодами, сообщениями и переводами.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"log/slog"
	"os"
	"strconv"

	md "github.com/nao1215/markdown"
)

var statusCodes = map[string]int{
	"StatusBadRequest":            400,
	"StatusUnauthorized":          401,
	"StatusForbidden":             403,
	"StatusNotFound":              404,
	"StatusConflict":              409,
	"StatusRequestEntityTooLarge": 413,
	"StatusUnprocessableEntity":   422,
	"StatusInternalServerError":   500,
	"StatusServiceUnavailable":    503,
}

func main() {
	errorsFile := flag.String("src", "internal/draftdoc/apierrors/apierrors.go", "Path of apierrors.go")
	outputMd := flag.String("out", "api_errors.md", "Path to output md")
	flag.Parse()

	slog.Info("Generate api errors docs", "src", *errorsFile, "out", *outputMd)

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, *errorsFile, nil, 0)
	if err != nil {
		slog.Error("Parse errors file", "err", err)
		os.Exit(1)
	}

	ff, err := os.Create(*outputMd)
	if err != nil {
		slog.Error("Create output file", "err", err)
		os.Exit(1)
	}
	defer ff.Close()

	if err := writeDocs(ff, getRows(f)); err != nil {
		slog.Error("Generate docs fail", "err", err)
		os.Exit(1)
	}
	slog.Info("Docs generated")
}

func writeDocs(w io.Writer, rows [][]string) error {
	return md.NewMarkdown(w).
		H1("Перечень кодов ошибок").
		PlainText("Данный раздел посвящен описанию возможных ошибок от сервера.").
		CustomTable(md.TableSet{
			Header: []string{"Код", "HTTP код", "Сообщение", "Сообщение на русском"},
			Rows:   rows,
		}, md.TableOptions{
			AutoWrapText: false,
		}).Build()
}

// getRows собирает строки таблицы из объявлений вида ErrX = DefinedError{...}.
func getRows(f *ast.File) [][]string {
	var rows [][]string
	for _, d := range f.Decls {
		decl, ok := d.(*ast.GenDecl)
		if !ok || decl.Tok != token.VAR {
			continue
		}
		for _, spec := range decl.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for _, value := range vs.Values {
				lit, ok := value.(*ast.CompositeLit)
				if !ok || fmt.Sprint(lit.Type) != "DefinedError" {
					continue
				}
				rows = append(rows, definedErrorRow(lit))
			}
		}
	}
	return rows
}

func definedErrorRow(lit *ast.CompositeLit) []string {
	row := make([]string, 4)
	statusName := "StatusBadRequest"
	for _, v := range lit.Elts {
		param, ok := v.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		switch fmt.Sprint(param.Key) {
		case "Code":
			if bl, ok := param.Value.(*ast.BasicLit); ok {
				row[0] = md.Bold(bl.Value)
			}
		case "StatusCode":
			if sel, ok := param.Value.(*ast.SelectorExpr); ok {
				statusName = sel.Sel.Name
			}
		case "Err":
			row[2] = md.Code(stringValue(param.Value))
		case "RuErr":
			row[3] = md.Code(stringValue(param.Value))
		}
	}

	code, ok := statusCodes[statusName]
	if ok {
		row[1] = fmt.Sprintf("%d %s", code, md.Italic(statusName))
	} else {
		row[1] = md.Italic(statusName)
	}
	return row
}

func stringValue(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if s, err := strconv.Unquote(e.Value); err == nil {
			return s
		}
		return e.Value
	case *ast.BinaryExpr:
		return stringValue(e.X) + stringValue(e.Y)
	}
	return ""
}
