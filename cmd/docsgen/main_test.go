package main

import (
	"bytes"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const errorsSrc = `package apierrors

import "net/http"

type DefinedError struct {
	Code       int
	StatusCode int
	Err        string
	RuErr      string
}

var (
	ErrDocNotFound = DefinedError{Code: 4001, StatusCode: http.StatusNotFound, Err: "doc not found", RuErr: "Документ не найден"}
	ErrGeneric     = DefinedError{Code: 5000, Err: "something " + "went wrong", RuErr: "ошибка"}
	other          = 42
)
`

func TestGetRows(t *testing.T) {
	f, err := parser.ParseFile(token.NewFileSet(), "apierrors.go", errorsSrc, 0)
	require.NoError(t, err)

	rows := getRows(f)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"**4001**", "404 *StatusNotFound*", "`doc not found`", "`Документ не найден`"}, rows[0])
	assert.Equal(t, "400 *StatusBadRequest*", rows[1][1])
	assert.Equal(t, "`something went wrong`", rows[1][2])

	var buf bytes.Buffer
	require.NoError(t, writeDocs(&buf, rows))
	assert.Contains(t, buf.String(), "# Перечень кодов ошибок")
	assert.Contains(t, buf.String(), "**4001**")
}
