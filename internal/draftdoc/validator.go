// Валидация тел запросов API документов. Использует go-playground/validator с проверками
// типов блоков, стилей текста и типов медиа.
package draftdoc

import (
	"regexp"
	"unicode/utf8"

	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
	"github.com/go-playground/validator"
)

var blockKeyRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	err := v.RegisterValidation("blockType", blockTypeValidator)
	if err != nil {
		return nil
	}

	err = v.RegisterValidation("inlineStyle", inlineStyleValidator)
	if err != nil {
		return nil
	}

	err = v.RegisterValidation("entityType", entityTypeValidator)
	if err != nil {
		return nil
	}

	err = v.RegisterValidation("blockKey", blockKeyValidator)
	if err != nil {
		return nil
	}

	err = v.RegisterValidation("docTitle", docTitleValidator)
	if err != nil {
		return nil
	}
	return &RequestValidator{v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validator.Struct(i); err != nil {
		_, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil
		}
		return err
	}
	return nil
}

func blockTypeValidator(fl validator.FieldLevel) bool {
	return edtypes.BlockType(fl.Field().String()).Valid()
}

func inlineStyleValidator(fl validator.FieldLevel) bool {
	return edtypes.InlineStyle(fl.Field().String()).Valid()
}

func entityTypeValidator(fl validator.FieldLevel) bool {
	return edtypes.EntityType(fl.Field().String()).Valid()
}

func blockKeyValidator(fl validator.FieldLevel) bool {
	return blockKeyRegexp.MatchString(fl.Field().String())
}

func docTitleValidator(fl validator.FieldLevel) bool {
	lenStr := utf8.RuneCountInString(fl.Field().String())
	return lenStr >= 1 && lenStr <= 150
}
