package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/draftforge/draftforge/internal/compose"
)

var (
	nameValidRegex  = regexp.MustCompile("^[a-zA-Z0-9+-_.]+$")
	titleValidRegex = regexp.MustCompile(`^[^\x00-\x1f]{1,255}$`)
)

func nameValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return nameValidRegex.MatchString(val)
}

func titleValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return titleValidRegex.MatchString(val)
}

func sectionTypeValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return compose.KnownSectionType(val)
}

// materialRefsValidator requires at least one reference and each one to
// be a valid uuid. Identity inputs cannot be empty.
func materialRefsValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}

	if len(val) == 0 {
		return false
	}

	for _, id := range val {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}

	return true
}

func materialKindValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	switch val {
	case "note", "transcript", "reference":
		return true
	default:
		return false
	}
}
