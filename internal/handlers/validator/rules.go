package validator

import "github.com/go-playground/validator/v10"

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func NewJobValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("job_title", titleValidator),
		},
		{
			Rule: registerFn("section_type", sectionTypeValidator),
		},
		{
			Rule: registerFn("material_refs", materialRefsValidator),
		},
	}
}

func NewMaterialValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("material_name", nameValidator),
		},
		{
			Rule: registerFn("material_kind", materialKindValidator),
		},
	}
}
