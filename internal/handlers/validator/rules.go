package validator

import "github.com/go-playground/validator/v10"

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func NewDownloadValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("video_url", videoURLValidator),
		},
		{
			Rule: registerFn("media_format", mediaFormatValidator),
		},
	}
}
