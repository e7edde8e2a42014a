package validator

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"k8s.io/apimachinery/pkg/util/sets"
)

var supportedFormats = sets.New("mp4", "mp3")

// SupportedFormats returns the accepted output formats, sorted.
func SupportedFormats() []string {
	return sets.List(supportedFormats)
}

func videoURLValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	if !strings.HasPrefix(val, "http://") && !strings.HasPrefix(val, "https://") {
		return false
	}

	u, err := url.Parse(val)
	if err != nil {
		return false
	}
	return u.Host != ""
}

func mediaFormatValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return supportedFormats.Has(val)
}
