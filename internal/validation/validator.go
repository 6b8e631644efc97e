package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator wraps go-playground/validator with English translations so
// callers get field -> message maps instead of raw tag errors.
type Validator struct {
	validate *govalidator.Validate
	trans    ut.Translator
}

// New builds the validator with JSON tag names and English translations.
func New() *Validator {
	v := govalidator.New()

	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	en_translations.RegisterDefaultTranslations(v, trans)

	return &Validator{validate: v, trans: trans}
}

// Struct validates dst by its validate tags. Returns nil on success or a
// field -> human-readable message map on failure.
func (v *Validator) Struct(dst interface{}) map[string]string {
	err := v.validate.Struct(dst)
	if err == nil {
		return nil
	}
	return v.translate(err)
}

func (v *Validator) translate(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(v.trans)
		}
		return fields
	}

	// Not a validation error (e.g. an invalid target type).
	fields["detail"] = err.Error()
	return fields
}

// FirstError flattens a field error map into a single "field: message" string.
func FirstError(fields map[string]string) string {
	for field, msg := range fields {
		if field == "detail" {
			return msg
		}
		return field + ": " + msg
	}
	return "validation failed"
}
