package client

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("client: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// validateURL checks that raw is an absolute URL.
func validateURL(field, raw string) error {
	err := validate.Var(raw, "required,url")
	if err == nil {
		return nil
	}

	var verrors validator.ValidationErrors
	if !errors.As(err, &verrors) || len(verrors) == 0 {
		return &InvalidArgumentError{Field: field, Value: raw, Reason: err.Error()}
	}

	return &InvalidArgumentError{
		Field:  field,
		Value:  raw,
		Reason: strings.TrimSpace(verrors[0].Translate(translator)),
	}
}

// validateStruct validates val against its declared tags, reporting
// one InvalidArgumentError per failing field.
func validateStruct(val any) error {
	err := validate.Struct(val)
	if err == nil {
		return nil
	}

	var verrors validator.ValidationErrors
	if !errors.As(err, &verrors) {
		return err
	}

	errs := make([]error, 0, len(verrors))
	for _, verror := range verrors {
		errs = append(errs, &InvalidArgumentError{
			Field:  verror.Namespace(),
			Value:  valueString(verror.Value()),
			Reason: customErrForTag(verror.Tag(), verror),
		})
	}

	return errors.Join(errs...)
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "required":
		return "is required"
	default:
		return strings.TrimPrefix(verror.Translate(translator), verror.Field()+" ")
	}
}

func valueString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}
