package store

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"spesometro/internal/core"
)

// inputValidator checks mutation inputs with struct tags and turns the first
// failure into the matching core sentinel, keeping the translated message as
// detail.
type inputValidator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func newInputValidator() *inputValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})

	eng := en.New()
	uni := ut.New(eng, eng)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, trans)
	_ = validate.RegisterTranslation("finite", trans,
		func(t ut.Translator) error {
			return t.Add("finite", "{0} must be a finite number", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T("finite", fe.Field())
			return msg
		})

	return &inputValidator{validate: validate, trans: trans}
}

func (v *inputValidator) check(in any) error {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate input: %w", err)
	}
	fe := verrs[0]
	msg := fe.Translate(v.trans)
	switch fe.StructField() {
	case "Amount":
		return fmt.Errorf("%w: %s", core.ErrInvalidAmount, msg)
	case "Description":
		return fmt.Errorf("%w: %s", core.ErrEmptyDescription, msg)
	case "Name":
		return fmt.Errorf("%w: %s", core.ErrEmptyCategoryName, msg)
	default:
		return fmt.Errorf("invalid input: %s", msg)
	}
}
