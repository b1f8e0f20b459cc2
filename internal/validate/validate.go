package validate

import (
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/clipix/backend/internal/apperror"
)

var (
	// CPF has 11 digits, CNPJ has 14
	taxIDPattern = regexp.MustCompile(`^\d{11}$|^\d{14}$`)
	// country code 55 followed by a 10 or 11 digit number
	phonePattern = regexp.MustCompile(`^55\d{10,11}$`)
)

var vld = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("cpfcnpj", func(fl validator.FieldLevel) bool {
		return taxIDPattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("brphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// Struct validates s and returns a 400 error carrying the Portuguese message
// of the first violated field. Messages come from each field's `message` tag.
func Struct(s interface{}) *apperror.Error {
	err := vld.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return apperror.New(fiber.StatusBadRequest, "Dados inválidos")
	}
	return apperror.New(fiber.StatusBadRequest, fieldMessage(s, verrs[0]))
}

func fieldMessage(s interface{}, fe validator.FieldError) string {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if msg := lookupMessage(t, fe.StructField()); msg != "" {
		return msg
	}
	return "Dados inválidos"
}

// lookupMessage finds the `message` tag of the named field, descending into
// nested and embedded structs.
func lookupMessage(t reflect.Type, name string) string {
	if t.Kind() != reflect.Struct {
		return ""
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Name == name {
			return f.Tag.Get("message")
		}
		ft := f.Type
		for ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			if msg := lookupMessage(ft, name); msg != "" {
				return msg
			}
		}
	}
	return ""
}
