package dto

import (
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	pinRe           = regexp.MustCompile(`^[0-9]{4}$`)
	accountNumberRe = regexp.MustCompile(`^[0-9]{12}$`)
	cardNumberRe    = regexp.MustCompile(`^[0-9]{16}$`)
	phoneRe         = regexp.MustCompile(`^[0-9]{2,3}-?[0-9]{3,4}-?[0-9]{4}$`)
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("pin", matches(pinRe))
		_ = v.RegisterValidation("account_number", matches(accountNumberRe))
		_ = v.RegisterValidation("card_number", matches(cardNumberRe))
		_ = v.RegisterValidation("phone", matches(phoneRe))
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// ValidCardNumber reports whether s looks like a card number path parameter.
func ValidCardNumber(s string) bool {
	return cardNumberRe.MatchString(s)
}

// ValidAccountNumber reports whether s looks like an account number path parameter.
func ValidAccountNumber(s string) bool {
	return accountNumberRe.MatchString(s)
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(sanitize(elem.String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
