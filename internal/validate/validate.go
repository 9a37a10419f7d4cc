package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	validator "gopkg.in/go-playground/validator.v9"
)

var (
	// CEP: 8 digits, dash optional
	reCEP   = regexp.MustCompile(`^[0-9]{5}-?[0-9]{3}$`)
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ     = regexp.MustCompile(`^[\p{L}\p{N} _'\-]{1,50}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	rePhone = regexp.MustCompile(`^\+?[0-9 ()-]{8,20}$`)
)

// CEP validates a Brazilian postal code and returns it as 8 bare digits.
func CEP(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !reCEP.MatchString(s) {
		return "", false
	}
	return strings.ReplaceAll(s, "-", ""), true
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 120 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := []rune(s); len(r) > 50 {
		s = string(r[:50])
	}
	return s, reQ.MatchString(s)
}

func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	} // clamp to avoid abuse
	return n
}

// ID validates a simple resource identifier (product/category/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Phone accepts digits with the usual separators, 8 to 20 characters.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && rePhone.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len([]rune(s)) > 80 {
		return "", false
	}
	return s, true
}

// Password enforces length and character-class rules for new passwords.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}

var (
	once sync.Once
	v    *validator.Validate
)

// Validator returns the shared struct validator with the store-specific tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("cep", func(fl validator.FieldLevel) bool {
			_, ok := CEP(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			_, ok := Phone(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return reID.MatchString(fl.Field().String())
		})
	})
	return v
}

// FieldError names the first offending field in a user-facing way.
type FieldError struct {
	Field string
	Tag   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s (%s)", e.Field, e.Tag)
}

// Struct validates s and reduces validator errors to a single *FieldError.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &FieldError{Field: strings.ToLower(verrs[0].Field()), Tag: verrs[0].Tag()}
	}
	return err
}
