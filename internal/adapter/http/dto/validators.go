package dto

import (
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strings"

	"banking-ledger/pkg/apperror"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	safeStringRe    = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)
	currencyCodeRe  = regexp.MustCompile(`^[A-Z]{3}$`)
	accountNumberRe = regexp.MustCompile(`^[0-9]+$`)
)

const (
	maxAmountDigits = 10
	maxAmountPlaces = 2
	maxIdempotency  = 100
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("currency_code", validateCurrencyCode)
		_ = v.RegisterValidation("account_number", validateAccountNumber)
	}
}

func validateCurrencyCode(fl validator.FieldLevel) bool {
	return currencyCodeRe.MatchString(fl.Field().String())
}

func validateAccountNumber(fl validator.FieldLevel) bool {
	return accountNumberRe.MatchString(fl.Field().String())
}

// ValidIdempotencyKey allows alphanumeric, underscore, dash, and dot.
func ValidIdempotencyKey(key string) bool {
	return len(key) <= maxIdempotency && safeStringRe.MatchString(key)
}

type amountRule struct {
	ok      func(d *decimal.Decimal) bool
	message string
}

// amountRules run in order; the first failure is reported.
var amountRules = []amountRule{
	{
		ok:      func(d *decimal.Decimal) bool { return d != nil },
		message: "%s is required",
	},
	{
		ok:      func(d *decimal.Decimal) bool { return d.IsPositive() },
		message: "%s must be greater than zero",
	},
	{
		ok:      func(d *decimal.Decimal) bool { return d.Equal(d.Truncate(maxAmountPlaces)) },
		message: "%s must have at most 2 decimal places",
	},
	{
		ok:      func(d *decimal.Decimal) bool { return wholeDigits(*d) <= maxAmountDigits-maxAmountPlaces },
		message: "%s must have at most 10 digits in total",
	},
}

// ValidateAmount runs the money field pipeline: present, positive, at most
// two decimal places, at most ten digits.
func ValidateAmount(field string, d *decimal.Decimal) error {
	for _, rule := range amountRules {
		if !rule.ok(d) {
			return apperror.ErrValidation(fmt.Sprintf(rule.message, field))
		}
	}
	return nil
}

func wholeDigits(d decimal.Decimal) int {
	whole := d.Abs().Truncate(0)
	if whole.IsZero() {
		return 0
	}
	return len(whole.String())
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer. Fields tagged
// `sanitize:"-"` are left as sent.
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
		if !f.CanSet() || rv.Type().Field(i).Tag.Get("sanitize") == "-" {
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
