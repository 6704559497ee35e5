package cryptotax

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/etnz/cryptotax/date"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// validate checks drafts and details. Field names reported are the json
// names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// validator knows nothing of decimals and dates, compare them as numbers
	// and strings. An absent NullDecimal is 0, so it passes range checks.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		switch x := field.Interface().(type) {
		case decimal.Decimal:
			return x.InexactFloat64()
		case decimal.NullDecimal:
			if !x.Valid {
				return float64(0)
			}
			return x.Decimal.InexactFloat64()
		case date.Date:
			if x.IsZero() {
				return ""
			}
			return x.String()
		}
		return nil
	}, decimal.Decimal{}, decimal.NullDecimal{}, date.Date{})
	return v
}

// validateStruct runs the validator on s and converts the first failure into
// a ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &ValidationError{Field: fe.Field(), Reason: reason(fe)}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed on %q", fe.Tag())
	}
}
