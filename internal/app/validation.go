package app

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"order-service/internal/core"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ValidationError lists the request fields that failed validation, keyed by
// their JSON path. It matches core.ErrInvalidOrder with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return fmt.Sprintf("%s: %s", core.ErrInvalidOrder, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return core.ErrInvalidOrder
}

// newValidator returns a validator that reports JSON field names and compares
// decimal.Decimal values numerically.
func newValidator() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func validationError(err error) error {
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", core.ErrInvalidOrder, err)
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		fields[path] = describeFieldError(fe)
	}
	return &ValidationError{Fields: fields}
}

func describeFieldError(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return "is required when " + fe.Param() + " is empty"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a UUID"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	}
	return "failed on " + fe.Tag()
}
