package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/seqkit/errors"
)

var tags = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	return v
})

// fieldName names a field by its config key: the mapstructure tag, else the
// yaml tag, else the Go name.
func fieldName(f reflect.StructField) string {
	for _, key := range []string{"mapstructure", "yaml"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// Validate checks s against its `validate` struct tags. Nested structs are
// checked too. Violations are reported as one INVALID_ARGUMENT error whose
// "fields" detail lists them by dotted config path.
func Validate(s any) error {
	err := tags().Struct(s)
	if err == nil {
		return nil
	}
	violations, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.InvalidArgument("config", err.Error())
	}

	fe := make(FieldErrors, 0, len(violations))
	for _, e := range violations {
		fe = append(fe, FieldError{Field: configPath(e.Namespace()), Message: describe(e), Code: errors.ErrCodeInvalidArgument})
	}
	return fe.AppError()
}

// configPath drops the root type name from a validator namespace.
func configPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + e.Param()
	case "max", "lte":
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "hostname_port":
		return "must be a host:port address"
	case "url":
		return "must be a valid URL"
	}
	return "fails " + e.Tag()
}
