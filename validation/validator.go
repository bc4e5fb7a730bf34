package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/kbukum/seqkit/errors"
)

// FieldError is one rejected argument or config field.
type FieldError struct {
	Field   string           `json:"field"`
	Message string           `json:"message"`
	Code    errors.ErrorCode `json:"code"`
}

// FieldErrors is the ordered list of rejections behind one AppError.
type FieldErrors []FieldError

// AppError folds fe into a single AppError listing every field, or returns
// nil when fe is empty. A missing argument anywhere makes the whole error
// MISSING_ARGUMENT.
func (fe FieldErrors) AppError() *errors.AppError {
	if len(fe) == 0 {
		return nil
	}
	code := errors.ErrCodeInvalidArgument
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		if e.Code == errors.ErrCodeMissingArgument {
			code = e.Code
		}
		parts = append(parts, e.Field+": "+e.Message)
	}
	return errors.New(code, strings.Join(parts, "; ")).WithDetail("fields", []FieldError(fe))
}

// Validator accumulates argument checks for one call site. Checks chain:
//
//	validation.New().NotNil("source", src).Min("count", n, 0).MustPass()
type Validator struct {
	errs FieldErrors
}

func New() *Validator { return &Validator{} }

// NotNil rejects a nil interface and a typed nil pointer, func, map, slice
// or channel as a missing argument.
func (v *Validator) NotNil(field string, value any) *Validator {
	if IsNil(value) {
		v.errs = append(v.errs, FieldError{field, "must not be nil", errors.ErrCodeMissingArgument})
	}
	return v
}

// Required rejects a blank string as a missing argument.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errs = append(v.errs, FieldError{field, "is required", errors.ErrCodeMissingArgument})
	}
	return v
}

func (v *Validator) Min(field string, value, least int) *Validator {
	return v.Custom(value >= least, field, fmt.Sprintf("must be at least %d", least))
}

// Custom rejects field with message unless ok holds.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	if !ok {
		v.errs = append(v.errs, FieldError{field, message, errors.ErrCodeInvalidArgument})
	}
	return v
}

func (v *Validator) HasErrors() bool     { return len(v.errs) > 0 }
func (v *Validator) Errors() FieldErrors { return v.errs }

// Validate returns the accumulated errors as one AppError, nil if every
// check passed.
func (v *Validator) Validate() *errors.AppError { return v.errs.AppError() }

// MustPass panics with the Validate error. Operators call it while a
// pipeline is being built, never during enumeration.
func (v *Validator) MustPass() {
	if err := v.Validate(); err != nil {
		panic(err)
	}
}

// IsNil reports whether value is nil or a typed nil.
func IsNil(value any) bool {
	if value == nil {
		return true
	}
	switch rv := reflect.ValueOf(value); rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
