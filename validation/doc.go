// Package validation checks arguments and configuration.
//
// Operators use the programmatic Validator to reject nil sources, selectors
// and comparers while a pipeline is being built:
//
//	validation.New().
//	    NotNil("source", source).
//	    NotNil("predicate", predicate).
//	    MustPass()
//
// Configuration structs are checked with struct tags (validator/v10):
//
//	type Store struct {
//	    Path string `mapstructure:"path" validate:"required"`
//	}
//	err := validation.Validate(cfg)
package validation
