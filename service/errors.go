package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"feature-rollout/repository"
)

var (
	// ErrNotFound - referenced feature, group or flag does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation - uniqueness or required-field invariant violated.
	ErrValidation = errors.New("validation failure")

	// ErrStorage - the persistence layer is unreachable or failed.
	ErrStorage = errors.New("storage failure")

	ErrServiceLoaderNotConfigured = errors.New("loader not configured")
)

// ValidationError reports the field and the rule that failed.
type ValidationError struct {
	Field string
	Rule  string
	Value any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: field {%s} failed on {%s} with value {%v}", ErrValidation, e.Field, e.Rule, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(field, rule string, value any) error {
	return &ValidationError{Field: field, Rule: rule, Value: value}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct converts validator errors into joined ValidationError values
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, newValidationError(fe.Field(), fe.Tag(), fe.Value()))
	}
	return errors.Join(errs...)
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s - {%w}", ErrStorage, op, err)
}

func notFoundError(what, name string) error {
	return fmt.Errorf("%w: %s {%s}", ErrNotFound, what, name)
}

// translate maps repository errors onto service error kinds
func translate(op, what, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFoundError(what, name)
	case errors.Is(err, repository.ErrAlreadyExists):
		return newValidationError(what, "unique", name)
	default:
		return storageError(op, err)
	}
}
