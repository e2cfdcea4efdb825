package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RecordValidator checks parsed input records against their struct tags.
// It is safe for concurrent use.
type RecordValidator struct {
	validate *validator.Validate
}

// NewRecordValidator creates a record validator
func NewRecordValidator() *RecordValidator {
	return &RecordValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate returns nil for a valid record, otherwise an error naming every
// failing field and rule.
func (v *RecordValidator) Validate(record any) error {
	err := v.validate.Struct(record)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s=%v fails %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%v fails %s", fe.Field(), fe.Value(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}
