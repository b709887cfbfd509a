package core

import (
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// signal_type accepts only tags from KnownSignalTypes.
	_ = validate.RegisterValidation("signal_type", func(fl validator.FieldLevel) bool {
		return IsKnownSignalType(fl.Field().String())
	})
}

// ValidateStruct runs tag-based validation on any annotated struct.
func ValidateStruct(v any) error {
	return validate.Struct(v)
}

// Validate checks a signal definition against its field constraints.
func (s Signal) Validate() error {
	if err := validate.Struct(s); err != nil {
		return WrapError(ErrInvalidSignal, err)
	}
	return nil
}
