package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator is a wrapper around go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance with custom validation rules
func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("ramp_descending", rampDescending)

	return &Validator{
		validate: v,
	}
}

// Validate validates a struct using validation tags
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return v.formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors into readable messages
func (v *Validator) formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		var messages []string
		for _, e := range validationErrs {
			messages = append(messages, fmt.Sprintf(
				"field '%s' failed validation: %s (value: '%v')",
				e.Field(),
				e.Tag(),
				e.Value(),
			))
		}
		return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
	}
	return err
}

// rampDescending accepts a []RampStepConfig whose thresholds strictly
// decrease, since the controller takes the first step that matches.
func rampDescending(fl validator.FieldLevel) bool {
	ramp, ok := fl.Field().Interface().([]RampStepConfig)
	if !ok {
		return false
	}
	for i := 1; i < len(ramp); i++ {
		if ramp[i].SecondsRemaining >= ramp[i-1].SecondsRemaining {
			return false
		}
	}
	return true
}

// ValidateConfig validates the entire configuration
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	if err := v.Validate(cfg); err != nil {
		return err
	}
	if _, err := cfg.Tuning.ToTable(); err != nil {
		return fmt.Errorf("tuning: %w", err)
	}
	return nil
}

// ValidateTuning validates a tuning section on its own.
func ValidateTuning(t *TuningConfig) error {
	if err := NewValidator().Validate(t); err != nil {
		return err
	}
	if _, err := t.ToTable(); err != nil {
		return fmt.Errorf("tuning: %w", err)
	}
	return nil
}
