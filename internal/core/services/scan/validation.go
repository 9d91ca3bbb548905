package scan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

// DefaultDurationSeconds is used when a request omits the duration.
const DefaultDurationSeconds = 15

// NewValidator returns a validator with the "iface" rule registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("iface", func(fl validator.FieldLevel) bool {
		return domain.IsValidInterface(fl.Field().String())
	})
	return v
}

// ValidateRequest checks req and wraps failures in domain.ErrInvalidRequest.
func ValidateRequest(v *validator.Validate, req domain.ScanRequest) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
	case "iface":
		return fmt.Sprintf("%q is not a valid interface name", fe.Value())
	case "min", "max":
		return fmt.Sprintf("duration must be between 1 and 60 seconds, got %v", fe.Value())
	}
	return fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag())
}
