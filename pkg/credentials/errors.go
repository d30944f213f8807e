package credentials

import (
	"errors"
	"strings"
)

var (
	ErrNotFound   = errors.New("credentials: not found")
	ErrInvalidRef = errors.New("credentials: invalid reference")
	ErrEmptyValue = errors.New("credentials: empty value")
	ErrInvalidKey = errors.New("credentials: invalid encryption key")
)

// ValidateReference performs basic checks on a reference.
func ValidateReference(ref Reference) error {
	if strings.TrimSpace(ref.WidgetID) == "" || strings.TrimSpace(ref.Key) == "" {
		return ErrInvalidRef
	}
	return nil
}
