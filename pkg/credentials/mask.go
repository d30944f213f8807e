package credentials

import (
	"strings"

	masker "github.com/goliatone/go-masker"
)

var defaultSecretFields = []string{
	"private_key", "privateKey",
	"jwt_secret", "encryption_key",
	"auth", "p256dh",
}

func init() {
	for _, field := range defaultSecretFields {
		masker.Default.RegisterMaskField(field, "preserveEnds(2,2)")
	}
}

// Mask renders a secret safe for logging.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if masked, err := masker.Default.String("preserveEnds(2,2)", value); err == nil {
		return masked
	}
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}
