// redact маскирует чувствительные значения перед логированием.
package redact

import "strings"

// Email оставляет первые две руны локальной части и домен.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := []rune(parts[0]), parts[1]
	if len(local) > 2 {
		return string(local[:2]) + "***@" + domain
	}

	return "***@" + domain
}

// TokenTail показывает только хвост токена: этого хватает,
// чтобы отличить две пары токенов в логах, но не восстановить их.
func TokenTail(tok string) string {
	const keep = 4
	if len(tok) <= 3*keep {
		return Token()
	}

	return "..." + tok[len(tok)-keep:]
}

func Token() string { return "[REDACTED_TOKEN]" }
