package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessExpiry читает exp из access-токена без проверки подписи.
// Подпись проверяет сервер; клиенту нужно только показать срок действия.
// Для непрозрачных (не JWT) токенов ok=false.
func AccessExpiry(access string) (exp time.Time, ok bool) {
	if access == "" {
		return time.Time{}, false
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(access, &claims); err != nil {
		return time.Time{}, false
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	return claims.ExpiresAt.Time, true
}
