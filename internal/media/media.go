// media строит абсолютные URL картинок (аватары, обложки), которые API
// отдаёт относительными путями.
package media

import (
	"strings"
)

// Resolver собирает URL относительно базы картинок.
type Resolver struct {
	base string
}

// NewResolver: imageBaseURL имеет приоритет; если он пуст, база — apiURL
// без завершающего /api.
func NewResolver(imageBaseURL, apiURL string) Resolver {
	base := strings.TrimSpace(imageBaseURL)
	if base == "" {
		base = strings.TrimRight(strings.TrimSpace(apiURL), "/")
		base = strings.TrimSuffix(base, "/api")
	}

	return Resolver{base: strings.TrimRight(base, "/")}
}

// ImageURL: пустой путь — ""; http(s)- и data-URL возвращаются как есть;
// иначе путь присоединяется к базе без двойных слэшей.
func (r Resolver) ImageURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http") || strings.HasPrefix(path, "data:") {
		return path
	}

	return r.base + "/" + strings.TrimLeft(path, "/")
}
