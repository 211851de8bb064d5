// locale нормализует коды языка интерфейса и локализует сообщения CLI.
// Поддерживаются vi и en; всё остальное сводится к языку по умолчанию.
package locale

import (
	"strings"

	"golang.org/x/text/language"
)

const (
	Vietnamese = "vi"
	English    = "en"

	// Default — язык, если код пуст или не поддерживается.
	Default = Vietnamese
)

// Supported — поддерживаемые коды в порядке предпочтения.
var Supported = []string{Vietnamese, English}

var supportedTags = []language.Tag{language.Vietnamese, language.English}

// Normalize сводит "Vi", "en-US", "vi_VN" и т.п. к двухбуквенному коду.
// Неизвестный или пустой код — Default.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return Default
	}

	tag, err := language.Parse(code)
	if err != nil {
		// Несинтаксичные значения вроде "EN-" — берём первую часть вручную.
		parts := strings.FieldsFunc(code, isSep)
		if len(parts) > 0 && IsSupported(strings.ToLower(parts[0])) {
			return strings.ToLower(parts[0])
		}
		return Default
	}

	base, _ := tag.Base()
	if IsSupported(base.String()) {
		return base.String()
	}

	return Default
}

// IsSupported — код уже нормализован и поддерживается.
func IsSupported(code string) bool {
	for _, s := range Supported {
		if s == code {
			return true
		}
	}

	return false
}

// Tag — language.Tag нормализованного кода.
func Tag(code string) language.Tag {
	if Normalize(code) == English {
		return language.English
	}

	return language.Vietnamese
}

func isSep(r rune) bool { return r == '-' || r == '_' || r == ' ' }
