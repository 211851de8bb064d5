package locale

import (
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Идентификаторы сообщений CLI.
const (
	MsgSessionExpired  = "session_expired"
	MsgLoginSuccess    = "login_success"
	MsgRegisterSuccess = "register_success"
	MsgLogoutSuccess   = "logout_success"
	MsgCloneSuccess    = "clone_success"
	MsgSettingsUpdated = "settings_updated"
	MsgNotLoggedIn     = "not_logged_in"
)

var catalog = map[language.Tag][]*i18n.Message{
	language.Vietnamese: {
		{ID: MsgSessionExpired, Other: "Phiên đăng nhập đã hết hạn. Vui lòng đăng nhập lại."},
		{ID: MsgLoginSuccess, Other: "Đăng nhập thành công. Xin chào, {{.Name}}!"},
		{ID: MsgRegisterSuccess, Other: "Đăng ký thành công. Chào mừng, {{.Name}}!"},
		{ID: MsgLogoutSuccess, Other: "Đã đăng xuất."},
		{ID: MsgCloneSuccess, Other: "Đã thêm bộ thẻ \"{{.Name}}\" vào thư viện của bạn."},
		{ID: MsgSettingsUpdated, Other: "Đã cập nhật cài đặt."},
		{ID: MsgNotLoggedIn, Other: "Bạn chưa đăng nhập."},
	},
	language.English: {
		{ID: MsgSessionExpired, Other: "Your session has expired. Please log in again."},
		{ID: MsgLoginSuccess, Other: "Logged in. Welcome, {{.Name}}!"},
		{ID: MsgRegisterSuccess, Other: "Account created. Welcome, {{.Name}}!"},
		{ID: MsgLogoutSuccess, Other: "Logged out."},
		{ID: MsgCloneSuccess, Other: "Deck \"{{.Name}}\" added to your library."},
		{ID: MsgSettingsUpdated, Other: "Settings updated."},
		{ID: MsgNotLoggedIn, Other: "You are not logged in."},
	},
}

// Localizer переводит сообщения CLI на язык пользователя.
type Localizer struct {
	lang string
	loc  *i18n.Localizer
}

// NewLocalizer создаёт локализатор для кода языка (нормализуется).
func NewLocalizer(code string) *Localizer {
	bundle := i18n.NewBundle(language.Vietnamese)
	for tag, msgs := range catalog {
		_ = bundle.AddMessages(tag, msgs...)
	}

	return &Localizer{lang: Normalize(code), loc: i18n.NewLocalizer(bundle, Tag(code).String())}
}

// Lang — нормализованный код языка.
func (l *Localizer) Lang() string { return l.lang }

// T возвращает сообщение id с подстановкой data; неизвестный id — сам id.
func (l *Localizer) T(id string, data map[string]any) string {
	s, err := l.loc.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		return id
	}

	return s
}
