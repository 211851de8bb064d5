package models

import "encoding/json"

// User — публичные данные пользователя.
// Role приходит то числом (0), то строкой ("User"), поэтому храним как есть.
type User struct {
	ID        int64           `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Role      json.RawMessage `json:"role,omitempty"`
	AvatarURL string          `json:"avatarUrl,omitempty"`
}

// RoleName возвращает роль в строковом виде.
func (u User) RoleName() string {
	if len(u.Role) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(u.Role, &s); err == nil {
		return s
	}

	var n int
	if err := json.Unmarshal(u.Role, &n); err == nil {
		switch n {
		case 0:
			return "User"
		case 1:
			return "Admin"
		}
	}

	return string(u.Role)
}

// UserSettingsDTO — настройки аккаунта.
type UserSettingsDTO struct {
	EnableGhostMode bool   `json:"enableGhostMode"`
	DailyGoal       int    `json:"dailyGoal"`
	UILanguage      string `json:"uiLanguage"`
}

// UserProfileDTO — ответ /users/me.
type UserProfileDTO struct {
	User
	Settings UserSettingsDTO `json:"settings"`
}

type UpdateProfileRequest struct {
	Username string `json:"username,omitempty"`
}

type UpdateGhostModeRequest struct {
	Enabled bool `json:"enabled"`
}

type UpdateDailyGoalRequest struct {
	Goal int `json:"goal"`
}

type UpdateLanguageRequest struct {
	Language string `json:"language"`
}

// Границы дневной цели.
const (
	DefaultDailyGoal = 10
	DailyGoalMin     = 1
	DailyGoalMax     = 100
)
