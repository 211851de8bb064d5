package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/pribylovaa/flashcards-client/internal/client"
	"github.com/pribylovaa/flashcards-client/internal/locale"
	"github.com/pribylovaa/flashcards-client/internal/models"
)

// UserService — профиль (/users) и настройки (/settings).
type UserService struct {
	c *client.Client
}

// Me — профиль текущего пользователя вместе с настройками.
func (s *UserService) Me(ctx context.Context) (models.UserProfileDTO, error) {
	const op = "services.users.Me"

	out, err := get[models.UserProfileDTO](ctx, s.c, "/users/me", nil)
	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in models.UpdateProfileRequest) error {
	const op = "services.users.UpdateProfile"

	if _, err := call[bool](ctx, s.c, http.MethodPatch, "/users/info", in); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UploadAvatar отправляет файл полем "file" multipart-формы и
// возвращает путь загруженного аватара.
func (s *UserService) UploadAvatar(ctx context.Context, filename string, r io.Reader) (string, error) {
	const op = "services.users.UploadAvatar"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	n, err := io.Copy(fw, r)
	if err != nil {
		return "", fmt.Errorf("%s: read file: %w", op, err)
	}
	if n == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyAvatar)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	out, err := client.Call[string](ctx, s.c, &client.Request{
		Method:      http.MethodPost,
		Path:        "/users/avatar",
		Body:        buf.Bytes(),
		ContentType: mw.FormDataContentType(),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *UserService) Settings(ctx context.Context) (models.UserSettingsDTO, error) {
	const op = "services.users.Settings"

	out, err := get[models.UserSettingsDTO](ctx, s.c, "/settings", nil)
	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *UserService) UpdateGhostMode(ctx context.Context, enabled bool) error {
	const op = "services.users.UpdateGhostMode"

	if _, err := call[bool](ctx, s.c, http.MethodPatch, "/settings/ghost-mode", models.UpdateGhostModeRequest{Enabled: enabled}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateDailyGoal проверяет диапазон до запроса.
func (s *UserService) UpdateDailyGoal(ctx context.Context, goal int) error {
	const op = "services.users.UpdateDailyGoal"

	if goal < models.DailyGoalMin || goal > models.DailyGoalMax {
		return fmt.Errorf("%s: %w: %d not in [%d, %d]", op, ErrInvalidDailyGoal, goal, models.DailyGoalMin, models.DailyGoalMax)
	}

	if _, err := call[bool](ctx, s.c, http.MethodPatch, "/settings/daily-goal", models.UpdateDailyGoalRequest{Goal: goal}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateLanguage отправляет нормализованный код (vi|en) и возвращает его.
func (s *UserService) UpdateLanguage(ctx context.Context, code string) (string, error) {
	const op = "services.users.UpdateLanguage"

	lang := locale.Normalize(code)
	if _, err := call[bool](ctx, s.c, http.MethodPatch, "/settings/language", models.UpdateLanguageRequest{Language: lang}); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return lang, nil
}
