package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pribylovaa/flashcards-client/internal/client"
	"github.com/pribylovaa/flashcards-client/internal/models"
)

// AuthService — /auth/* и смена пароля. Токены не сохраняет:
// это делает менеджер сессии.
type AuthService struct {
	c *client.Client
}

func (s *AuthService) Login(ctx context.Context, in models.LoginRequest) (models.AuthDTO, error) {
	const op = "services.auth.Login"

	out, err := callAnonymous[models.AuthDTO](ctx, s.c, "/auth/login", in)
	if err != nil {
		return models.AuthDTO{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *AuthService) Register(ctx context.Context, in models.RegisterRequest) (models.AuthDTO, error) {
	const op = "services.auth.Register"

	out, err := callAnonymous[models.AuthDTO](ctx, s.c, "/auth/register", in)
	if err != nil {
		return models.AuthDTO{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ForgotPassword запрашивает письмо со ссылкой сброса.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	const op = "services.auth.ForgotPassword"

	if _, err := callAnonymous[bool](ctx, s.c, "/auth/forgot-password", models.ForgotPasswordRequest{Email: email}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, in models.ResetPasswordRequest) error {
	const op = "services.auth.ResetPassword"

	if _, err := callAnonymous[bool](ctx, s.c, "/auth/reset-password", in); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ChangePassword — PATCH /users/password, требует авторизации.
func (s *AuthService) ChangePassword(ctx context.Context, in models.ChangePasswordRequest) error {
	const op = "services.auth.ChangePassword"

	if _, err := call[bool](ctx, s.c, http.MethodPatch, "/users/password", in); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
