package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/flashcards-client/internal/locale"
	"github.com/pribylovaa/flashcards-client/internal/models"
	"github.com/pribylovaa/flashcards-client/internal/tokens"
)

func loginCommand(a *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Example: `  flashcards login --email me@example.com
  echo secret | flashcards login --email me@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readSecret(cmd, password, "Password")
			if err != nil {
				return err
			}

			u, err := a.session.Login(cmd.Context(), models.LoginRequest{Email: email, Password: pw})
			if err != nil {
				return err
			}

			a.success(cmd, locale.MsgLoginSuccess, map[string]any{"Name": u.Username})
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func registerCommand(a *App) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readSecret(cmd, password, "Password")
			if err != nil {
				return err
			}

			u, err := a.session.Register(cmd.Context(), models.RegisterRequest{
				Username: username, Email: email, Password: pw,
			})
			if err != nil {
				return err
			}

			a.success(cmd, locale.MsgRegisterSuccess, map[string]any{"Name": u.Username})
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func logoutCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}

			a.success(cmd, locale.MsgLogoutSuccess, nil)
			return nil
		},
	}
}

func whoamiCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.session.Restore(cmd.Context())
			if err != nil {
				return err
			}

			t := newTable()
			t.AddRow("ID:", u.ID)
			t.AddRow("Username:", u.Username)
			t.AddRow("Email:", u.Email)
			t.AddRow("Role:", u.RoleName())
			t.AddRow("Avatar:", a.media.ImageURL(u.AvatarURL))
			t.AddRow("Language:", locale.Normalize(u.Settings.UILanguage))
			t.AddRow("Daily goal:", u.Settings.DailyGoal)
			t.AddRow("Ghost mode:", yesNo(u.Settings.EnableGhostMode))
			if pair, err := a.store.Load(cmd.Context()); err == nil {
				if exp, ok := tokens.AccessExpiry(pair.AccessToken); ok {
					t.AddRow("Token expires:", exp.Local().Format(time.DateTime))
				}
			}
			printTable(cmd, t)

			return nil
		},
	}
}

func passwordCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Forgot, reset or change the password",
	}

	var email string
	forgot := &cobra.Command{
		Use:   "forgot",
		Short: "Request a password reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.svc.Auth.ForgotPassword(cmd.Context(), email); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "If the account exists, a reset link has been sent.")
			return nil
		},
	}
	forgot.Flags().StringVar(&email, "email", "", "account email")
	_ = forgot.MarkFlagRequired("email")

	var token, newPassword string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with a reset token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readSecret(cmd, newPassword, "New password")
			if err != nil {
				return err
			}

			if err := a.svc.Auth.ResetPassword(cmd.Context(), models.ResetPasswordRequest{Token: token, NewPassword: pw}); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Password has been reset. You can log in now.")
			return nil
		},
	}
	reset.Flags().StringVar(&token, "token", "", "reset token from the email")
	reset.Flags().StringVar(&newPassword, "new", "", "new password (read from stdin when empty)")
	_ = reset.MarkFlagRequired("token")

	var current, next string
	change := &cobra.Command{
		Use:   "change",
		Short: "Change the password of the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}

			if err := a.svc.Auth.ChangePassword(cmd.Context(), models.ChangePasswordRequest{
				CurrentPassword: current, NewPassword: next,
			}); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Password changed.")
			return nil
		},
	}
	change.Flags().StringVar(&current, "current", "", "current password")
	change.Flags().StringVar(&next, "new", "", "new password")
	_ = change.MarkFlagRequired("current")
	_ = change.MarkFlagRequired("new")

	cmd.AddCommand(forgot, reset, change)

	return cmd
}
