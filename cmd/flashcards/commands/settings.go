package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/flashcards-client/internal/locale"
	"github.com/pribylovaa/flashcards-client/internal/models"
)

func settingsCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change account settings",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.requireLogin(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.svc.Users.Settings(cmd.Context())
			if err != nil {
				return err
			}

			t := newTable()
			t.AddRow("Language:", locale.Normalize(s.UILanguage))
			t.AddRow("Daily goal:", s.DailyGoal)
			t.AddRow("Ghost mode:", yesNo(s.EnableGhostMode))
			printTable(cmd, t)
			return nil
		},
	}

	ghost := &cobra.Command{
		Use:       "ghost-mode on|off",
		Short:     "Hide your activity from others",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch args[0] {
			case "on":
				enabled = true
			case "off":
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}

			if err := a.svc.Users.UpdateGhostMode(cmd.Context(), enabled); err != nil {
				return err
			}

			a.success(cmd, locale.MsgSettingsUpdated, nil)
			return nil
		},
	}

	goal := &cobra.Command{
		Use:   "daily-goal N",
		Short: fmt.Sprintf("Cards per day (%d-%d)", models.DailyGoalMin, models.DailyGoalMax),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("daily goal must be a number: %w", err)
			}

			if err := a.svc.Users.UpdateDailyGoal(cmd.Context(), n); err != nil {
				return err
			}

			a.success(cmd, locale.MsgSettingsUpdated, nil)
			return nil
		},
	}

	lang := &cobra.Command{
		Use:       "language vi|en",
		Short:     "Interface language",
		Args:      cobra.ExactArgs(1),
		ValidArgs: locale.Supported,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !locale.IsSupported(strings.ToLower(args[0])) {
				return fmt.Errorf("unsupported language %q", args[0])
			}

			code, err := a.svc.Users.UpdateLanguage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.session.SetLanguage(code)

			a.success(cmd, locale.MsgSettingsUpdated, nil)
			return nil
		},
	}

	cmd.AddCommand(ghost, goal, lang)

	return cmd
}

func profileCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update your profile",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.requireLogin(cmd.Context())
		},
	}

	var username string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change the display name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.svc.Users.UpdateProfile(cmd.Context(), models.UpdateProfileRequest{Username: username}); err != nil {
				return err
			}

			a.success(cmd, locale.MsgSettingsUpdated, nil)
			return nil
		},
	}
	update.Flags().StringVar(&username, "username", "", "new display name")
	_ = update.MarkFlagRequired("username")

	avatar := &cobra.Command{
		Use:   "avatar FILE",
		Short: "Upload an avatar image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			path, err := a.svc.Users.UploadAvatar(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), a.media.ImageURL(path))
			return nil
		},
	}

	cmd.AddCommand(update, avatar)

	return cmd
}
