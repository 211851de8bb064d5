package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	apierrors "github.com/pribylovaa/flashcards-client/internal/errors"
	"github.com/pribylovaa/flashcards-client/internal/locale"
	"github.com/pribylovaa/flashcards-client/internal/models"
	"github.com/pribylovaa/flashcards-client/internal/session"
)

const (
	okSymbol   = "✔ "
	failSymbol = "✗ "
)

// printError печатает ошибку для человека: сессионные ошибки локализованы,
// ошибки API показываются сообщением сервера.
func (a *App) printError(w io.Writer, err error) {
	msg := err.Error()

	switch {
	case errors.Is(err, session.ErrNotLoggedIn):
		msg = a.t(locale.MsgNotLoggedIn, nil)
	case apierrors.IsSessionExpired(err):
		msg = a.t(locale.MsgSessionExpired, nil)
	default:
		if apiErr, ok := apierrors.As(err); ok {
			msg = apiErr.Error()
			if a.flags.verbose && apiErr.RequestID != "" {
				msg += " (request_id=" + apiErr.RequestID + ")"
			}
		}
	}

	fmt.Fprintln(w, color.RedString("%s%s", failSymbol, msg))
}

func (a *App) success(cmd *cobra.Command, id string, data map[string]any) {
	fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("%s%s", okSymbol, a.t(id, data)))
}

// readSecret возвращает value или читает строку из stdin.
func readSecret(cmd *cobra.Command, value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), prompt+": ")
	sc := bufio.NewScanner(cmd.InOrStdin())
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%s is required", strings.ToLower(prompt))
	}

	return strings.TrimSpace(sc.Text()), nil
}

func newTable(header ...any) *uitable.Table {
	t := uitable.New()
	t.MaxColWidth = 48
	t.Wrap = true
	if len(header) > 0 {
		t.AddRow(header...)
	}

	return t
}

func printTable(cmd *cobra.Command, t *uitable.Table) {
	fmt.Fprintln(cmd.OutOrStdout(), t)
}

func printPageFooter(cmd *cobra.Command, meta models.MetaData) {
	if meta.Pages() <= 1 {
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\npage %d/%d, total %d", meta.Page, meta.Pages(), meta.Total)
	if meta.HasNext() {
		fmt.Fprintf(cmd.OutOrStdout(), ", next: --page %d", meta.Page+1)
	}
	fmt.Fprintln(cmd.OutOrStdout())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}

	return "no"
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}

	return id, nil
}
