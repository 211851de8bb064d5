// commands — команды CLI flashcards поверх internal/services и
// internal/session.
package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var version = "v0.0.0"

// Корневой PersistentPreRunE поднимает App, дочерние группы добавляют
// к нему проверку входа.
func init() {
	cobra.EnableTraverseRunHooks = true
}

// Execute запускает CLI с аргументами args и возвращает код выхода.
func Execute(ctx context.Context, args []string) int {
	root, a := NewRootCMD()
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		a.printError(root.ErrOrStderr(), err)
		return 1
	}

	return 0
}

// NewRootCMD собирает дерево команд. Приложение (конфиг, клиент,
// хранилище токенов) поднимается в PersistentPreRunE один раз на запуск.
func NewRootCMD() (*cobra.Command, *App) {
	a := &App{}

	cmd := &cobra.Command{
		Use:           "flashcards",
		Short:         "Flashcards API client",
		Long:          "Command line client for the flashcards REST API: decks, public store, profile and settings.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context(), cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.flags.config, "config", "", "path to config file")
	flags.StringVar(&a.flags.lang, "lang", "", "message language (vi|en), defaults to the account setting")
	flags.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logs to stderr")

	cmd.AddCommand(
		loginCommand(a),
		registerCommand(a),
		logoutCommand(a),
		whoamiCommand(a),
		passwordCommand(a),
		decksCommand(a),
		storeCommand(a),
		settingsCommand(a),
		profileCommand(a),
		dashboardCommand(a),
	)

	return cmd, a
}
