package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/flashcards-client/internal/models"
)

func decksCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decks",
		Short: "Manage your decks",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.requireLogin(cmd.Context())
		},
	}

	cmd.AddCommand(
		decksListCommand(a),
		decksShowCommand(a),
		decksStatsCommand(a),
		decksCreateCommand(a),
		decksUpdateCommand(a),
		decksPublishCommand(a),
		decksDeleteCommand(a),
		decksResetCommand(a),
	)

	return cmd
}

func decksListCommand(a *App) *cobra.Command {
	var (
		p       models.ListDecksParams
		typ     string
		sortBy  string
		public  bool
		private bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your decks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p.Type = models.DeckType(typ)
			p.SortBy = models.DeckSortBy(sortBy)
			switch {
			case public && private:
				return fmt.Errorf("--public and --private are mutually exclusive")
			case public:
				p.IsPublic = &public
			case private:
				v := false
				p.IsPublic = &v
			}

			page, err := a.svc.Decks.List(cmd.Context(), p)
			if err != nil {
				return err
			}

			t := newTable("ID", "NAME", "TYPE", "CARDS", "DUE", "PROGRESS", "PUBLIC", "TAGS")
			for _, d := range page.Items {
				t.AddRow(d.ID, d.Name, d.Type, d.Stats.TotalCards, d.Stats.CardsDue,
					fmt.Sprintf("%d%%", d.Stats.Progress), yesNo(d.IsPublic), strings.Join(d.Tags, ", "))
			}
			printTable(cmd, t)
			printPageFooter(cmd, page.Meta)

			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&p.Page, "page", 1, "page number")
	f.IntVar(&p.PageSize, "page-size", 0, "items per page (server default when 0)")
	f.StringVar(&typ, "type", "", "Vocabulary|Grammar")
	f.StringVar(&sortBy, "sort", "", "CardsDue|Name|CreatedAt|Progress")
	f.StringVar(&p.SortOrder, "order", "", "asc|desc")
	f.BoolVar(&public, "public", false, "only published decks")
	f.BoolVar(&private, "private", false, "only private decks")

	return cmd
}

func printDeckDetail(cmd *cobra.Command, d models.UserDeckDetailDTO) {
	t := newTable()
	t.AddRow("ID:", d.ID)
	t.AddRow("Name:", d.Name)
	t.AddRow("Description:", deref(d.Description))
	t.AddRow("Type:", d.Type)
	t.AddRow("Public:", yesNo(d.IsPublic))
	if d.ParentDeckID != nil {
		t.AddRow("Cloned from:", *d.ParentDeckID)
	}
	t.AddRow("Tags:", strings.Join(d.Tags, ", "))
	t.AddRow("Cards:", d.TotalCards)
	t.AddRow("Downloads:", d.Downloads)
	t.AddRow("Created:", d.CreatedAt)
	printTable(cmd, t)
}

func decksShowCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			d, err := a.svc.Decks.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			printDeckDetail(cmd, d)
			return nil
		},
	}
}

func decksStatsCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Totals across all your decks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.svc.Decks.Statistics(cmd.Context())
			if err != nil {
				return err
			}

			printStatistics(cmd, s)
			return nil
		},
	}
}

func printStatistics(cmd *cobra.Command, s models.DeckStatisticsDTO) {
	t := newTable()
	t.AddRow("Decks:", fmt.Sprintf("%d (public %d, private %d)", s.TotalDecks, s.PublicDecks, s.PrivateDecks))
	t.AddRow("Cards:", s.TotalCards)
	t.AddRow("Learned:", s.TotalLearned)
	t.AddRow("Due:", s.TotalDue)
	t.AddRow("Progress:", fmt.Sprintf("%d%%", s.OverallProgress))
	for _, typ := range []models.DeckType{models.DeckVocabulary, models.DeckGrammar} {
		t.AddRow(string(typ)+":", s.DecksByType[string(typ)])
	}
	printTable(cmd, t)
}

func decksCreateCommand(a *App) *cobra.Command {
	var (
		in     models.CreateDeckRequest
		typ    string
		public bool
		parent int64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a deck",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Type = models.DeckType(typ)
			if cmd.Flags().Changed("public") {
				in.IsPublic = &public
			}
			if parent > 0 {
				in.ParentDeckID = &parent
			}

			d, err := a.svc.Decks.Create(cmd.Context(), in)
			if err != nil {
				return err
			}

			printDeckDetail(cmd, d)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "deck name")
	f.StringVar(&in.Description, "description", "", "deck description")
	f.StringVar(&typ, "type", string(models.DeckVocabulary), "Vocabulary|Grammar")
	f.BoolVar(&public, "public", false, "publish to the store")
	f.Int64Var(&parent, "parent", 0, "parent deck id")
	f.StringSliceVar(&in.Tags, "tag", nil, "tag (repeatable)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func decksUpdateCommand(a *App) *cobra.Command {
	var (
		name, description string
		public            bool
		tags              []string
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update name, description, visibility or tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var in models.UpdateDeckRequest
			f := cmd.Flags()
			if f.Changed("name") {
				in.Name = &name
			}
			if f.Changed("description") {
				in.Description = &description
			}
			if f.Changed("public") {
				in.IsPublic = &public
			}
			if f.Changed("tag") {
				in.Tags = tags
			}

			d, err := a.svc.Decks.Update(cmd.Context(), id, in)
			if err != nil {
				return err
			}

			printDeckDetail(cmd, d)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "new name")
	f.StringVar(&description, "description", "", "new description")
	f.BoolVar(&public, "public", false, "visibility in the store")
	f.StringSliceVar(&tags, "tag", nil, "replace tags (repeatable)")

	return cmd
}

func decksPublishCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "publish ID",
		Short: "Toggle deck visibility in the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			d, err := a.svc.Decks.TogglePublish(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deck %d public: %s\n", d.ID, yesNo(d.IsPublic))
			return nil
		},
	}
}

func decksDeleteCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a deck with its cards and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := a.svc.Decks.Delete(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deck %d deleted.\n", id)
			return nil
		},
	}
}

func decksResetCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset ID",
		Short: "Reset learning progress, cards stay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := a.svc.Decks.ResetProgress(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Progress of deck %d reset.\n", id)
			return nil
		},
	}
}
