package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/flashcards-client/internal/locale"
	"github.com/pribylovaa/flashcards-client/internal/models"
)

func storeCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Browse public decks",
	}

	cmd.AddCommand(
		storeBrowseCommand(a),
		storeTrendingCommand(a),
		storeTagsCommand(a),
		storeShowCommand(a),
		storeCloneCommand(a),
	)

	return cmd
}

func printPublicDecks(cmd *cobra.Command, decks []models.PublicDeckDTO) {
	t := newTable("ID", "NAME", "TYPE", "AUTHOR", "CARDS", "DOWNLOADS", "TAGS")
	for _, d := range decks {
		t.AddRow(d.ID, d.Name, d.Type, d.Author.Name, d.TotalCards, d.Downloads, strings.Join(d.Tags, ", "))
	}
	printTable(cmd, t)
}

func storeBrowseCommand(a *App) *cobra.Command {
	var (
		p   models.BrowseDecksParams
		typ string
	)

	cmd := &cobra.Command{
		Use:     "browse",
		Short:   "Search public decks",
		Example: "  flashcards store browse --tag JLPT --tag N5 --keyword vocabulary",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p.Type = models.DeckType(typ)

			page, err := a.svc.Store.Browse(cmd.Context(), p)
			if err != nil {
				return err
			}

			printPublicDecks(cmd, page.Items)
			printPageFooter(cmd, page.Meta)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&p.Page, "page", 1, "page number")
	f.IntVar(&p.PageSize, "page-size", 0, "items per page (server default when 0)")
	f.StringVar(&p.Keyword, "keyword", "", "search in name and description")
	f.StringVar(&typ, "type", "", "Vocabulary|Grammar")
	f.StringSliceVar(&p.Tags, "tag", nil, "deck must have every tag (repeatable)")

	return cmd
}

func storeTrendingCommand(a *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Most downloaded decks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			decks, err := a.svc.Store.Trending(cmd.Context(), limit)
			if err != nil {
				return err
			}

			printPublicDecks(cmd, decks)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", models.DefaultTrendingLimit, "number of decks")

	return cmd
}

func storeTagsCommand(a *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Popular tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tags, err := a.svc.Store.PopularTags(cmd.Context(), limit)
			if err != nil {
				return err
			}

			t := newTable("TAG", "DECKS")
			for _, tag := range tags {
				t.AddRow(tag.Name, tag.Count)
			}
			printTable(cmd, t)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", models.DefaultTagsLimit, "number of tags")

	return cmd
}

func storeShowCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a public deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			d, err := a.svc.Store.Detail(cmd.Context(), id)
			if err != nil {
				return err
			}

			t := newTable()
			t.AddRow("ID:", d.ID)
			t.AddRow("Name:", d.Name)
			t.AddRow("Description:", d.Description)
			t.AddRow("Type:", d.Type)
			t.AddRow("Author:", d.Author.Name)
			t.AddRow("Author avatar:", a.media.ImageURL(d.Author.AvatarURL))
			t.AddRow("Tags:", strings.Join(d.Tags, ", "))
			t.AddRow("Cards:", d.TotalCards)
			t.AddRow("Downloads:", d.Downloads)
			t.AddRow("Created:", d.CreatedAt)
			printTable(cmd, t)
			return nil
		},
	}
}

func storeCloneCommand(a *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "clone ID",
		Short: "Copy a public deck into your library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			d, err := a.svc.Store.Clone(cmd.Context(), id, name)
			if err != nil {
				return err
			}

			a.success(cmd, locale.MsgCloneSuccess, map[string]any{"Name": d.Name})
			fmt.Fprintf(cmd.OutOrStdout(), "id: %d\n", d.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "custom name for the copy")

	return cmd
}
