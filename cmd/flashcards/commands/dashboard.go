package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/flashcards-client/internal/models"
)

const dashboardTopN = 5

// dashboard — данные главного экрана одним снимком.
type dashboard struct {
	user     models.UserProfileDTO
	stats    models.DeckStatisticsDTO
	due      []models.UserDeckSummaryDTO
	trending []models.PublicDeckDTO
}

// loadDashboard запрашивает разделы параллельно. Если access-токен истёк,
// все запросы получат 401 одновременно и дождутся одного refresh.
func (a *App) loadDashboard(ctx context.Context) (dashboard, error) {
	var d dashboard

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := a.session.Restore(ctx)
		d.user = u
		return err
	})
	g.Go(func() error {
		s, err := a.svc.Decks.Statistics(ctx)
		d.stats = s
		return err
	})
	g.Go(func() error {
		page, err := a.svc.Decks.List(ctx, models.ListDecksParams{
			PageSize:  dashboardTopN,
			SortBy:    models.SortCardsDue,
			SortOrder: "desc",
		})
		d.due = page.Items
		return err
	})
	g.Go(func() error {
		decks, err := a.svc.Store.Trending(ctx, dashboardTopN)
		d.trending = decks
		return err
	})

	if err := g.Wait(); err != nil {
		return dashboard{}, err
	}

	return d, nil
}

func dashboardCommand(a *App) *cobra.Command {
	var watch time.Duration

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Profile, totals, due decks and trending decks at a glance",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.requireLogin(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			for {
				d, err := a.loadDashboard(ctx)
				if err != nil {
					return err
				}
				a.printDashboard(cmd, d)

				if watch <= 0 {
					return nil
				}

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(watch):
					fmt.Fprintln(cmd.OutOrStdout())
				}
			}
		},
	}
	cmd.Flags().DurationVar(&watch, "watch", 0, "refresh interval (0 prints once)")

	return cmd
}

func (a *App) printDashboard(cmd *cobra.Command, d dashboard) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, color.New(color.Bold).Sprintf("%s <%s>", d.user.Username, d.user.Email))
	printStatistics(cmd, d.stats)

	fmt.Fprintln(out, color.New(color.Bold).Sprint("\nDue for review"))
	t := newTable("ID", "NAME", "DUE", "PROGRESS")
	for _, deck := range d.due {
		t.AddRow(deck.ID, deck.Name, deck.Stats.CardsDue, fmt.Sprintf("%d%%", deck.Stats.Progress))
	}
	printTable(cmd, t)

	fmt.Fprintln(out, color.New(color.Bold).Sprint("\nTrending in the store"))
	t = newTable("ID", "NAME", "DOWNLOADS", "TAGS")
	for _, deck := range d.trending {
		t.AddRow(deck.ID, deck.Name, deck.Downloads, strings.Join(deck.Tags, ", "))
	}
	printTable(cmd, t)
}
