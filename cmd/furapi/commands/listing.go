package commands

import (
	"context"
	"log/slog"

	"furapi/lib/model"
	"furapi/lib/scrapers"
	"furapi/lib/serviceutil"

	"github.com/spf13/cobra"
)

var drainAll *bool

func init() {
	drainAll = rootCmd.PersistentFlags().Bool("all", false, "Follow pagination until the listing is exhausted.")
	rootCmd.AddCommand(galleryCmd)
	rootCmd.AddCommand(scrapsCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(journalsCmd)
}

type exportable interface {
	Export() map[string]any
}

func printExports[T exportable](items []T) {
	exports := make([]map[string]any, 0, len(items))
	for _, item := range items {
		exports = append(exports, item.Export())
	}
	printJSON(exports)
}

// runListing prints one page of a listing, or drains it when --all is set.
func runListing[T exportable](ctx context.Context, fetch scrapers.FetchPage[T]) {
	if *drainAll {
		items, err := scrapers.Drain(ctx, fetch, model.Page{})
		if err != nil {
			serviceutil.Fatal("failed to drain listing", err)
		}
		printExports(items)
		return
	}

	listing, err := fetch(ctx, model.Page{})
	if err != nil {
		serviceutil.Fatal("failed to fetch listing", err)
	}
	printExports(listing.Items)
	if !listing.Next.IsZero() {
		slog.Info("more results follow", "next", listing.Next.String())
	}
	for _, sub := range listing.Subcollections {
		slog.Info("subcollection available", "page", sub.String())
	}
}

var galleryCmd = &cobra.Command{
	Use:   "gallery <user>",
	Short: "Lists the submissions in a user's gallery.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		backend := newBackend(ctx)
		runListing(ctx, func(ctx context.Context, page model.Page) (model.Listing[model.SubmissionPartial], error) {
			return backend.Gallery(ctx, args[0], page)
		})
	},
}

var scrapsCmd = &cobra.Command{
	Use:   "scraps <user>",
	Short: "Lists the submissions in a user's scraps.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		backend := newBackend(ctx)
		runListing(ctx, func(ctx context.Context, page model.Page) (model.Listing[model.SubmissionPartial], error) {
			return backend.Scraps(ctx, args[0], page)
		})
	},
}

var favoritesCmd = &cobra.Command{
	Use:   "favorites <user>",
	Short: "Lists the submissions a user has favorited.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		backend := newBackend(ctx)
		runListing(ctx, func(ctx context.Context, page model.Page) (model.Listing[model.SubmissionPartial], error) {
			return backend.Favorites(ctx, args[0], page)
		})
	},
}

var journalsCmd = &cobra.Command{
	Use:   "journals <user>",
	Short: "Lists a user's journals.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		backend := newBackend(ctx)
		runListing(ctx, func(ctx context.Context, page model.Page) (model.Listing[model.JournalPartial], error) {
			return backend.Journals(ctx, args[0], page)
		})
	},
}
