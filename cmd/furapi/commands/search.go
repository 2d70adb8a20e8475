package commands

import (
	"context"

	"furapi/lib/fetch"
	"furapi/lib/model"
	"furapi/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(searchCmd)
}

// searcher is the optional capability behind the search command; only
// backends with a site-wide keyword search offer it.
type searcher interface {
	Search(ctx context.Context, keywords string, page model.Page) (model.Listing[model.SubmissionPartial], error)
}

var searchCmd = &cobra.Command{
	Use:   "search <keywords>",
	Short: "Searches the site's submissions by keyword.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		backend := newBackend(ctx)
		s, ok := backend.(searcher)
		if !ok {
			serviceutil.Fatal("backend does not offer search", fetch.ErrUnsupported)
		}
		runListing(ctx, func(ctx context.Context, page model.Page) (model.Listing[model.SubmissionPartial], error) {
			return s.Search(ctx, args[0], page)
		})
	},
}
