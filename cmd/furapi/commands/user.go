package commands

import (
	"context"

	"furapi/lib/model"
	"furapi/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(meCmd)
	rootCmd.AddCommand(loginStatusCmd)
	watchlistCmd.AddCommand(watchlistToCmd)
	watchlistCmd.AddCommand(watchlistByCmd)
	rootCmd.AddCommand(watchlistCmd)
}

var userCmd = &cobra.Command{
	Use:   "user <name>",
	Short: "Fetches a user's profile.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		backend := newBackend(ctx)
		user, err := backend.User(ctx, args[0])
		if err != nil {
			serviceutil.Fatal("failed to fetch user", err)
		}
		printJSON(user.Export())
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Fetches the profile of the logged-in user.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		backend := newBackend(ctx)
		user, err := backend.Me(ctx)
		if err != nil {
			serviceutil.Fatal("failed to fetch session user", err)
		}
		printJSON(user.Export())
	},
}

var loginStatusCmd = &cobra.Command{
	Use:   "login-status",
	Short: "Reports whether the configured cookies carry a live session.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		backend := newBackend(ctx)
		loggedIn, err := backend.LoginStatus(ctx)
		if err != nil {
			serviceutil.Fatal("failed to check login status", err)
		}
		printJSON(map[string]any{"logged_in": loggedIn})
	},
}

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Lists watch relationships of a user.",
}

var watchlistToCmd = &cobra.Command{
	Use:   "to <user>",
	Short: "Lists the users watching the given user.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		backend := newBackend(ctx)
		runListing(ctx, func(ctx context.Context, page model.Page) (model.Listing[model.UserPartial], error) {
			return backend.WatchlistTo(ctx, args[0], page)
		})
	},
}

var watchlistByCmd = &cobra.Command{
	Use:   "by <user>",
	Short: "Lists the users the given user watches.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		backend := newBackend(ctx)
		runListing(ctx, func(ctx context.Context, page model.Page) (model.Listing[model.UserPartial], error) {
			return backend.WatchlistBy(ctx, args[0], page)
		})
	},
}
