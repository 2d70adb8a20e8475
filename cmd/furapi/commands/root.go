package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"furapi/lib/configutil"
	"furapi/lib/scrapers"
	"furapi/lib/serviceutil"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	_ "furapi/lib/scrapers/furaffinity"
	_ "furapi/lib/scrapers/inkbunny"
	_ "furapi/lib/scrapers/sofurry"
	_ "furapi/lib/scrapers/weasyl"
)

var rootCmd = &cobra.Command{
	Use:   "furapi",
	Short: "furapi queries art community sites through one uniform client.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initSlog(*verbose)
	},
}

var (
	backendName *string
	verbose     *bool
)

func init() {
	names := scrapers.Names()
	sort.Strings(names)
	backendName = rootCmd.PersistentFlags().StringP(
		"backend", "b", "furaffinity",
		"The site backend to use: "+strings.Join(names, ", ")+".",
	)
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
}

func initSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

// Config is the session configuration read from furapi.json5 (plus the
// usual .local override). Cookies are handed to the backend as-is.
type Config struct {
	Cookies []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"cookies"`
	UserAgent string `json:"user_agent"`
}

func newBackend(ctx context.Context) scrapers.Backend {
	cfg, err := configutil.ReadConfig[Config]("furapi.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to read config", err)
	}

	opts := scrapers.Options{UserAgent: cfg.UserAgent}
	for _, cookie := range cfg.Cookies {
		opts.Cookies = append(opts.Cookies, &http.Cookie{
			Name:  cookie.Name,
			Value: cookie.Value,
		})
	}

	backend, err := scrapers.New(ctx, *backendName, opts)
	if err != nil {
		serviceutil.Fatal("failed to initialize backend", err)
	}
	return backend
}

func printJSON(value any) {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		serviceutil.Fatal("failed to encode output", err)
	}
	fmt.Println(string(out))
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
