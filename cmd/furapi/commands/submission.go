package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"furapi/lib/serviceutil"

	"github.com/spf13/cobra"
)

var downloadDir *string

func init() {
	downloadDir = submissionCmd.Flags().String("download", "", "Directory to download the submission's files into.")
	rootCmd.AddCommand(submissionCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(frontpageCmd)
}

var submissionCmd = &cobra.Command{
	Use:   "submission <id> [--download <dir>]",
	Short: "Fetches a submission, optionally downloading its files.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			serviceutil.Fatal("invalid submission id", err)
		}

		backend := newBackend(ctx)
		submission, err := backend.Submission(ctx, id)
		if err != nil {
			serviceutil.Fatal("failed to fetch submission", err)
		}
		printJSON(submission.Export())

		if *downloadDir == "" {
			return
		}
		files, err := backend.SubmissionFiles(ctx, submission)
		if err != nil {
			serviceutil.Fatal("failed to download submission files", err)
		}
		if err := os.MkdirAll(*downloadDir, 0o755); err != nil {
			serviceutil.Fatal("failed to create download directory", err)
		}
		for i, data := range files {
			name := fmt.Sprintf("%d_%d%s", id, i, filepath.Ext(submission.FileURLs[i]))
			path := filepath.Join(*downloadDir, name)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				serviceutil.Fatal("failed to write file", err)
			}
			slog.Info("downloaded file", "path", path, "bytes", len(data))
		}
	},
}

var journalCmd = &cobra.Command{
	Use:   "journal <id>",
	Short: "Fetches a journal.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			serviceutil.Fatal("invalid journal id", err)
		}

		backend := newBackend(ctx)
		journal, err := backend.Journal(ctx, id)
		if err != nil {
			serviceutil.Fatal("failed to fetch journal", err)
		}
		printJSON(journal.Export())
	},
}

var frontpageCmd = &cobra.Command{
	Use:   "frontpage",
	Short: "Lists the latest submissions on the site's front page.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		backend := newBackend(ctx)
		submissions, err := backend.Frontpage(ctx)
		if err != nil {
			serviceutil.Fatal("failed to fetch frontpage", err)
		}
		printExports(submissions)
	},
}
