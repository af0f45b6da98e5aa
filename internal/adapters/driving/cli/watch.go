package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/watcher"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var (
	watchSync     bool
	watchDebounce time.Duration
	watchUserID   string
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep the index in step with a directory",
	Long: `Watches a directory tree and updates the index as files change.
Created and modified files are reprocessed; removed and renamed files have
their chunks removed. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchSync, "sync", false, "index existing files before watching")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce,
		"quiet period before a change is applied")
	watchCmd.Flags().StringVarP(&watchUserID, "user-id", "u", "", "owner of indexed documents")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	opts := []watcher.Option{
		watcher.WithDebounce(watchDebounce),
		watcher.WithIndexOptions(driving.IndexOptions{UserID: watchUserID}),
	}
	if len(mimeTypes) > 0 {
		opts = append(opts, watcher.WithMIMETypes(mimeTypes))
	}
	w := watcher.New(args[0], documentService, opts...)
	defer w.Close()

	ctx := cmd.Context()
	if watchSync {
		n, err := w.Sync(ctx)
		if err != nil {
			return fmt.Errorf("initial sync failed: %w", err)
		}
		cmd.Printf("Indexed %d existing files\n", n)
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(ctx)
}
