package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var (
	indexUserID       string
	indexOriginalName string
	deleteRef         string
	reprocessOldRef   string
	documentsOutput   string
	statsOutput       string
)

var indexCmd = &cobra.Command{
	Use:   "index [file...]",
	Short: "Chunk and index files",
	Long: `Extracts the text of each file, splits it into overlapping chunks,
embeds them and adds them to the index. Supported types are plain text,
markdown and HTML.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

var removeCmd = &cobra.Command{
	Use:   "remove [document]",
	Short: "Remove a document from the index",
	Long: `Removes every chunk whose file path, file name or original file name
contains the given reference (case-insensitive). The source file is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [path]",
	Short: "Remove a document from the index and delete its file",
	Long: `Removes the document's chunks from the index first and then deletes the
source file. If the file cannot be deleted the index change stands and the
file is reported as orphaned.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var reprocessCmd = &cobra.Command{
	Use:   "reprocess [file]",
	Short: "Re-index a file, replacing its old chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runReprocess,
}

var reprocessAllCmd = &cobra.Command{
	Use:   "reprocess-all",
	Short: "Re-index every document whose file still exists",
	Args:  cobra.NoArgs,
	RunE:  runReprocessAll,
}

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs", "ls"},
	Short:   "List indexed documents",
	Args:    cobra.NoArgs,
	RunE:    runDocuments,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	indexCmd.Flags().StringVarP(&indexUserID, "user-id", "u", "", "owner of the documents")
	indexCmd.Flags().StringVar(&indexOriginalName, "original-name", "",
		"name the file was uploaded with (single file only)")
	deleteCmd.Flags().StringVar(&deleteRef, "ref", "", "document reference to remove (default: the path)")
	reprocessCmd.Flags().StringVar(&reprocessOldRef, "old-ref", "",
		"reference of the chunks to replace (default: the file path)")
	reprocessCmd.Flags().StringVarP(&indexUserID, "user-id", "u", "", "owner of the document")
	reprocessCmd.Flags().StringVar(&indexOriginalName, "original-name", "", "name the file was uploaded with")
	addOutputFlag(documentsCmd, &documentsOutput)
	addOutputFlag(statsCmd, &statsOutput)

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(reprocessCmd)
	rootCmd.AddCommand(reprocessAllCmd)
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(statsCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}
	if indexOriginalName != "" && len(args) > 1 {
		return errors.New("--original-name can only be used with a single file")
	}

	opts := driving.IndexOptions{OriginalFilename: indexOriginalName, UserID: indexUserID}
	var failed int
	for _, path := range args {
		added, err := documentService.IndexFile(cmd.Context(), path, opts)
		if err != nil {
			cmd.PrintErrf("Failed to index %s: %v\n", path, err)
			failed++
			continue
		}
		cmd.Printf("Indexed %s: %d chunks\n", path, added)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	removed, err := documentService.RemoveDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	if removed == 0 {
		cmd.Printf("No chunks found for %q\n", args[0])
		return nil
	}
	cmd.Printf("Removed %d chunks for %q\n", removed, args[0])
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	path := args[0]
	removed, err := documentService.DeleteDocument(cmd.Context(), deleteRef, path)
	if errors.Is(err, domain.ErrOrphanedSource) {
		cmd.Printf("Removed %d chunks, but %s could not be deleted and needs manual cleanup\n", removed, path)
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted %s (%d chunks removed)\n", path, removed)
	return nil
}

func runReprocess(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	opts := driving.IndexOptions{OriginalFilename: indexOriginalName, UserID: indexUserID}
	added, err := documentService.ReprocessFile(cmd.Context(), reprocessOldRef, args[0], opts)
	if err != nil {
		return fmt.Errorf("failed to reprocess %s: %w", args[0], err)
	}

	cmd.Printf("Reprocessed %s: %d chunks\n", args[0], added)
	return nil
}

func runReprocessAll(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	report, err := documentService.ReprocessAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to reprocess documents: %w", err)
	}

	cmd.Printf("Reprocessed %d documents (%d chunks)\n", report.Documents, report.Chunks)
	for _, ref := range report.Missing {
		cmd.Printf("  missing: %s\n", ref)
	}

	refs := make([]string, 0, len(report.Failed))
	for ref := range report.Failed {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	for _, ref := range refs {
		cmd.Printf("  failed:  %s: %v\n", ref, report.Failed[ref])
	}

	if len(refs) > 0 {
		return fmt.Errorf("%d documents failed to reprocess", len(refs))
	}
	return nil
}

// documentView is the structured form of one listed document.
type documentView struct {
	Reference  string `json:"reference" yaml:"reference"`
	FilePath   string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	UserID     string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	UploadDate string `json:"upload_date,omitempty" yaml:"upload_date,omitempty"`
	Chunks     int    `json:"chunks" yaml:"chunks"`
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}
	format, err := checkFormat(documentsOutput)
	if err != nil {
		return err
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if format != formatText {
		views := make([]documentView, len(docs))
		for i, d := range docs {
			views[i] = documentView(d)
		}
		return printStructured(cmd, format, views)
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].Reference)
		cmd.Printf("    Chunks: %d\n", docs[i].Chunks)
		if docs[i].FilePath != "" {
			cmd.Printf("    Path: %s\n", docs[i].FilePath)
		}
		if docs[i].UserID != "" {
			cmd.Printf("    User: %s\n", docs[i].UserID)
		}
		if docs[i].UploadDate != "" {
			cmd.Printf("    Uploaded: %s\n", docs[i].UploadDate)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

// statsView is the structured form of index statistics.
type statsView struct {
	Chunks     int    `json:"chunks" yaml:"chunks"`
	Documents  int    `json:"documents" yaml:"documents"`
	Dimensions int    `json:"dimensions" yaml:"dimensions"`
	Location   string `json:"location,omitempty" yaml:"location,omitempty"`
}

func runStats(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}
	format, err := checkFormat(statsOutput)
	if err != nil {
		return err
	}

	stats, err := documentService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	if format != formatText {
		return printStructured(cmd, format, statsView(stats))
	}

	cmd.Println("Index Statistics")
	cmd.Println("================")
	cmd.Printf("  Chunks:     %d\n", stats.Chunks)
	cmd.Printf("  Documents:  %d\n", stats.Documents)
	cmd.Printf("  Dimensions: %d\n", stats.Dimensions)
	if stats.Location != "" {
		cmd.Printf("  Location:   %s\n", stats.Location)
	}
	return nil
}
