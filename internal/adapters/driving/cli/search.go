package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	searchLimit    int
	searchDocument string
	searchMode     string
	searchJSON     bool
	searchOutput   string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Ranks indexed chunks against the query.

Hybrid mode combines cosine similarity of embeddings with keyword matching;
chunks found by both passes rank highest. Use --mode to run one pass only and
--document to restrict results to a single document.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

// searchResultView is the structured form of one result.
type searchResultView struct {
	Rank       int            `json:"rank" yaml:"rank"`
	ChunkID    string         `json:"chunk_id" yaml:"chunk_id"`
	Document   string         `json:"document" yaml:"document"`
	Relevance  float64        `json:"relevance" yaml:"relevance"`
	SearchType string         `json:"search_type" yaml:"search_type"`
	Content    string         `json:"content" yaml:"content"`
	Highlights []string       `json:"highlights,omitempty" yaml:"highlights,omitempty"`
	Metadata   map[string]any `json:"metadata" yaml:"metadata"`
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from settings)")
	searchCmd.Flags().StringVarP(&searchDocument, "document", "d", "", "only search chunks of this document")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "", "search mode: hybrid, semantic or keyword")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	addOutputFlag(searchCmd, &searchOutput)
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	if searchService == nil {
		return errNotConfigured("search")
	}

	format, err := checkFormat(searchOutput)
	if err != nil {
		return err
	}
	if searchJSON {
		format = formatJSON
	}

	mode := domain.SearchMode(strings.ToLower(searchMode))
	if mode != "" && !mode.IsValid() {
		return fmt.Errorf("unknown search mode %q (want hybrid, semantic or keyword)", searchMode)
	}

	opts := domain.SearchOptions{
		Limit:          searchLimit,
		DocumentFilter: searchDocument,
		Mode:           mode,
	}

	results, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if format != formatText {
		return printStructured(cmd, format, searchViews(results))
	}
	return outputSearchTable(cmd, results)
}

func searchViews(results []domain.SearchResult) []searchResultView {
	views := make([]searchResultView, len(results))
	for i := range results {
		views[i] = searchResultView{
			Rank:       i + 1,
			ChunkID:    results[i].ChunkID,
			Document:   results[i].Reference(),
			Relevance:  results[i].Relevance,
			SearchType: string(results[i].MatchType),
			Content:    results[i].Content,
			Highlights: results[i].Highlights,
			Metadata:   results[i].Metadata,
		}
	}
	return views
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		// Format: [N] document (chunk C) - score [type]
		title := results[i].Reference()
		if title == "" {
			title = results[i].ChunkID
		}
		if chunk, ok := results[i].Metadata[domain.MetaChunk]; ok {
			title = fmt.Sprintf("%s (chunk %v)", title, chunk)
		}

		snippet := ""
		if len(results[i].Highlights) > 0 {
			snippet = results[i].Highlights[0]
		} else {
			snippet = truncate(results[i].Content, 160)
		}

		cmd.Printf("  [%d] %s %.2f [%s]\n", i+1, title, results[i].Relevance, results[i].MatchType)
		if snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}

	return nil
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
