package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the document index over MCP",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve search and document tools to MCP clients",
	Long: `Serve the index over the Model Context Protocol.

Tools:
  search           hybrid, semantic or keyword search for one user
  add_document     ingest a file and index its chunks
  remove_document  drop a document and its chunks

Resources:
  docqa://documents              indexed documents
  docqa://documents/{reference}  one document's chunks
  docqa://stats                  index statistics

JSON-RPC over stdio is used unless --port is set, in which case the
streamable HTTP transport listens on that port.

Examples:
  docqa mcp serve
  docqa mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "listen for HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Search:   searchService,
		Document: documentService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "Serving MCP on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
