package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SearchService provides retrieval to external actors.
type SearchService interface {
	// Search returns chunks ranked by fused semantic and keyword relevance.
	// An empty store or a query with no matches yields an empty slice.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
