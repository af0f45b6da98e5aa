package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ArtifactStore persists the chunk store as a single snapshot.
// The artifact is the sole source of truth across process restarts.
type ArtifactStore interface {
	// Load reads the persisted snapshot.
	// A missing artifact yields an empty snapshot and no error.
	// An unreadable artifact yields an error wrapping domain.ErrCorruptArtifact.
	Load(ctx context.Context) (domain.Snapshot, error)

	// Save replaces the persisted snapshot. On error the previous artifact
	// must remain intact.
	Save(ctx context.Context, snap domain.Snapshot) error

	// Location describes where the artifact lives (file path, DSN).
	Location() string

	// Close releases resources.
	Close() error
}
