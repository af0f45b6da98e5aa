// Package sqlite provides a SQLite implementation of driven.ArtifactStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Each chunk is one row of the chunks
// table; its position column keeps the four sequences of the snapshot aligned.
// Embeddings are stored as little-endian float32 blobs and metadata as JSON.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.docqa/data/docqa.db
//
// # Thread Safety
//
// Save replaces every row inside one transaction, so a failed save leaves the
// previous snapshot intact and readers never observe a partial snapshot.
package sqlite
