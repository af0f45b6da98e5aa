// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ArtifactStore: Durable persistence of the chunk store snapshot
//   - PostProcessor: Splits document text into chunks
//   - Normaliser: Extracts plain text from a raw document
//   - NormaliserRegistry: Selects appropriate normaliser
//   - SourceFiles: Access to stored source documents
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, search is keyword-only.
//   - AIConfigValidator: Connectivity checks for embedding providers.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
