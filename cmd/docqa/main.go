// Command docqa chunks documents into a local index and answers hybrid
// semantic and keyword queries over it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	storagefile "github.com/custodia-labs/docqa/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/postprocessors"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetInitializer(initialise)

	err := cli.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// initialise wires the driven adapters into the core services.
func initialise(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}
	logger.Init(logger.Config{
		Verbose: opts.Verbose || settings.Log.Verbose,
		File:    settings.Log.File,
	})

	artifacts, err := openArtifactStore(settings.Store, opts.ConfigDir)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		// Keyword search still works without embeddings.
		logger.Warn("Embedding provider unavailable, semantic search disabled: %v", err)
		embedder = nil
	}

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := postprocessors.BuildPipeline(registry, settingsService.GetPipelineConfig())
	if err != nil {
		_ = artifacts.Close()
		return nil, nil, fmt.Errorf("building chunker pipeline: %w", err)
	}

	norms := normalisers.NewDefaultRegistry()
	store := services.NewChunkStore(ctx, artifacts, embedder)
	documentService := services.NewDocumentService(store, pipeline, norms, storagefile.NewSourceFiles(""))
	searchService := services.NewSearchService(store, embedder, settings.Retrieval)

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Closing chunk store: %v", err)
		}
		if embedder != nil {
			_ = embedder.Close()
		}
	}

	return &cli.Services{
		Search:    searchService,
		Document:  documentService,
		Settings:  settingsService,
		MIMETypes: norms.SupportedMIMETypes(),
	}, cleanup, nil
}

// openArtifactStore opens the persistence backend selected in settings.
func openArtifactStore(cfg domain.StoreSettings, configDir string) (driven.ArtifactStore, error) {
	dataDir := cfg.Path
	if dataDir == "" && configDir != "" {
		dataDir = filepath.Join(configDir, "data")
	}

	switch cfg.Backend {
	case domain.StoreBackendMemory:
		return memory.NewArtifactStore(), nil
	case domain.StoreBackendSQLite:
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, nil
	default:
		store, err := storagefile.NewArtifactStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("opening artifact store: %w", err)
		}
		return store, nil
	}
}
