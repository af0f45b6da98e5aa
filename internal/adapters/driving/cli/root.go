// Package cli implements the docqa command line interface with cobra.
//
// Commands drive the core through the driving ports. The process entry point
// registers an Initializer that builds the services once the global flags are
// parsed; tests inject services directly with SetServices.
package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// skipInitAnnotation marks commands that run without core services.
const skipInitAnnotation = "docqa/skip-init"

// version is set at build time.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
)

// Services consumed by the commands.
var (
	searchService   driving.SearchService
	documentService driving.DocumentService
	settingsService driving.SettingsService
	mimeTypes       []string
)

var (
	initializer Initializer
	cleanup     func()
)

// Services holds the core services the commands drive.
type Services struct {
	Search   driving.SearchService
	Document driving.DocumentService
	Settings driving.SettingsService

	// MIMETypes lists the document types that can be indexed.
	MIMETypes []string
}

// Options carries the parsed global flags to an Initializer.
type Options struct {
	ConfigDir string
	Verbose   bool
}

// Initializer builds the services for a command run.
// The returned cleanup function is called once the command finishes.
type Initializer func(ctx context.Context, opts Options) (*Services, func(), error)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Chunk, index and search your documents",
	Long: `docqa splits documents into overlapping chunks, embeds them and answers
queries with a hybrid of semantic similarity and keyword matching.

The index is kept in ~/.docqa/data unless configured otherwise.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.docqa)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetInitializer registers the function that builds services before a command runs.
func SetInitializer(fn Initializer) {
	initializer = fn
}

// SetServices injects the services used by the commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	searchService = s.Search
	documentService = s.Document
	settingsService = s.Settings
	mimeTypes = s.MIMETypes
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx and releases services afterwards.
func ExecuteContext(ctx context.Context) error {
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// initServices loads .env files, applies global flags and builds services.
func initServices(cmd *cobra.Command, _ []string) error {
	if err := loadDotEnv(configDir); err != nil {
		return err
	}
	if verbose {
		logger.SetVerbose(true)
	}

	if cmd.Annotations[skipInitAnnotation] == "true" || initializer == nil {
		return nil
	}

	services, done, err := initializer(cmd.Context(), Options{ConfigDir: configDir, Verbose: verbose})
	if err != nil {
		return err
	}
	SetServices(services)
	cleanup = done
	return nil
}

// loadDotEnv loads .env from the working directory and the config directory.
// Variables already set in the environment win.
func loadDotEnv(dir string) error {
	candidates := []string{".env"}
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".docqa")
		}
	}
	if dir != "" {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}

	var existing []string
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// errNotConfigured builds the error returned when a service is missing.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
