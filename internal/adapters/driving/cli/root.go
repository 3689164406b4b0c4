// Package cli provides the cobra command tree for parlsearch.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/openparl/parlsearch/internal/config"
	"github.com/openparl/parlsearch/internal/core/ports/driving"
	"github.com/openparl/parlsearch/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services injected by main before Execute.
var (
	cfg            config.Config
	searchService  driving.SearchService
	ingestor       driving.Ingestor
	indexInitier   func(cmd *cobra.Command) error
	indexDeleter   func(cmd *cobra.Command) error
	verboseLogging bool
)

var rootCmd = &cobra.Command{
	Use:   "parlsearch",
	Short: "Search and ingest UK parliamentary records",
	Long: `parlsearch ingests written parliamentary questions and Hansard debate
contributions into a hybrid lexical and vector search index, and serves
queries over it from the command line or an MCP server.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseLogging)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseLogging, "verbose", "v", false, "verbose logging to stderr")
}

// Services bundles everything the commands need.
type Services struct {
	Config      config.Config
	Search      driving.SearchService
	Ingest      driving.Ingestor
	InitIndex   func(cmd *cobra.Command) error
	DeleteIndex func(cmd *cobra.Command) error
}

// SetServices injects the wired services. Called once from main.
func SetServices(s Services) {
	cfg = s.Config
	searchService = s.Search
	ingestor = s.Ingest
	indexInitier = s.InitIndex
	indexDeleter = s.DeleteIndex
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
