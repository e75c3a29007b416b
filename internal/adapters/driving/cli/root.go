// Package cli implements the command line interface. Commands talk to the
// core through the driving ports; wiring of concrete adapters happens once
// in app.go before any command runs.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mural-labs/mural/internal/core/ports/driving"
	"github.com/mural-labs/mural/internal/logger"
)

// Services the commands dispatch to. Populated by initServices; commands
// that need a service not configured for this installation report it
// instead of panicking.
var (
	ingestService   driving.IngestService
	searchService   driving.SearchService
	chatService     driving.ChatService
	documentService driving.DocumentService
	groupService    driving.GroupService
)

// userID scopes every operation of this installation.
var userID string

var (
	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "mural",
	Short: "Multi-modal document search engine",
	Long: `Mural ingests documents and images, indexes them for hybrid
text and visual retrieval, and answers questions grounded in the
indexed content.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVerbose(verbose)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initServices()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.mural)")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
