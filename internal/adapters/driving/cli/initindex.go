package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var initIndexCmd = &cobra.Command{
	Use:   "init-index",
	Short: "Create the search index collections",
	Long: `Creates the questions and contributions collections with their field
mappings and vector dimensionality, or validates existing ones.
Safe to run repeatedly.`,
	RunE: runInitIndex,
}

func init() {
	rootCmd.AddCommand(initIndexCmd)
}

func runInitIndex(cmd *cobra.Command, _ []string) error {
	if indexInitier == nil {
		return errors.New("index not configured")
	}
	if err := indexInitier(cmd); err != nil {
		return err
	}
	cmd.Println("Index collections ready.")
	return nil
}
