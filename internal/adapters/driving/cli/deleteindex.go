package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var deleteIndexYes bool

var deleteIndexCmd = &cobra.Command{
	Use:   "delete-index",
	Short: "Delete the search index collections",
	Long: `Deletes the questions and contributions collections and every document
in them. Requires --yes.`,
	RunE: runDeleteIndex,
}

func init() {
	deleteIndexCmd.Flags().BoolVar(&deleteIndexYes, "yes", false, "confirm deletion")
	rootCmd.AddCommand(deleteIndexCmd)
}

func runDeleteIndex(cmd *cobra.Command, _ []string) error {
	if indexDeleter == nil {
		return errors.New("index not configured")
	}
	if !deleteIndexYes {
		return errors.New("refusing to delete without --yes")
	}
	if err := indexDeleter(cmd); err != nil {
		return err
	}
	cmd.Println("Index collections deleted.")
	return nil
}
