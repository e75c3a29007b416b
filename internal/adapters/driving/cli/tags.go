package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	tagsMinConfidence float64
	tagsLimit         int
)

var tagsCmd = &cobra.Command{
	Use:   "tags [label...]",
	Short: "Search visual tags",
	Long:  `Lists persisted visual tags matching any of the given labels.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTags,
}

func init() {
	tagsCmd.Flags().Float64Var(&tagsMinConfidence, "min-confidence", 0, "minimum detector confidence")
	tagsCmd.Flags().IntVarP(&tagsLimit, "limit", "n", 20, "maximum number of tags")
	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	tags, err := searchService.SearchTags(context.Background(), userID, args, tagsMinConfidence, tagsLimit)
	if err != nil {
		return fmt.Errorf("tag search failed: %w", err)
	}

	if len(tags) == 0 {
		cmd.Println("No tags found.")
		return nil
	}

	for _, tag := range tags {
		ref := ""
		switch {
		case tag.ChunkID != nil:
			ref = "chunk " + *tag.ChunkID
		case tag.DocumentID != nil:
			ref = "document " + *tag.DocumentID
		}
		cmd.Printf("  %s (%.2f) on %s\n", tag.Label, tag.Confidence, ref)
	}
	return nil
}
