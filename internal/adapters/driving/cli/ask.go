package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var askSources bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about indexed content",
	Long: `Retrieves relevant content and generates a grounded answer,
streaming it as it is produced.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askSources, "sources", false, "list retrieval sources after the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	question := args[0]
	onDelta := func(delta string) error {
		cmd.Print(delta)
		return nil
	}

	answer, err := chatService.Ask(context.Background(), userID, question, onDelta)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	cmd.Println()

	if askSources && len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i := range answer.Sources {
			src := &answer.Sources[i]
			cmd.Printf("  [%d] chunk %s of document %s (%.3f)\n", i+1, src.ChunkID, src.DocumentID, src.Score)
		}
	}
	return nil
}
