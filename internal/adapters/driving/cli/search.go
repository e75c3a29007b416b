package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mural-labs/mural/internal/core/domain"
)

var (
	searchRoute   string
	searchLimit   int
	searchGroupID string
	searchWeight  float64
	searchImage   string
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed content",
	Long: `Runs a vector search over the selected route. On the text route a
lexical weight above zero blends keyword relevance into the ranking.
An image file can be used as the query instead of text.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchRoute, "route", "r", string(domain.RouteText), "route: text, image or extracted_image")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (1-50)")
	searchCmd.Flags().StringVarP(&searchGroupID, "group", "g", "", "restrict results to a group")
	searchCmd.Flags().Float64VarP(&searchWeight, "lexical-weight", "w", 0, "lexical rerank blend in [0,1], text route only")
	searchCmd.Flags().StringVar(&searchImage, "image", "", "image file to use as the query")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	var image []byte
	if searchImage != "" {
		data, err := os.ReadFile(searchImage)
		if err != nil {
			return fmt.Errorf("read query image: %w", err)
		}
		image = data
	}

	opts := domain.SearchOptions{
		Route:         domain.SearchRoute(searchRoute),
		Limit:         searchLimit,
		LexicalWeight: searchWeight,
	}
	if searchGroupID != "" {
		opts.GroupID = &searchGroupID
	}

	results, err := searchService.Search(context.Background(), userID, query, image, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		printResult(cmd, i+1, &results[i])
	}
	return nil
}

func printResult(cmd *cobra.Command, n int, r *domain.SearchResult) {
	cmd.Printf("  [%d] %s (%.3f)\n", n, r.ChunkID, r.Score)
	cmd.Printf("      Document: %s\n", r.DocumentID)

	switch {
	case r.Modality == domain.ModalityText:
		cmd.Printf("      %s\n", excerpt(r.Content, r.Highlights))
	case r.Parent != nil:
		cmd.Printf("      From: %s", r.Parent.Name)
		if r.Parent.Page != nil {
			cmd.Printf(" (page %d)", *r.Parent.Page)
		}
		cmd.Println()
	}

	if len(r.Tags) > 0 {
		cmd.Print("      Tags: ")
		for i, tag := range r.Tags {
			if i > 0 {
				cmd.Print(", ")
			}
			cmd.Printf("%s (%.2f)", tag.Label, tag.Confidence)
		}
		cmd.Println()
	}
	cmd.Println()
}

// excerpt returns a short snippet of the chunk, preferring the region
// around the first highlight.
func excerpt(content string, highlights []domain.HighlightSpan) string {
	const window = 160
	if len(content) <= window {
		return content
	}

	start := 0
	if len(highlights) > 0 {
		start = highlights[0].Start - window/4
		if start < 0 {
			start = 0
		}
	}
	end := start + window
	if end > len(content) {
		end = len(content)
		start = end - window
	}

	snippet := content[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet += "..."
	}
	return snippet
}
