package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mural-labs/mural/internal/core/ports/driving"
)

var (
	ingestName    string
	ingestGroupID string
	ingestExtract bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Index a document or image",
	Long: `Reads the file, chunks and embeds its content and writes it to the
index. Image files go through visual tagging in the background.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "display name (default: file name)")
	ingestCmd.Flags().StringVarP(&ingestGroupID, "group", "g", "", "group id to assign the document to")
	ingestCmd.Flags().BoolVar(&ingestExtract, "extract-images", false, "index images embedded in the document")
	rootCmd.AddCommand(ingestCmd)
}

// imageContentTypes maps file extensions of direct image uploads.
var imageContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	name := ingestName
	if name == "" {
		name = filepath.Base(path)
	}

	req := driving.IngestRequest{
		UserID:        userID,
		Name:          name,
		ExtractImages: ingestExtract,
	}
	if ingestGroupID != "" {
		req.GroupID = &ingestGroupID
	}

	ext := strings.ToLower(filepath.Ext(path))
	if contentType, ok := imageContentTypes[ext]; ok {
		req.ContentType = contentType
		req.Image = data
	} else {
		req.ContentType = "text/plain"
		req.Text = string(data)
	}

	doc, err := ingestService.Ingest(context.Background(), req)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Document %s ingested.\n", doc.ID)
	cmd.Printf("  Name:    %s\n", doc.Name)
	cmd.Printf("  State:   %s\n", doc.State)
	cmd.Printf("  Chunks:  %d\n", doc.ChunkCount)
	if doc.ImageCount > 0 {
		cmd.Printf("  Images:  %d\n", doc.ImageCount)
	}
	return nil
}
