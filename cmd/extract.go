package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"invoiceocr/internal/config"
	"invoiceocr/internal/ingest"
	"invoiceocr/internal/logger"
	"invoiceocr/internal/rasterize"
	"invoiceocr/internal/store"
)

var extractCmd = &cobra.Command{
	Use:   "extract [invoice-file]",
	Short: "Extract text lines from an invoice image or PDF",
	Long: `Run OCR over a single invoice file and print the extracted lines,
one per line and prefixed with its index. PDF files are rasterized page by
page; staging happens in memory, no bucket access is needed.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT - Your Google Cloud project ID`,
	Example: `  # Extract lines from an invoice photo
  invoiceocr extract invoice.jpg

  # Extract a multi-page PDF and save the result as JSON
  invoiceocr extract invoice.pdf --json -o lines.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Bool("json", false, "Output as JSON")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	ctx := cmd.Context()
	extractor, closer, err := newExtractor(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	// The one-shot command stages PDF pages in memory.
	pipeline := ingest.NewPipeline(rasterize.New(cfg.RasterDPI), store.NewMemoryStore(), extractor, cfg.EnhanceImages)

	var pages []ingest.PageLines
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		pages, err = pipeline.ProcessPDF(ctx, filepath.Base(path), data)
	} else {
		var lines []string
		lines, err = pipeline.ProcessImage(ctx, data)
		if err == nil {
			pages = []ingest.PageLines{{Page: 1, Lines: lines}}
		}
	}
	if err != nil {
		return err
	}

	var out strings.Builder
	if jsonOutput {
		encoded, err := json.MarshalIndent(pages, "", "  ")
		if err != nil {
			return err
		}
		out.Write(encoded)
		out.WriteString("\n")
	} else {
		for _, page := range pages {
			if len(pages) > 1 {
				fmt.Fprintf(&out, "--- Page %d ---\n", page.Page)
			}
			for i, line := range page.Lines {
				fmt.Fprintf(&out, "%4d  %s\n", i, line)
			}
		}
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(out.String()), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		log.Info().Str("output", outputPath).Msg("extraction written")
		return nil
	}
	fmt.Print(out.String())
	return nil
}
