package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"invoiceocr/internal/config"
	"invoiceocr/internal/ingest"
	"invoiceocr/internal/logger"
	"invoiceocr/internal/rasterize"
	"invoiceocr/internal/server"
	"invoiceocr/internal/store"
	"invoiceocr/internal/template"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	Long: `Start the browser-based interface with the Create Template and
Use Template pages.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT - Your Google Cloud project ID
  GCS_BUCKET - Bucket holding templates and staged page images
  DOCUMENT_AI_PROCESSOR_ID - OCR processor (unless OCR_BACKEND=vision)`,
	Example: `  # Serve on the default address (:8080)
  invoiceocr serve

  # Serve on a custom address
  LISTEN_ADDR=:9000 invoiceocr serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blobs, err := store.NewGCSStore(ctx, cfg.GCSBucket)
	if err != nil {
		return err
	}
	defer blobs.Close()

	extractor, closer, err := newExtractor(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	pipeline := ingest.NewPipeline(rasterize.New(cfg.RasterDPI), blobs, extractor, cfg.EnhanceImages)
	srv := server.New(pipeline, template.NewStore(blobs))

	log.Info().
		Str("addr", cfg.ListenAddr).
		Str("bucket", cfg.GCSBucket).
		Str("ocr_backend", cfg.OCRBackend).
		Msg("configuration loaded")

	return srv.Run(ctx, cfg.ListenAddr)
}
