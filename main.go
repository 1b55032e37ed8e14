package main

import (
	"log"

	"github.com/joho/godotenv"

	"invoiceocr/cmd"
	"invoiceocr/internal/config"
	"invoiceocr/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Initialize logger; fall back to defaults when config is incomplete
	// so commands can still print their own validation errors.
	if cfg, err := config.Load(); err != nil {
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	cmd.Execute()
}
