package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoiceocr/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invoiceocr",
	Short: "Invoice OCR template tool",
	Long: `Invoice OCR template tool extracts text lines from scanned utility
invoices (electricity, water, gas), lets operators define reusable field
templates over those lines, and applies stored templates to new invoices.

Run "invoiceocr serve" to start the web interface, or use the extract and
templates commands directly from the terminal.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Welcome to the invoice OCR template tool!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
