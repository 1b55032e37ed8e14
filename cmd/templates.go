package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoiceocr/internal/config"
	"invoiceocr/internal/store"
	"invoiceocr/internal/template"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List stored extraction templates",
	Long: `List the identifiers of all templates stored in the configured
bucket. Use "templates delete" to remove one.`,
	RunE: runTemplatesList,
}

var templatesDeleteCmd = &cobra.Command{
	Use:   "delete [template-name]",
	Short: "Delete a stored template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesDelete,
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesDeleteCmd)
}

func newTemplateStore(cmd *cobra.Command) (*template.Store, *store.GCSStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	blobs, err := store.NewGCSStore(cmd.Context(), cfg.GCSBucket)
	if err != nil {
		return nil, nil, err
	}
	return template.NewStore(blobs), blobs, nil
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	templates, blobs, err := newTemplateStore(cmd)
	if err != nil {
		return err
	}
	defer blobs.Close()

	names, err := templates.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No templates stored yet.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runTemplatesDelete(cmd *cobra.Command, args []string) error {
	templates, blobs, err := newTemplateStore(cmd)
	if err != nil {
		return err
	}
	defer blobs.Close()

	if err := templates.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}
