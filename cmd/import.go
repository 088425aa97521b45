package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"evidence-hub/importer"
	"evidence-hub/infrastructure"
)

var importFormat string

func init() {
	cmd := &cobra.Command{
		Use:   "import <integration-id> <file>",
		Short: "Parse a review export (txt, md, csv, pdf, docx) and import it",
		Args:  cobra.ExactArgs(2),
		RunE:  runImport,
	}
	cmd.Flags().StringVar(&importFormat, "format", "", "force the parser mode: text or csv")
	rootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	integrationID, path := args[0], args[1]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	text, format, err := infrastructure.NewTextExtractor(a.log).ExtractTextFromFile(f, filepath.Base(path))
	if err != nil {
		return err
	}
	if importFormat != "" {
		format = importFormat
	}

	reviews := importer.NewParser(a.defaults).Parse(format, text)
	if len(reviews) == 0 {
		return fmt.Errorf("no reviews found in %s", path)
	}
	a.log.WithField("file", path).WithField("reviews", len(reviews)).Info("parsed review file")

	res, err := a.runner.Import(cmd.Context(), integrationID, reviews)
	return reportResult(cmd, res, err)
}
