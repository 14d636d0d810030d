package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/panvault-dev/panvault/internal/exchange"
)

func newExportCommand(dir *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the store to a signed interchange document",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*dir)
			if err != nil {
				return err
			}

			path := p.documentPath(out)
			exp := exchange.NewExporter(p.store, p.cfg.Site.Label, p.signingKey(), p.scope())
			doc, err := exp.ExportToFile(path)
			if err != nil {
				return err
			}

			fmt.Printf("Exported %d citizen(s) to %s (signature scope: %s)\n",
				doc.Metadata.RecordCount, path, p.scope())
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "pan_data.xml", "output document name or path")

	return cmd
}

func newValidateCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate DOCUMENT",
		Short: "Schema-validate an interchange document (no signature check)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*dir)
			if err != nil {
				return err
			}

			doc, err := exchange.ParseFile(p.documentPath(args[0]))
			if err != nil {
				return err
			}

			report := exchange.Validate(doc)
			if report.Valid() {
				fmt.Println("Document is valid")
				return nil
			}
			for _, v := range report.Violations {
				fmt.Printf("  %s\n", v)
			}
			return report.Err()
		},
	}
	return cmd
}

func newImportCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import DOCUMENT",
		Short: "Verify and import an interchange document into this site's store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*dir)
			if err != nil {
				return err
			}

			imp := exchange.NewImporter(p.store, p.signingKey(), p.scope())
			report, err := imp.ImportFile(p.documentPath(args[0]))
			if err != nil {
				return err
			}

			fmt.Printf("Import complete: %d accepted, %d rejected\n", report.Accepted, report.Rejected)
			for _, f := range report.Failures {
				fmt.Printf("  [%s] %v\n", f.Key, f.Err)
			}
			return nil
		},
	}
	return cmd
}
