// ABOUTME: CLI commands for exporting and importing body-composition data.
// ABOUTME: Supports JSON, YAML, Markdown, and CSV export formats.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/bodycomp/internal/models"
	"github.com/harperreed/bodycomp/internal/storage"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportSince  string
	exportFields string
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export history and the latest report",
	Long: `Export the daily history and the latest report in various formats.

FORMATS:

  json       Full JSON export (suitable for backup/restore)
  yaml       YAML export (human-readable)
  markdown   Markdown table (for documentation/sharing)
  csv        The history table exactly as stored

OPTIONS:

  --output, -o   Write to file instead of stdout
  --since        Only include rows since this date (YYYY-MM-DD)
  --fields, -f   Comma-separated fields (markdown only)

EXAMPLES:

  bodycomp export json                        # Export everything as JSON
  bodycomp export json -o backup.json         # Save to file
  bodycomp export yaml --since 2025-08-01     # Export recent rows as YAML
  bodycomp export markdown -f weight_kg,fat_pct
  bodycomp export csv -o history.csv`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown", "csv"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := args[0]

		var since *time.Time
		if exportSince != "" {
			t, err := models.ParseDate(exportSince)
			if err != nil {
				return fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", exportSince)
			}
			since = &t
		}

		table, err := pipe.History().Load()
		if err != nil {
			return err
		}
		latest, err := pipe.Snapshots().Latest()
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		exportData := storage.NewExportData(table, latest, since)

		var data []byte
		switch format {
		case "json":
			data, err = storage.ExportJSON(exportData)
		case "yaml":
			data, err = storage.ExportYAML(exportData)
		case "markdown":
			var fields []models.Field
			if exportFields != "" {
				if fields, err = parseFields(exportFields); err != nil {
					return err
				}
			}
			data = []byte(storage.ExportMarkdown(exportData, fields))
		case "csv":
			data, err = storage.ExportCSV(table)
		default:
			return fmt.Errorf("unknown format: %s (use json, yaml, markdown, or csv)", format)
		}

		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
		} else {
			fmt.Println(string(data))
		}

		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import daily records from a JSON export",
	Long: `Import daily records from a previously exported JSON file.

Rows for dates already in the history are replaced. Rows before cutoff_date
are skipped. Run 'bodycomp recompute' afterwards to refresh the report.

EXAMPLES:

  bodycomp import backup.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		exportData, err := storage.ImportJSON(data)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		imported, skipped, err := pipe.History().Import(exportData.Records)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		color.Green("✓ Imported %d records from %s", imported, filename)
		if skipped > 0 {
			color.Yellow("! Skipped %d records before the cutoff", skipped)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only include data since date (YYYY-MM-DD)")
	exportCmd.Flags().StringVarP(&exportFields, "fields", "f", "", "comma-separated fields (markdown only)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
