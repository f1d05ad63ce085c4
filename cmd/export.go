package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/sealcheck/lmscan/internal/ledger"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full compliance ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cfg, "export")
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := st.Snapshot(cmd.Context())
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = "lmscan_export." + exportFormat
		}

		switch exportFormat {
		case "json":
			err = exportJSON(snap, out)
		case "csv":
			err = exportCSV(snap, out)
		case "xlsx":
			err = exportXLSX(snap, out)
		default:
			return eris.Errorf("export: unknown format %q (json, csv, xlsx)", exportFormat)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d scans and %d manufacturers to %s\n",
			len(snap.History), len(snap.Manufacturers), out)
		return nil
	},
}

var scanHeader = []string{
	"scan_id", "timestamp", "title", "url", "manufacturer", "category",
	"score", "level", "missing_fields", "warnings",
}

var manufacturerHeader = []string{
	"key", "display_name", "products", "average_score", "level", "categories", "last_updated",
}

// scanRows flattens the retained history into export rows, newest last.
func scanRows(st ledger.State) [][]string {
	rows := make([][]string, 0, len(st.History))
	for _, rec := range st.History {
		rows = append(rows, []string{
			rec.ScanID,
			rec.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			rec.Product.Title,
			rec.Product.URL,
			rec.Product.Manufacturer,
			rec.Product.Category,
			fmt.Sprintf("%.2f", rec.Compliance.Score),
			string(rec.Compliance.Level),
			strings.Join(rec.Compliance.MissingFields, "; "),
			strings.Join(rec.Compliance.Warnings, "; "),
		})
	}
	return rows
}

func manufacturerRows(st ledger.State) [][]string {
	var rows [][]string
	for _, sum := range st.TopPerformers(0, 0) {
		rows = append(rows, []string{
			sum.Key,
			sum.DisplayName,
			fmt.Sprintf("%d", sum.TotalProducts),
			fmt.Sprintf("%.2f", sum.AverageScore),
			string(sum.Level),
			strings.Join(sum.Categories, "; "),
			sum.LastUpdated.Format("2006-01-02"),
		})
	}
	return rows
}

func exportJSON(st ledger.State, out string) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return eris.Wrap(err, "export: marshal ledger")
	}
	return eris.Wrap(os.WriteFile(out, data, 0o644), "export: write json")
}

func exportCSV(st ledger.State, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return eris.Wrap(err, "export: create csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(scanHeader); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	if err := w.WriteAll(scanRows(st)); err != nil {
		return eris.Wrap(err, "export: write rows")
	}
	w.Flush()
	return eris.Wrap(w.Error(), "export: flush csv")
}

func exportXLSX(st ledger.State, out string) error {
	f := xlsx.NewFile()

	if err := addSheet(f, "Scans", scanHeader, scanRows(st)); err != nil {
		return err
	}
	if err := addSheet(f, "Manufacturers", manufacturerHeader, manufacturerRows(st)); err != nil {
		return err
	}
	return eris.Wrap(f.Save(out), "export: save xlsx")
}

func addSheet(f *xlsx.File, name string, header []string, rows [][]string) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}
	hr := sheet.AddRow()
	for _, h := range header {
		hr.AddCell().SetString(h)
	}
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	return nil
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "export format: json, csv or xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (defaults to lmscan_export.<format>)")
	rootCmd.AddCommand(exportCmd)
}
