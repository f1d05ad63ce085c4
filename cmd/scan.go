package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sealcheck/lmscan/internal/model"
	"github.com/sealcheck/lmscan/internal/pipeline"
)

var (
	scanPayloadPath string
	scanTextPath    string
	scanURL         string
	scanJSON        bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Score one product listing for Legal Metrology compliance",
	Long:  "Reads a scrape payload (JSON) and/or raw label text, resolves the declared fields, scores them, and records the scan.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if scanPayloadPath == "" && scanTextPath == "" {
			return eris.New("scan: at least one of --payload or --text is required")
		}

		var in model.ScanInput
		if scanPayloadPath != "" {
			raw, err := os.ReadFile(scanPayloadPath)
			if err != nil {
				return eris.Wrap(err, "scan: read payload")
			}
			if err := json.Unmarshal(raw, &in); err != nil {
				return eris.Wrap(err, "scan: parse payload")
			}
		}
		if scanTextPath != "" {
			raw, err := os.ReadFile(scanTextPath)
			if err != nil {
				return eris.Wrap(err, "scan: read text")
			}
			in.RawText = string(raw)
		}
		if scanURL != "" {
			in.URL = scanURL
		}

		ctx := cmd.Context()
		env, err := initPipeline(ctx, cfg, "scan")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Run(ctx, in)
		if err != nil {
			return err
		}

		if scanJSON {
			return json.NewEncoder(os.Stdout).Encode(res)
		}
		printResult(res)
		return nil
	},
}

func printResult(res *pipeline.Result) {
	rec := res.Record
	fmt.Printf("Scan %s\n", rec.ScanID)
	if rec.Product.Title != "" {
		fmt.Printf("Product:      %s\n", rec.Product.Title)
	}
	fmt.Printf("Manufacturer: %s\n", rec.Product.Manufacturer)
	fmt.Printf("Category:     %s\n", rec.Product.Category)
	fmt.Printf("Score:        %d/%d (%.0f%%) %s\n",
		res.Compliance.RequiredPresent, res.Compliance.RequiredTotal,
		res.Compliance.Score*100, res.Compliance.Level)
	if res.LLMLevel != "" {
		fmt.Printf("LLM opinion:  %s\n", res.LLMLevel)
	}
	if len(res.Compliance.MissingFields) > 0 {
		fmt.Printf("Missing:      %s\n", strings.Join(res.Compliance.MissingFields, ", "))
	}
	for _, w := range res.Warnings {
		fmt.Printf("Warning:      %s\n", w)
	}
}

func init() {
	scanCmd.Flags().StringVar(&scanPayloadPath, "payload", "", "path to a scrape payload JSON file")
	scanCmd.Flags().StringVar(&scanTextPath, "text", "", "path to a raw label text file")
	scanCmd.Flags().StringVar(&scanURL, "url", "", "listing URL to record with the scan")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the full result as JSON")
	rootCmd.AddCommand(scanCmd)
}
