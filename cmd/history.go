package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sealcheck/lmscan/internal/ledger"
)

var (
	historyManufacturer string
	historyCategory     string
	historyLimit        int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded scans, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cfg, "history")
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := st.History(cmd.Context(), ledger.HistoryQuery{
			Manufacturer: historyManufacturer,
			Category:     historyCategory,
			Limit:        historyLimit,
		})
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No scans recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCAN ID\tTIME\tPRODUCT\tMANUFACTURER\tCATEGORY\tSCORE\tLEVEL\tMISSING")
		for _, rec := range recs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\t%s\n",
				rec.ScanID,
				rec.Timestamp.Format("2006-01-02 15:04"),
				rec.Product.Title,
				rec.Product.Manufacturer,
				rec.Product.Category,
				rec.Compliance.Score,
				rec.Compliance.Level,
				strings.Join(rec.Compliance.MissingFields, ", "),
			)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyManufacturer, "manufacturer", "", "filter by manufacturer key")
	historyCmd.Flags().StringVar(&historyCategory, "category", "", "filter by category")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum scans to list (0 for all retained)")
	rootCmd.AddCommand(historyCmd)
}
