package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sealcheck/lmscan/internal/model"
	"github.com/sealcheck/lmscan/internal/store"
)

var manufacturersName string

var manufacturersCmd = &cobra.Command{
	Use:   "manufacturers",
	Short: "Show per-manufacturer compliance analytics",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cfg, "manufacturers")
		if err != nil {
			return err
		}
		defer st.Close()

		if manufacturersName != "" {
			return printManufacturer(cmd.Context(), st, manufacturersName)
		}
		return listManufacturers(cmd.Context(), st)
	},
}

func listManufacturers(ctx context.Context, st store.Store) error {
	rows, err := st.ListManufacturers(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "No manufacturers tracked yet.")
		return nil
	}

	snap, err := st.Snapshot(ctx)
	if err != nil {
		return err
	}
	ov := snap.Overview()
	fmt.Printf("Industry: %d scans across %d manufacturers, average score %.2f\n\n",
		ov.TotalScans, ov.TotalManufacturers, ov.AverageScore)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MANUFACTURER\tPRODUCTS\tAVG SCORE\tLEVEL\tCATEGORIES\tLAST SCAN")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%s\t%s\t%s\n",
			row.DisplayName,
			row.TotalProducts,
			row.AverageScore,
			row.Level,
			strings.Join(row.Categories, ", "),
			row.LastUpdated.Format("2006-01-02"),
		)
	}
	return w.Flush()
}

func printManufacturer(ctx context.Context, st store.Store, key string) error {
	m, err := st.GetManufacturer(ctx, key)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", m.DisplayName)
	fmt.Printf("Products scanned: %d\n", m.TotalProducts)
	fmt.Printf("Average score:    %.2f (%s)\n", m.AverageScore, model.LevelForScore(m.AverageScore))

	snap, err := st.Snapshot(ctx)
	if err != nil {
		return err
	}
	if trend, ok := snap.Trend(key, time.Now()); ok {
		fmt.Printf("Trend:            %s (recent %.2f over %d scans, previous %.2f over %d)\n",
			trend.Direction, trend.RecentAverage, trend.RecentScans,
			trend.PreviousAverage, trend.PreviousScans)
	}

	fmt.Println("\nRequired field declaration rates:")
	for field, c := range m.RequiredFields {
		fmt.Printf("  %-14s %.0f%% (%d of %d)\n", field, c.Percentage, c.Present, c.Present+c.Missing)
	}
	if len(m.Recent) > 0 {
		fmt.Println("\nRecent products:")
		for _, p := range m.Recent {
			fmt.Printf("  %.2f  %s  (%s)\n", p.Score, p.Title, p.Category)
		}
	}
	return nil
}

func init() {
	manufacturersCmd.Flags().StringVar(&manufacturersName, "name", "", "show analytics for one manufacturer key")
	rootCmd.AddCommand(manufacturersCmd)
}
