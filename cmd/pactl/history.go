package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nergy-se/priceanalyzer/pkg/store"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	var dbPath, area, from, to string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recorded classified periods",
		RunE: func(cmd *cobra.Command, args []string) error {
			fromT, err := time.ParseInLocation("2006-01-02", from, time.Local)
			if err != nil {
				return fmt.Errorf("invalid from (use YYYY-MM-DD): %w", err)
			}
			toT := fromT.AddDate(0, 0, 1)
			if to != "" {
				toT, err = time.ParseInLocation("2006-01-02", to, time.Local)
				if err != nil {
					return fmt.Errorf("invalid to (use YYYY-MM-DD): %w", err)
				}
			}

			db, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			periods, err := db.History(cmd.Context(), strings.ToUpper(area), fromT, toT)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "START\tPRICE\tCORRECTION\tHOT WATER\tREASON")
			for _, p := range periods {
				fmt.Fprintf(w, "%s\t%.3f\t%g\t%g\t%s\n", p.Start.Local().Format("2006-01-02 15:04"), p.Price, p.Correction, p.HotWater, p.Reason)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "priceanalyzer.db", "database path")
	cmd.Flags().StringVarP(&area, "area", "a", "SE3", "price area")
	cmd.Flags().StringVar(&from, "from", time.Now().Format("2006-01-02"), "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "day after the last day (YYYY-MM-DD)")
	return cmd
}
