package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/koding/multiconfig"
	"github.com/nergy-se/priceanalyzer/pkg/analyzer"
	"github.com/nergy-se/priceanalyzer/pkg/api/v1/config"
	"github.com/nergy-se/priceanalyzer/pkg/driver"
	"github.com/nergy-se/priceanalyzer/pkg/nordpool"
	"github.com/nergy-se/priceanalyzer/pkg/price"
	"github.com/spf13/cobra"
)

func analyzeCmd() *cobra.Command {
	cfg := &config.CliConfig{}
	var area, date string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Fetch one day for an area and print its classified periods",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, ok := price.LookupArea(area)
			if !ok {
				return fmt.Errorf("unsupported area %s", area)
			}
			loc, err := info.Location()
			if err != nil {
				return err
			}
			day := time.Now().In(loc)
			if date != "today" {
				day, err = time.ParseInLocation("2006-01-02", date, loc)
				if err != nil {
					return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
				}
			}

			periods, stats, err := analyze(cmd.Context(), cfg, info, day)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(periods)
			}
			return printPeriods(cmd.OutOrStdout(), periods, stats, loc)
		},
	}

	err := (&multiconfig.TagLoader{}).Load(cfg)
	if err != nil {
		panic(err)
	}
	cmd.Flags().StringVarP(&area, "area", "a", "SE3", "price area")
	cmd.Flags().StringVarP(&date, "date", "d", "today", "date to analyze (YYYY-MM-DD or 'today')")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print json")
	cmd.Flags().StringVar(&cfg.PriceUnit, "unit", cfg.PriceUnit, "MWh, kWh or Wh")
	cmd.Flags().BoolVar(&cfg.VAT, "vat", cfg.VAT, "include vat")
	cmd.Flags().BoolVar(&cfg.Cents, "cents", cfg.Cents, "price in cents")
	cmd.Flags().StringVar(&cfg.Currency, "currency", cfg.Currency, "override area currency")
	cmd.Flags().Float64Var(&cfg.AdditionalCost, "additional-cost", cfg.AdditionalCost, "fixed cost added to every period")
	cmd.Flags().Float64Var(&cfg.PercentDifference, "percent-difference", cfg.PercentDifference, "minimum spread in percent for corrections")
	cmd.Flags().Float64Var(&cfg.PriceBeforeActive, "price-before-active", cfg.PriceBeforeActive, "max price below which nothing is corrected")
	cmd.Flags().StringVar(&cfg.ProviderURL, "provider-url", cfg.ProviderURL, "nord pool api url")
	return cmd
}

// analyze classifies day using the following day for lookahead when it is published.
func analyze(ctx context.Context, cfg *config.CliConfig, info price.AreaInfo, day time.Time) ([]analyzer.ClassifiedPeriod, analyzer.DayStatistics, error) {
	converter, err := cfg.Converter(info)
	if err != nil {
		return nil, analyzer.DayStatistics{}, err
	}
	opts, err := cfg.AnalyzerOptions()
	if err != nil {
		return nil, analyzer.DayStatistics{}, err
	}
	a := analyzer.New(converter, opts)
	client := nordpool.New(cfg.ProviderURL, cfg.CurrencyFor(info))

	midday := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, day.Location())
	series, err := client.FetchArea(ctx, info.Code, midday)
	if err != nil {
		return nil, analyzer.DayStatistics{}, err
	}
	if series == nil {
		return nil, analyzer.DayStatistics{}, fmt.Errorf("%s for %s: %w", midday.Format("2006-01-02"), info.Code, driver.ErrNotPublished)
	}
	today, err := a.PrepareDay(series)
	if err != nil {
		return nil, analyzer.DayStatistics{}, err
	}

	// the following day is optional
	var next *analyzer.Day
	nextSeries, err := client.FetchArea(ctx, info.Code, midday.AddDate(0, 0, 1))
	if err == nil && nextSeries.Valid() {
		next, err = a.PrepareDay(nextSeries)
		if err != nil {
			return nil, analyzer.DayStatistics{}, err
		}
	}

	var nextPrices []analyzer.Price
	if next != nil {
		nextPrices = next.Prices
	}
	now := time.Now()
	periods := a.Classify(analyzer.ClassifyInput{
		Day:           today,
		Next:          next,
		TomorrowValid: next != nil,
		Future:        analyzer.FutureSorted(today.Prices, nextPrices, now),
		Now:           now,
	})
	return periods, today.Stats, nil
}

func printPeriods(out io.Writer, periods []analyzer.ClassifiedPeriod, st analyzer.DayStatistics, loc *time.Location) error {
	fmt.Fprintf(out, "average %.3f min %.3f max %.3f peak %.3f off-peak %.3f/%.3f spread %.2f small %t\n\n",
		st.Average, st.Min, st.Max, st.Peak, st.OffPeak1, st.OffPeak2, st.SpreadRatio, st.IsSmallSpread)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tPRICE\tFLAGS\tCORRECTION\tHOT WATER\tREASON")
	for _, p := range periods {
		fmt.Fprintf(w, "%s\t%.3f\t%s\t%g\t%g\t%s\n",
			p.Start.In(loc).Format("15:04"),
			p.Value,
			flags(p),
			p.AdjustedCorrection,
			p.HotWater.Setpoint,
			p.Reason,
		)
	}
	return w.Flush()
}

func flags(p analyzer.ClassifiedPeriod) string {
	var f []string
	add := func(b bool, s string) {
		if b {
			f = append(f, s)
		}
	}
	add(p.IsMax, "max")
	add(p.IsMin, "min")
	add(p.IsLowPrice, "low")
	add(p.IsFiveCheapest, "5cheap")
	add(p.IsTenCheapest && !p.IsFiveCheapest, "10cheap")
	add(p.IsFiveMostExpensive, "5exp")
	add(p.IsGaining, "gain")
	add(p.IsFalling, "fall")
	add(p.IsCheapComparedToFuture, "cheapfuture")
	add(p.IsLowComparedToTomorrow, "lowtomorrow")
	if len(f) == 0 {
		return "-"
	}
	return strings.Join(f, ",")
}
