package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nergy-se/priceanalyzer/pkg/price"
	"github.com/spf13/cobra"
)

func areasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "areas",
		Short: "List supported price areas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printAreas(cmd.OutOrStdout())
		},
	}
}

func printAreas(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AREA\tCURRENCY\tVAT\tTIMEZONE\tCOUNTRY")
	for _, code := range price.AreaCodes() {
		info, _ := price.LookupArea(code)
		fmt.Fprintf(w, "%s\t%s\t%.3g\t%s\t%s\n", info.Code, info.Currency, info.VAT, info.Timezone, info.Country)
	}
	return w.Flush()
}
