package main

import (
	"fmt"
	"math"

	"github.com/nergy-se/priceanalyzer/pkg/modbusclient"
	"github.com/spf13/cobra"
)

func modbusCmd() *cobra.Command {
	var address string
	var slaveID uint8
	var decimals int
	var inputReg, holdingReg, coil int
	var value int

	cmd := &cobra.Command{
		Use:   "modbus",
		Short: "Read or write a single heat pump register",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address == "" {
				return fmt.Errorf("--addr is required")
			}
			client, closer := modbusclient.NewTCP(address, slaveID)
			defer closer()

			scale := math.Pow(10, float64(decimals))
			write := cmd.Flags().Changed("value")
			out := cmd.OutOrStdout()

			switch {
			case cmd.Flags().Changed("inputreg"):
				v, err := client.ReadInputRegister(uint16(inputReg))
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "value is:", float64(v)/scale)
			case cmd.Flags().Changed("holdingreg") && write:
				b, err := client.WriteSingleRegister(uint16(holdingReg), modbusclient.Encode(value))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "raw response: %# x (length: %d)\n", b, len(b))
			case cmd.Flags().Changed("holdingreg"):
				v, err := client.ReadHoldingRegister16(uint16(holdingReg))
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "value is:", float64(v)/scale)
			case cmd.Flags().Changed("coil") && write:
				_, err := client.WriteSingleCoil(uint16(coil), modbusclient.CoilValue(value != 0))
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "coil written:", value != 0)
			default:
				return fmt.Errorf("one of --inputreg, --holdingreg or --coil with --value is required")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "addr", "", "tcp modbus address")
	cmd.Flags().Uint8Var(&slaveID, "slave", 1, "modbus slave id")
	cmd.Flags().IntVar(&decimals, "decimals", 2, "scale of read values")
	cmd.Flags().IntVar(&inputReg, "inputreg", 0, "input register to read")
	cmd.Flags().IntVar(&holdingReg, "holdingreg", 0, "holding register to read or write")
	cmd.Flags().IntVar(&coil, "coil", 0, "coil to write")
	cmd.Flags().IntVar(&value, "value", 0, "value to write")
	return cmd
}
