package main

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/giantgun/BareBtc/internal/amount"
	"github.com/spf13/cobra"
)

var convertFloat bool

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert between sBTC base units and display amounts",
}

var toBaseCmd = &cobra.Command{
	Use:   "to-base <display-amount>",
	Short: "Convert a display amount such as 0.05 to base units",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if convertFloat {
			f, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
			if err != nil {
				return fmt.Errorf("invalid display amount %q: %w", args[0], err)
			}
			n, err := amount.FromFloat(f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		}
		d, err := amount.Parse(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), amount.ToBaseUnits(d).String())
		return nil
	},
}

var toDisplayCmd = &cobra.Command{
	Use:   "to-display <base-units>",
	Short: "Convert base units to a display amount",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, ok := new(big.Int).SetString(strings.TrimSpace(args[0]), 10)
		if !ok {
			return fmt.Errorf("invalid base-unit amount %q", args[0])
		}
		if convertFloat {
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(amount.Float(n), 'f', -1, 64))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), amount.Format(amount.ToDisplay(n), amount.Scale))
		return nil
	},
}

func init() {
	convertCmd.PersistentFlags().BoolVar(&convertFloat, "float", false, "convert through float64, as browser wallets do")
	convertCmd.AddCommand(toBaseCmd, toDisplayCmd)
}
