package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/giantgun/BareBtc/internal/ledger"
	"github.com/giantgun/BareBtc/internal/stacks"
	"github.com/spf13/cobra"
)

var queryTimeout time.Duration

// queryCmd runs one read-only ledger query and prints the decoded result.
var queryCmd = &cobra.Command{
	Use:   "query <balance|eligibility|lender|pool|credit|borrower|tip|tx> [address|txid]",
	Short: "Run a read-only query against the pool contract",
	Long: `Run a read-only query against the configured Stacks API and pool contract.

Every query except tip takes a Stacks address; tx takes a transaction id.
Results are printed as JSON in display units.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", 30*time.Second, "overall query timeout")
}

func runQuery(cmd *cobra.Command, args []string) error {
	node, err := stacks.NewClient(cfg.StacksAPIURL, cfg.StacksRPS)
	if err != nil {
		return err
	}
	gw := ledger.NewGateway(node, ledger.Contracts{
		PoolAddress:  cfg.PoolContractAddress,
		PoolName:     cfg.PoolContractName,
		TokenAddress: cfg.TokenContractAddress,
		TokenName:    cfg.TokenContractName,
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
	defer cancel()

	kind := args[0]
	var subject string
	if kind != "tip" {
		if len(args) < 2 {
			return fmt.Errorf("%s needs an argument", kind)
		}
		subject = args[1]
		if kind != "tx" {
			if _, err := stacks.ParseAddress(subject); err != nil {
				return err
			}
		}
	}

	var out any
	switch kind {
	case "balance":
		out, err = gw.GetBalance(ctx, subject)
	case "eligibility":
		out, err = gw.GetLoanEligibility(ctx, subject)
	case "lender":
		out, err = gw.GetLenderInfo(ctx, subject)
	case "pool":
		out, err = gw.GetPoolInfo(ctx, subject)
	case "credit":
		out, err = gw.GetCreditScore(ctx, subject)
	case "borrower":
		out, err = gw.GetBorrowerInfo(ctx, subject)
	case "tip":
		out, err = gw.ChainTip(ctx)
	case "tx":
		out, err = node.TransactionStatus(ctx, subject)
	default:
		return fmt.Errorf("unknown query %q", kind)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
