package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	uc "solusd/internal/application/usecase"
	sc "solusd/internal/domain/stablecoin"
)

func (c *cli) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <wallet>",
		Short: "Show SOLUSD and SOL balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.cont.BalanceUC.Snapshot(c.ctx(cmd), args[0])
			if err != nil {
				return err
			}
			return c.print(snap, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s\n", snap.Token.StringFixed(sc.Decimals), sc.Symbol)
				fmt.Fprintf(w, "%s SOL\n", snap.Native.StringFixed(4))
			})
		},
	}
}

func (c *cli) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show mint address, decimals and supply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := c.cont.BalanceUC.MintInfo(c.ctx(cmd))
			if err != nil && !info.Created {
				return err
			}
			if err != nil {
				stderrf("warning: supply unavailable: %v\n", err)
			}
			return c.print(info, func(w io.Writer) {
				if !info.Created {
					fmt.Fprintf(w, "%s mint not created yet (decimals %d)\n", sc.Symbol, info.Decimals)
					return
				}
				fmt.Fprintf(w, "mint:     %s\n", *info.Address)
				fmt.Fprintf(w, "decimals: %d\n", info.Decimals)
				fmt.Fprintf(w, "supply:   %s %s\n", info.Supply.StringFixed(sc.Decimals), sc.Symbol)
			})
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <wallet>",
		Short: "List recent SOLUSD mints and burns for a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := c.cont.HistoryUC.List(c.ctx(cmd), args[0], limit)
			if err != nil {
				return err
			}
			return c.print(records, func(w io.Writer) {
				if len(records) == 0 {
					fmt.Fprintln(w, "no transactions")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TIME\tTYPE\tAMOUNT\tSIGNATURE")
				for _, r := range records {
					when := "-"
					if r.BlockTime != nil {
						when = r.BlockTime.UTC().Format(time.DateTime)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", when, r.Type, r.Amount.StringFixed(sc.Decimals), r.Signature)
				}
				_ = tw.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", uc.DefaultHistoryLimit, fmt.Sprintf("number of entries (max %d)", uc.MaxHistoryLimit))
	return cmd
}

func (c *cli) airdropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "airdrop <wallet> [sol]",
		Short: "Request devnet SOL for fees (default 1 SOL)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sol := decimal.NewFromInt(1)
			if len(args) == 2 {
				v, err := sc.ParseAmount(args[1])
				if err != nil {
					return err
				}
				sol = v
			}
			sig, err := c.cont.BalanceUC.Airdrop(c.ctx(cmd), args[0], sol)
			if err != nil {
				return err
			}
			return c.print(map[string]string{"signature": sig, "sol": sol.String()}, func(w io.Writer) {
				fmt.Fprintf(w, "airdrop of %s SOL requested: %s\n", sol.String(), sig)
			})
		},
	}
}

func (c *cli) priceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price",
		Short: "Show the SOL -> SOLUSD rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rate, err := c.cont.IssuanceUC.Rate(c.ctx(cmd))
			if err != nil {
				return err
			}
			return c.print(map[string]string{"rate": rate.String()}, func(w io.Writer) {
				fmt.Fprintf(w, "1 SOL = %s %s\n", rate.String(), sc.Symbol)
			})
		},
	}
}
