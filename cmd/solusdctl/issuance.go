package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	sc "solusd/internal/domain/stablecoin"
)

func (c *cli) mintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mint <wallet> <sol-amount>",
		Short: "Mint SOLUSD for a SOL amount at the current rate",
		Example: `  solusdctl mint 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin 2
  # 2 SOL at rate 30 -> 60.000000 SOLUSD`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sol, err := sc.ParseAmount(args[1])
			if err != nil {
				return err
			}
			rc, err := c.cont.IssuanceUC.Mint(c.ctx(cmd), args[0], sol)
			if err != nil {
				return err
			}
			return c.printReceipt(rc)
		},
	}
}

func (c *cli) burnCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "burn <wallet> <token-amount>",
		Short: "Burn SOLUSD from a wallet",
		Long: `Burn SOLUSD from the wallet's token account. The wallet must be signable
by the configured WALLET_SIGNER. Amounts above the current balance are refused
before submission unless --force is given; the ledger still has the final say.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := sc.ParseAmount(args[1])
			if err != nil {
				return err
			}
			ctx := c.ctx(cmd)
			_, minted := c.cont.Registry.CurrentMint()
			if !force && minted {
				bal, err := c.cont.BalanceUC.TokenBalance(ctx, args[0])
				if err != nil {
					return err
				}
				if amount.GreaterThan(bal) {
					return fmt.Errorf("amount %s exceeds balance %s %s (use --force to submit anyway)",
						amount.String(), bal.StringFixed(sc.Decimals), sc.Symbol)
				}
			} else if force {
				stderrf("skipping balance check\n")
			}

			rc, err := c.cont.IssuanceUC.Burn(ctx, args[0], amount)
			if err != nil {
				return err
			}
			return c.printReceipt(rc)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "submit even if the amount exceeds the last read balance")
	return cmd
}

func (c *cli) printReceipt(rc sc.Receipt) error {
	return c.print(rc, func(w io.Writer) {
		switch rc.Type {
		case sc.OperationMint:
			fmt.Fprintf(w, "minted %s %s for %s SOL (rate %s)\n",
				rc.TokenAmount.StringFixed(sc.Decimals), sc.Symbol, rc.SOLDisplay(), rc.Rate.String())
		default:
			fmt.Fprintf(w, "burned %s %s (≈ %s SOL at rate %s)\n",
				rc.TokenAmount.StringFixed(sc.Decimals), sc.Symbol, rc.SOLDisplay(), rc.Rate.String())
		}
		fmt.Fprintf(w, "signature: %s\n", rc.Signature)
		fmt.Fprintf(w, "explorer:  %s\n", rc.ExplorerURL)
	})
}
