package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/verox-wallet/verox/internal/output"
	"github.com/verox-wallet/verox/internal/service/balance"
)

func newBalanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Show native and token balances",
		Long: `Show the native balance and the configured token balances of the wallet,
or of any address given as an argument. Balances are read live from the
node and never cached.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := GetCmdContext(cmd)
			ctx, cancel := withTimeout(cmd, cc.Cfg)
			defer cancel()

			var address string
			if len(args) == 1 {
				address = args[0]
			} else {
				m, err := cc.Manager(ctx)
				if err != nil {
					return err
				}
				if address, err = m.Address(ctx); err != nil {
					return err
				}
			}

			svc, err := cc.Balances()
			if err != nil {
				return err
			}
			snap, err := svc.Snapshot(ctx, address)
			if err != nil {
				return err
			}
			return cc.Fmt.Emit(snap, func(w io.Writer) error {
				return renderSnapshot(w, snap)
			})
		},
	}
}

func renderSnapshot(w io.Writer, snap *balance.Snapshot) error {
	if _, err := fmt.Fprintf(w, "Address: %s\n\n", snap.Address); err != nil {
		return err
	}
	t := output.NewTable("ASSET", "BALANCE", "USD").AlignRight(1, 2)
	for _, h := range snap.Holdings() {
		usd := "-"
		if h.USDValue != nil {
			usd = fmt.Sprintf("%.2f", *h.USDValue)
		}
		t.AddRow(h.Symbol, h.Balance, usd)
	}
	if err := t.Render(w); err != nil {
		return err
	}
	if total, ok := snap.TotalUSD(); ok {
		_, err := fmt.Fprintf(w, "\nTotal: $%.2f\n", total)
		return err
	}
	return nil
}
