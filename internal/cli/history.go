package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/verox-wallet/verox/internal/ledger"
	"github.com/verox-wallet/verox/internal/output"
)

type historyResponse struct {
	Records []ledger.Record `json:"records"`
	Updated *int            `json:"updated,omitempty"`
}

func newHistoryCommand() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List sent transactions, newest first",
		Long: `List the transactions this wallet has sent. Only the most recent entries
are kept. --refresh asks the node for the receipts of pending entries first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := GetCmdContext(cmd)
			ctx, cancel := withTimeout(cmd, cc.Cfg)
			defer cancel()

			resp := historyResponse{}
			if refresh {
				engine, err := cc.Engine(ctx)
				if err != nil {
					return err
				}
				res, err := engine.RefreshStatuses(ctx)
				if err != nil {
					return err
				}
				n := res.Updated()
				resp.Updated = &n
			}

			l, err := cc.Ledger(ctx)
			if err != nil {
				return err
			}
			resp.Records = l.List()

			return cc.Fmt.Emit(resp, func(w io.Writer) error {
				if resp.Updated != nil {
					output.Info(w, "%d transaction(s) updated", *resp.Updated)
				}
				if len(resp.Records) == 0 {
					_, err := fmt.Fprintln(w, "No transactions.")
					return err
				}
				t := output.NewTable("TIME", "STATUS", "AMOUNT", "ASSET", "TO", "HASH").AlignRight(2)
				for _, r := range resp.Records {
					t.AddRow(
						r.SubmittedAt.Local().Format("2006-01-02 15:04"),
						string(r.Status),
						r.Amount,
						r.AssetSymbol,
						r.Recipient,
						r.Hash,
					)
				}
				return t.Render(w)
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "update pending transactions from the node first")
	return cmd
}
