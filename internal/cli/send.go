package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verox-wallet/verox/internal/chain/eth"
	"github.com/verox-wallet/verox/internal/ledger"
	"github.com/verox-wallet/verox/internal/output"
	"github.com/verox-wallet/verox/internal/service/transaction"
)

type sendFlags struct {
	to       string
	amount   string
	token    string
	gasPrice string
	gasLimit uint64
	yes      bool
}

func newSendCommand() *cobra.Command {
	f := &sendFlags{}
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send ETH or an ERC-20 token",
		Long: `Unlock the wallet, sign one transfer and broadcast it. The wallet is
locked again before the command exits.

--token accepts a configured symbol (USDC) or a contract address. Without
it the native asset is sent.`,
		Example: `  verox send --to 0x70997970C51812dc3A010C7d01b50e0d17dc79C8 --amount 0.05
  verox send --to 0x70997970C51812dc3A010C7d01b50e0d17dc79C8 --amount 25 --token USDC`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSend(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.to, "to", "", "recipient address")
	fl.StringVar(&f.amount, "amount", "", "amount in whole units (0.5)")
	fl.StringVar(&f.token, "token", "", "token symbol or contract address")
	fl.StringVar(&f.gasPrice, "gas-price", "", "gas price in gwei (default: node suggestion)")
	fl.Uint64Var(&f.gasLimit, "gas-limit", 0, "gas limit (default: standard transfer limit)")
	fl.BoolVarP(&f.yes, "yes", "y", false, "do not ask for confirmation")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func runSend(cmd *cobra.Command, f *sendFlags) error {
	cc := GetCmdContext(cmd)

	req := &transaction.SendRequest{
		To:       f.to,
		Amount:   f.amount,
		Token:    resolveToken(cc, f.token),
		GasLimit: f.gasLimit,
	}
	if f.gasPrice != "" {
		price, err := eth.ParseGwei(f.gasPrice)
		if err != nil {
			return err
		}
		req.GasPrice = price
	}

	asset := cc.Cfg.Network.NativeSymbol
	if f.token != "" {
		asset = f.token
	}
	if !f.yes && !cc.Prompt.Confirm(fmt.Sprintf("Send %s %s to %s?", f.amount, asset, f.to)) {
		output.Info(cc.Stderr, "Send cancelled.")
		return nil
	}

	// The network deadline starts after the password is typed.
	m, err := cc.Manager(commandContext(cmd))
	if err != nil {
		return err
	}
	password, err := cc.Prompt.Password("Wallet password: ")
	if err != nil {
		return err
	}
	if _, err = m.Unlock(commandContext(cmd), password); err != nil {
		return err
	}
	defer m.Lock()

	ctx, cancel := withTimeout(cmd, cc.Cfg)
	defer cancel()

	engine, err := cc.Engine(ctx)
	if err != nil {
		return err
	}

	var rec *ledger.Record
	if req.Token != "" {
		rec, err = engine.SendToken(ctx, req)
	} else {
		rec, err = engine.SendNative(ctx, req)
	}
	if err != nil {
		if rec != nil {
			// Broadcast but not recorded; the hash is the only trace.
			output.Warn(cc.Stderr, "Transaction %s was sent but not saved to history.", rec.Hash)
		}
		return err
	}

	return cc.Fmt.Emit(rec, func(w io.Writer) error {
		output.Success(w, "Sent %s %s to %s", rec.Amount, rec.AssetSymbol, rec.Recipient)
		_, err := fmt.Fprintf(w, "Hash: %s\n", rec.Hash)
		return err
	})
}

// resolveToken maps a configured symbol to its contract address. Anything
// else is passed through and validated by the engine.
func resolveToken(cc *CommandContext, token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	for _, t := range cc.Cfg.Network.Tokens {
		if strings.EqualFold(t.Symbol, token) {
			return t.Address
		}
	}
	if strings.EqualFold(token, cc.Cfg.Network.NativeSymbol) {
		return ""
	}
	return token
}
