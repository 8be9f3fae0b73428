package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verox-wallet/verox/internal/output"
	walletsvc "github.com/verox-wallet/verox/internal/service/wallet"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

func newWalletCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Create, import and manage the wallet",
	}
	cmd.AddCommand(
		newWalletCreateCommand(),
		newWalletImportCommand(),
		newWalletAddressCommand(),
		newWalletStatusCommand(),
		newWalletResetCommand(),
		newWalletPasswdCommand(),
	)
	return cmd
}

// walletResponse is the JSON shape of create and import.
type walletResponse struct {
	Address  string `json:"address"`
	Mnemonic string `json:"mnemonic,omitempty"`
}

func newWalletCreateCommand() *cobra.Command {
	var (
		words int
		force bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate a new wallet",
		Long: `Generate a new BIP39 recovery phrase and store its key encrypted under a
password. The phrase is shown once; write it down.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := GetCmdContext(cmd)
			if cmd.Flags().Changed("words") {
				if words != 12 && words != 24 {
					return veroxerr.WithDetails(veroxerr.ErrInvalidInput, map[string]string{"words": fmt.Sprint(words)})
				}
				cc.Cfg.Security.MnemonicWords = words
			}

			ctx := cmd.Context()
			m, err := cc.Manager(ctx)
			if err != nil {
				return err
			}
			if !force && m.State() != walletsvc.StateNoWallet {
				return veroxerr.WithSuggestion(veroxerr.ErrWalletExists, "use --force to replace it")
			}

			password, err := cc.Prompt.NewPassword()
			if err != nil {
				return err
			}
			res, err := m.CreateWallet(ctx, password, force)
			if err != nil {
				return err
			}

			return cc.Fmt.Emit(walletResponse{Address: res.Address, Mnemonic: res.Mnemonic}, func(w io.Writer) error {
				output.Success(w, "Wallet created: %s", res.Address)
				output.Warn(w, "Write down your recovery phrase. It will not be shown again.")
				_, err := fmt.Fprintf(w, "\n  %s\n\n", res.Mnemonic)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&words, "words", 12, "mnemonic length: 12 or 24")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing wallet")
	return cmd
}

func newWalletImportCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Restore a wallet from its recovery phrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := GetCmdContext(cmd)
			ctx := cmd.Context()
			m, err := cc.Manager(ctx)
			if err != nil {
				return err
			}
			if !force && m.State() != walletsvc.StateNoWallet {
				return veroxerr.WithSuggestion(veroxerr.ErrWalletExists, "use --force to replace it")
			}

			mnemonic, err := cc.Prompt.Mnemonic()
			if err != nil {
				return err
			}
			password, err := cc.Prompt.NewPassword()
			if err != nil {
				return err
			}
			res, err := m.ImportWallet(ctx, mnemonic, password, force)
			if err != nil {
				return err
			}

			return cc.Fmt.Emit(walletResponse{Address: res.Address}, func(w io.Writer) error {
				output.Success(w, "Wallet imported: %s", res.Address)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing wallet")
	return cmd
}

func newWalletAddressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the receive address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := GetCmdContext(cmd)
			m, err := cc.Manager(cmd.Context())
			if err != nil {
				return err
			}
			addr, err := m.Address(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Fmt.Emit(walletResponse{Address: addr}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, addr)
				return err
			})
		},
	}
}

type statusResponse struct {
	State   string `json:"state"`
	Address string `json:"address,omitempty"`
	Vault   string `json:"vault_method"`
	Storage string `json:"storage"`
}

func newWalletStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a wallet exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := GetCmdContext(cmd)
			m, err := cc.Manager(cmd.Context())
			if err != nil {
				return err
			}
			resp := statusResponse{
				State:   m.State().String(),
				Vault:   cc.Cfg.Vault.Method,
				Storage: cc.Cfg.Storage.Backend,
			}
			if m.State() != walletsvc.StateNoWallet {
				if resp.Address, err = m.Address(cmd.Context()); err != nil {
					return err
				}
			}

			return cc.Fmt.Emit(resp, func(w io.Writer) error {
				t := output.NewTable("FIELD", "VALUE")
				t.AddRow("State", strings.ReplaceAll(resp.State, "_", " "))
				if resp.Address != "" {
					t.AddRow("Address", resp.Address)
				}
				t.AddRow("Vault", resp.Vault)
				t.AddRow("Storage", resp.Storage)
				return t.Render(w)
			})
		},
	}
}

func newWalletResetCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase the wallet and its history",
		Long: `Erase the encrypted key and the transaction history from this machine.
Funds can only be recovered afterwards with the recovery phrase.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := GetCmdContext(cmd)
			m, err := cc.Manager(cmd.Context())
			if err != nil {
				return err
			}
			if m.State() == walletsvc.StateNoWallet {
				return veroxerr.ErrNoWalletFound
			}
			if !yes && !cc.Prompt.Confirm("Erase the wallet from this machine?") {
				output.Info(cc.Stderr, "Reset cancelled.")
				return nil
			}
			if err := m.Reset(cmd.Context()); err != nil {
				return err
			}
			return cc.Fmt.Emit(map[string]string{"state": m.State().String()}, func(w io.Writer) error {
				output.Success(w, "Wallet erased.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newWalletPasswdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the vault password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := GetCmdContext(cmd)
			m, err := cc.Manager(cmd.Context())
			if err != nil {
				return err
			}
			if m.State() == walletsvc.StateNoWallet {
				return veroxerr.ErrNoWalletFound
			}
			current, err := cc.Prompt.Password("Current password: ")
			if err != nil {
				return err
			}
			next, err := cc.Prompt.NewPassword()
			if err != nil {
				return err
			}
			if err := m.ChangePassword(cmd.Context(), current, next); err != nil {
				return err
			}
			return cc.Fmt.Emit(map[string]bool{"changed": true}, func(w io.Writer) error {
				output.Success(w, "Password changed.")
				return nil
			})
		},
	}
}
