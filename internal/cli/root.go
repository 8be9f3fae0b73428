// Package cli implements the verox command-line interface.
//
// Every invocation builds its own command tree and CommandContext, so
// nothing is shared between runs of Execute.
package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/verox-wallet/verox/internal/config"
	"github.com/verox-wallet/verox/internal/metrics"
	"github.com/verox-wallet/verox/internal/output"
	"github.com/verox-wallet/verox/internal/service/balance"
	walletsvc "github.com/verox-wallet/verox/internal/service/wallet"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// Options injects the process boundary into the command tree. Zero fields
// fall back to the real terminal and network.
type Options struct {
	Stdout       io.Writer
	Stderr       io.Writer
	Prompter     Prompter
	ChainFactory ChainFactory
	Gate         walletsvc.BiometricGate
	Prices       balance.PriceProvider
}

func (o *Options) withDefaults() *Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if out.Stdout == nil {
		out.Stdout = os.Stdout
	}
	if out.Stderr == nil {
		out.Stderr = os.Stderr
	}
	if out.Prompter == nil {
		out.Prompter = NewTerminalPrompter()
	}
	if out.ChainFactory == nil {
		out.ChainFactory = DefaultChainFactory
	}
	return &out
}

type rootFlags struct {
	home    string
	output  string
	verbose bool
}

// NewRootCommand builds the verox command tree.
func NewRootCommand(opts *Options) *cobra.Command {
	opts = opts.withDefaults()
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "verox",
		Short: "A self-custodial EVM wallet",
		Long: `Verox keeps one HD wallet encrypted on this machine and talks to an
EVM JSON-RPC node to read balances and send ETH or ERC-20 tokens.

Example:
  verox wallet create --words 24
  verox balance
  verox send --to 0x... --amount 0.1
  verox send --to 0x... --amount 25 --token USDC`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := newCommandContext(flags, opts)
			if err != nil {
				return err
			}
			SetCmdContext(cmd, cc)
			cc.Log.Debug("command %s started", cmd.CommandPath())
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if cc := GetCmdContext(cmd); cc != nil {
				return cc.Close()
			}
			return nil
		},
	}
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.home, "home", "", "verox data directory (default: ~/.verox)")
	pf.StringVarP(&flags.output, "output", "o", "auto", "output format: text, json, auto")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newWalletCommand(),
		newBalanceCommand(),
		newSendCommand(),
		newHistoryCommand(),
		newConfigCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the CLI with args and returns the process exit code. Errors
// are rendered to stderr in the active output format.
func Execute(ctx context.Context, args []string, opts *Options) int {
	opts = opts.withDefaults()
	root := NewRootCommand(opts)
	root.SetArgs(args)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return veroxerr.ExitSuccess
	}

	// Without a context the config never loaded; fall back to the flag.
	flag, _ := root.PersistentFlags().GetString("output")
	format := output.DetectFormat(opts.Stdout, output.ParseFormat(flag))
	cc := GetCmdContext(cmd)
	if cc != nil {
		format = cc.Fmt.Format()
		cc.Log.Error("command %s failed: %s", cmd.CommandPath(), veroxerr.Code(err))
		// PostRun is skipped when RunE fails.
		_ = cc.Close()
	}
	_ = output.FormatError(opts.Stderr, err, format)
	return veroxerr.ExitCode(err)
}

// newCommandContext resolves configuration in order: defaults, config file,
// VEROX_* environment, flags.
func newCommandContext(flags *rootFlags, opts *Options) (*CommandContext, error) {
	home := flags.home
	if home == "" {
		home = os.Getenv(config.EnvPrefix + "_HOME")
	}
	if home == "" {
		home = config.DefaultHome()
	}
	home = config.ExpandHome(home)

	cfg, err := config.Load(config.Path(home))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = config.Defaults()
	case err != nil:
		return nil, err
	}
	if err = config.ApplyEnvironment(cfg); err != nil {
		return nil, err
	}
	cfg.Home = home
	if flags.verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if flags.output != "" && flags.output != string(output.FormatAuto) {
		cfg.Output.DefaultFormat = flags.output
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := config.NewLogger(config.ParseLogLevel(cfg.Logging.Level), cfg.LogPath(), config.RotationOptions{
		MaxAge:       time.Duration(cfg.Logging.MaxAgeHours) * time.Hour,
		RotationTime: time.Duration(cfg.Logging.RotateHours) * time.Hour,
	})
	if err != nil {
		// Logging is best effort.
		logger = config.NullLogger()
	}

	return &CommandContext{
		Cfg:      cfg,
		Log:      logger,
		Fmt:      output.NewFormatter(output.ParseFormat(cfg.Output.DefaultFormat), opts.Stdout),
		Metrics:  metrics.New(),
		Stderr:   opts.Stderr,
		Prompt:   opts.Prompter,
		newChain: opts.ChainFactory,
		gate:     opts.Gate,
		prices:   opts.Prices,
	}, nil
}
