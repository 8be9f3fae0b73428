package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verox-wallet/verox/internal/config"
	"github.com/verox-wallet/verox/internal/output"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigShowCommand(), newConfigPathCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		asTOML bool
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := GetCmdContext(cmd)
			name := "config.yaml"
			if asTOML {
				name = "config.toml"
			}
			path := filepath.Join(cc.Cfg.HomeDir(), name)
			if _, err := os.Stat(path); err == nil && !force {
				return veroxerr.WithSuggestion(
					veroxerr.WithDetails(veroxerr.ErrInvalidInput, map[string]string{"path": path}),
					"config file exists; use --force to overwrite it",
				)
			}

			cfg := config.Defaults()
			cfg.Home = cc.Cfg.Home
			if err := config.Save(cfg, path); err != nil {
				return veroxerr.Storage(err)
			}
			return cc.Fmt.Emit(map[string]string{"path": path}, func(w io.Writer) error {
				output.Success(w, "Config written to %s", path)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asTOML, "toml", false, "write TOML instead of YAML")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after the config file, VEROX_* variables and flags are applied.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := GetCmdContext(cmd)
			data, err := yaml.Marshal(cc.Cfg)
			if err != nil {
				return err
			}
			if !cc.Fmt.IsJSON() {
				_, err = cc.Fmt.Writer().Write(data)
				return err
			}
			// Re-decode so JSON keys match the file's snake_case names.
			var doc map[string]any
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return err
			}
			return cc.Fmt.Emit(doc, nil)
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := GetCmdContext(cmd)
			path := config.Path(cc.Cfg.HomeDir())
			return cc.Fmt.Emit(map[string]string{"path": path}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, path)
				return err
			})
		},
	}
}
