package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unimarket/authctx/internal/cli"
	"github.com/unimarket/authctx/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "authctx",
	Short:         "authctx manages the UniMarket client session",
	Long:          `authctx inspects and mutates the UniMarket session shared by every client context on this machine or redis instance.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a YAML config file")
	pf.String("backend", "", "Cross-tab tier backend: memory, file or redis")
	pf.String("dir", "", "Directory of the file backend")
	pf.String("redis-addr", "", "Address of the redis backend")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.String("tab-id", "", "Pin the context id instead of generating one")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of authctx",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "authctx version %s\n", version)
	},
}

// loadConfig reads the config file and lets explicitly set flags override it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	overrides := map[string]*string{
		"backend":    &cfg.Backend,
		"dir":        &cfg.Dir,
		"redis-addr": &cfg.Redis.Addr,
		"log-level":  &cfg.LogLevel,
		"tab-id":     &cfg.TabID,
	}
	for name, dst := range overrides {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	return cfg, cfg.Validate()
}

// openStore builds and initializes a store for one command invocation.
func openStore(cmd *cobra.Command) (*cli.Wiring, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	w, err := cli.BuildStore(cfg, cli.CreateLogger(cfg.LogLevel), nil)
	if err != nil {
		return nil, cfg, err
	}
	w.Store.Initialize(cmd.Context())
	return w, cfg, nil
}
