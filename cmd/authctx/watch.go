package main

import (
	"github.com/spf13/cobra"

	"github.com/unimarket/authctx/internal/cli"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print logout and reset signals from other contexts",
	Long:  `Joins the shared storage as a context of its own and prints every signal another context sends until interrupted.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		w, err := cli.BuildStore(cfg, cli.CreateLogger(cfg.LogLevel), nil)
		if err != nil {
			return err
		}
		defer w.Close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.RunWatch(ctx, w.Store, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
