// Package root builds the tblogger command tree.
package root

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wandb/tblogger/cmd/tblogger/root/inspect"
	"github.com/wandb/tblogger/cmd/tblogger/root/replay"
	"github.com/wandb/tblogger/cmd/tblogger/root/version"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tblogger <command>",
		Short: "Forward training metrics to TensorBoard",
		Long: heredoc.Doc(`
			Writes training reports to TensorBoard event files under
			<datapath>/tensorboard/<run tag>, and reads them back.
		`),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().String("sentry-dsn", "", "Sentry DSN for error reports")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("sentry_dsn", cmd.PersistentFlags().Lookup("sentry-dsn"))

	cmd.AddCommand(replay.NewReplayCmd())
	cmd.AddCommand(inspect.NewInspectCmd())
	cmd.AddCommand(version.NewVersionCmd())

	return cmd
}
