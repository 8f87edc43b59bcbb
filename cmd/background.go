package cmd

import (
	"os"
	"os/signal"
	"selection_assistant/config"
	"selection_assistant/pkg/bridge"
	"selection_assistant/pkg/completion"
	"selection_assistant/service/background"
	"syscall"

	"github.com/spf13/cobra"
)

var backgroundCmd = &cobra.Command{
	Use:   "background",
	Short: "Privileged background service holding the API calls.",
	Long:  `Privileged background service. Foreground commands reach it through bridge.url.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return background.Run(ctx, config.Cfg.Background, bridge.NewRouter(completion.New()))
	},
}

func init() {
	rootCmd.AddCommand(backgroundCmd)
}
