package cmd

import (
	"errors"
	"io/fs"
	"os"
	"selection_assistant/config"
	"selection_assistant/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "selection_assistant",
	Short:         "Translate or explain selected text with an OpenAI-compatible API.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env 里的 SELASSIST_* 变量覆盖配置文件
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		config.Cfg = cfg
		return logger.Init(cfg.Log)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yml", "config file")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}
