package cmd

import (
	"context"
	"errors"
	"selection_assistant/config"
	"selection_assistant/models/models"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var actionLang string

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text into the target language.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd.Context(), models.ResultTranslate, strings.Join(args, " "))
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain [text]",
	Short: "Explain what the text means in the target language.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd.Context(), models.ResultExplain, strings.Join(args, " "))
	},
}

func init() {
	for _, c := range []*cobra.Command{translateCmd, explainCmd} {
		c.Flags().StringVarP(&actionLang, "lang", "l", "", "target language code, defaults to the saved setting")
		rootCmd.AddCommand(c)
	}
}

func runAction(ctx context.Context, typ models.ResultType, text string) error {
	store, closeStore, err := openStore(ctx, config.Cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	s, err := store.Get(ctx)
	if err != nil {
		return err
	}
	if !s.IsValidated {
		return errors.New("API is not validated, run `settings test` first")
	}
	lang := s.TargetLang
	if actionLang != "" {
		lang = actionLang
	}

	client, closeBridge := openBridge(ctx, config.Cfg)
	defer closeBridge()

	spinner, _ := pterm.DefaultSpinner.Start(typ.Label() + "中...")
	res, err := client.Call(ctx, models.ActionRequest{
		Kind:       typ.Kind(),
		Config:     s.APIConfig(),
		Text:       text,
		TargetLang: lang,
	})
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	if !res.OK {
		spinner.Fail(typ.Label() + "失败")
		if res.Error == nil {
			return errors.New(typ.Label() + "失败")
		}
		return res.Error
	}
	spinner.Success(typ.Label() + "完成")
	pterm.DefaultBox.WithTitle(config.LanguageName(lang)).Println(res.Value)
	return nil
}
