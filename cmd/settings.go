package cmd

import (
	"context"
	"selection_assistant/config"
	"selection_assistant/models/models"
	"selection_assistant/pkg/ui"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	formBaseURL    string
	formAPIKey     string
	formModel      string
	formTargetLang string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or edit the API settings.",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPopup(cmd.Context(), func(ctx context.Context, p *ui.Popup) error {
			s, err := p.Load(ctx)
			if err != nil {
				return err
			}
			printSettings(s)
			return nil
		})
	},
}

var settingsSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Validate and save the settings form.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPopup(cmd.Context(), func(ctx context.Context, p *ui.Popup) error {
			f, err := formFromFlags(ctx, cmd, p)
			if err != nil {
				return err
			}
			s, err := p.Save(ctx, f)
			if err != nil {
				return err
			}
			printSettings(s)
			return nil
		})
	},
}

var settingsTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the API connection and mark the settings as validated.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPopup(cmd.Context(), func(ctx context.Context, p *ui.Popup) error {
			f, err := formFromFlags(ctx, cmd, p)
			if err != nil {
				return err
			}
			s, err := p.TestConnection(ctx, f)
			if s.BaseURL != "" {
				printSettings(s)
			}
			return err
		})
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default settings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPopup(cmd.Context(), func(ctx context.Context, p *ui.Popup) error {
			s, err := p.Reset(ctx)
			if err != nil {
				return err
			}
			pterm.Success.Println("Settings restored to defaults")
			printSettings(s)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{settingsSaveCmd, settingsTestCmd} {
		c.Flags().StringVar(&formBaseURL, "base-url", "", "API base URL")
		c.Flags().StringVar(&formAPIKey, "api-key", "", "API key")
		c.Flags().StringVar(&formModel, "model", "", "model name, e.g. "+strings.Join(config.SuggestedModels, ", "))
		c.Flags().StringVar(&formTargetLang, "lang", "", "target language code: "+strings.Join(config.LanguageCodes(), ", "))
	}
	settingsCmd.AddCommand(settingsShowCmd, settingsSaveCmd, settingsTestCmd, settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func withPopup(ctx context.Context, fn func(context.Context, *ui.Popup) error) error {
	store, closeStore, err := openStore(ctx, config.Cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	client, closeBridge := openBridge(ctx, config.Cfg)
	defer closeBridge()

	return fn(ctx, ui.NewPopup(store, client, consoleNotifier{}))
}

// formFromFlags 以已保存的设置为底，只覆盖显式给出的字段
func formFromFlags(ctx context.Context, cmd *cobra.Command, p *ui.Popup) (ui.Form, error) {
	s, err := p.Load(ctx)
	if err != nil {
		return ui.Form{}, err
	}
	f := ui.FormFrom(s)
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		f.BaseURL = formBaseURL
	}
	if flags.Changed("api-key") {
		f.APIKey = formAPIKey
	}
	if flags.Changed("model") {
		f.Model = formModel
	}
	if flags.Changed("lang") {
		f.TargetLang = formTargetLang
	}
	return f, nil
}

func printSettings(s models.Settings) {
	validated := "no"
	if s.IsValidated {
		validated = "yes"
	}
	tableData := pterm.TableData{
		{"Property", "Value"},
		{"Base URL", s.BaseURL},
		{"API Key", maskKey(s.APIKey)},
		{"Model", s.Model},
		{"Target Language", s.TargetLang + " (" + config.LanguageName(s.TargetLang) + ")"},
		{"Validated", validated},
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + strings.Repeat("*", len(key)-7) + key[len(key)-4:]
}

// consoleNotifier 把提示打印到终端
type consoleNotifier struct{}

func (consoleNotifier) Notify(t ui.Toast) {
	if t.Level == ui.LevelError {
		pterm.Error.Println(t.Message)
		return
	}
	pterm.Success.Println(t.Message)
}
