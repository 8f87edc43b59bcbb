package config

import "github.com/samber/lo"

type Language struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// FallbackLanguage 未知语言代码时使用的目标语言
const FallbackLanguage = "English"

var SupportedLanguages = []Language{
	{Code: "zh", Name: "Chinese", Label: "中文"},
	{Code: "en", Name: "English", Label: "English"},
	{Code: "ja", Name: "Japanese", Label: "日本語"},
	{Code: "ko", Name: "Korean", Label: "한국어"},
	{Code: "fr", Name: "French", Label: "Français"},
	{Code: "de", Name: "German", Label: "Deutsch"},
}

// SuggestedModels 设置页里提供的快捷模型
var SuggestedModels = []string{"gpt-4", "gpt-3.5-turbo", "claude-3.5-sonnet"}

func IsLanguageSupported(code string) bool {
	return lo.ContainsBy(SupportedLanguages, func(lang Language) bool { return lang.Code == code })
}

// LanguageName 返回提示词里使用的语言名称
func LanguageName(code string) string {
	lang, ok := lo.Find(SupportedLanguages, func(lang Language) bool { return lang.Code == code })
	if !ok {
		return FallbackLanguage
	}
	return lang.Name
}

func LanguageCodes() []string {
	return lo.Map(SupportedLanguages, func(lang Language, _ int) string { return lang.Code })
}
