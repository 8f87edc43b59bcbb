package ui

import (
	"context"
	"errors"
	"selection_assistant/config"
	"selection_assistant/models/models"
	"selection_assistant/pkg/logger"
	"selection_assistant/pkg/settings"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
)

const (
	msgSaved         = "设置已保存"
	msgSaveFailed    = "保存失败，请重试"
	msgFillAPI       = "请先填写 API 地址和密钥"
	msgTestOK        = "API 连接成功！"
	msgTestFailed    = "API 连接失败，请检查配置"
	msgInvalidURL    = "请输入有效的URL"
	msgEmptyAPIKey   = "API Key 不能为空"
	msgEmptyModel    = "请输入模型名称"
	msgEmptyLanguage = "请选择目标语言"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// lang: 受支持的目标语言代码
	_ = v.RegisterValidation("lang", func(fl validator.FieldLevel) bool {
		return config.IsLanguageSupported(fl.Field().String())
	})
	return v
}

// Form 设置表单的输入，不包含 isValidated
type Form struct {
	BaseURL    string `json:"baseUrl" validate:"required,url,startswith=http"`
	APIKey     string `json:"apiKey" validate:"required"`
	Model      string `json:"model" validate:"required"`
	TargetLang string `json:"targetLang" validate:"required,lang"`
}

// 校验失败时按字段给出的提示
var fieldMessages = map[string]string{
	"BaseURL":    msgInvalidURL,
	"APIKey":     msgEmptyAPIKey,
	"Model":      msgEmptyModel,
	"TargetLang": msgEmptyLanguage,
}

func FormFrom(s models.Settings) Form {
	return Form{BaseURL: s.BaseURL, APIKey: s.APIKey, Model: s.Model, TargetLang: s.TargetLang}
}

func (f Form) trimmed() Form {
	return Form{
		BaseURL:    strings.TrimSpace(f.BaseURL),
		APIKey:     strings.TrimSpace(f.APIKey),
		Model:      strings.TrimSpace(f.Model),
		TargetLang: strings.TrimSpace(f.TargetLang),
	}
}

func (f Form) settings(validated bool) models.Settings {
	t := f.trimmed()
	return models.Settings{
		BaseURL:     t.BaseURL,
		APIKey:      t.APIKey,
		Model:       t.Model,
		TargetLang:  t.TargetLang,
		IsValidated: validated,
	}
}

// Validate 保存前的本地校验，不访问后台
func (f Form) Validate() error {
	err := validate.Struct(f.trimmed())
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if msg, ok := fieldMessages[fieldErrs[0].Field()]; ok {
			return models.NewError(models.ErrValidation, msg)
		}
	}
	return models.NewError(models.ErrValidation, err.Error())
}

// Popup 设置页
type Popup struct {
	store    *settings.Store
	sender   Sender
	notifier Notifier

	tests singleflight.Group
}

func NewPopup(store *settings.Store, sender Sender, n Notifier) *Popup {
	return &Popup{store: store, sender: sender, notifier: n}
}

func (p *Popup) Load(ctx context.Context) (models.Settings, error) {
	return p.store.Get(ctx)
}

// Save 校验并整体写入。接口三元组与已验证的设置不同则 isValidated 置为 false
func (p *Popup) Save(ctx context.Context, f Form) (models.Settings, error) {
	if err := f.Validate(); err != nil {
		p.notifier.Notify(errorToast(err.Error()))
		return models.Settings{}, err
	}

	prev, err := p.store.Get(ctx)
	if err != nil {
		p.notifier.Notify(errorToast(msgSaveFailed))
		return models.Settings{}, err
	}
	next := f.settings(false)
	next.IsValidated = prev.IsValidated && prev.SameAPIConfig(next)

	if err := p.store.Set(ctx, next); err != nil {
		logger.Logger.Error("save settings failed", "error", err.Error())
		p.notifier.Notify(errorToast(msgSaveFailed))
		return models.Settings{}, err
	}
	p.notifier.Notify(infoToast(msgSaved))
	return next, nil
}

// TestConnection 测试接口并把结果写回 isValidated；失败也会持久化 false
func (p *Popup) TestConnection(ctx context.Context, f Form) (models.Settings, error) {
	if strings.TrimSpace(f.BaseURL) == "" || strings.TrimSpace(f.APIKey) == "" {
		p.notifier.Notify(errorToast(msgFillAPI))
		return models.Settings{}, models.NewError(models.ErrValidation, msgFillAPI)
	}

	cfg := f.settings(false).APIConfig()
	// 同一组配置的并发测试只发一次请求
	key := cfg.BaseURL + "\x00" + cfg.Model + "\x00" + cfg.APIKey
	v, _, _ := p.tests.Do(key, func() (interface{}, error) {
		res, err := p.sender.Send(ctx, models.ActionRequest{Kind: models.KindTestConnection, Config: cfg}).Await(ctx)
		if err != nil {
			res = models.Failure(&models.ActionError{Kind: models.ErrConnectionTestFailed, Message: err.Error()})
		}
		return res, nil
	})
	res := v.(models.ActionResult)

	next := f.settings(res.OK)
	if err := p.store.Set(ctx, next); err != nil {
		logger.Logger.Error("persist test result failed", "error", err.Error())
		p.notifier.Notify(errorToast(msgSaveFailed))
		return models.Settings{}, err
	}

	if !res.OK {
		msg := msgTestFailed
		if res.Error != nil && res.Error.Message != "" {
			msg = res.Error.Message
		}
		p.notifier.Notify(errorToast(msg))
		if res.Error == nil {
			return next, models.NewError(models.ErrConnectionTestFailed, msg)
		}
		return next, res.Error
	}
	p.notifier.Notify(Toast{Level: LevelInfo, Message: msgTestOK, Duration: errorToastDuration})
	return next, nil
}

// Reset 恢复默认设置
func (p *Popup) Reset(ctx context.Context) (models.Settings, error) {
	if err := p.store.Reset(ctx); err != nil {
		p.notifier.Notify(errorToast(msgSaveFailed))
		return models.Settings{}, err
	}
	return settings.Defaults(), nil
}
