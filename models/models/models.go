package models

import "strings"

// Settings 用户设置，整体读写
type Settings struct {
	BaseURL     string `json:"baseUrl"`
	APIKey      string `json:"apiKey"`
	Model       string `json:"model"`
	TargetLang  string `json:"targetLang"`
	IsValidated bool   `json:"isValidated"`
}

// APIConfig 调用模型接口所需的三元组
type APIConfig struct {
	BaseURL string `json:"baseUrl"`
	APIKey  string `json:"apiKey"`
	Model   string `json:"model"`
}

func (s Settings) APIConfig() APIConfig {
	return APIConfig{BaseURL: s.BaseURL, APIKey: s.APIKey, Model: s.Model}
}

// SameAPIConfig 判断两份设置的接口三元组是否完全一致
func (s Settings) SameAPIConfig(other Settings) bool {
	return s.APIConfig() == other.APIConfig()
}

type ActionKind string

const (
	KindTestConnection ActionKind = "testConnection"
	KindTranslate      ActionKind = "translate"
	KindExplain        ActionKind = "explain"
)

func (k ActionKind) Valid() bool {
	switch k {
	case KindTestConnection, KindTranslate, KindExplain:
		return true
	}
	return false
}

type ActionRequest struct {
	Kind       ActionKind `json:"kind"`
	Config     APIConfig  `json:"config"`
	Text       string     `json:"text,omitempty"`
	TargetLang string     `json:"targetLang,omitempty"`
}

// Validate 检查非测试请求必须携带的字段
func (r ActionRequest) Validate() error {
	if r.Kind == KindTestConnection {
		return nil
	}
	if strings.TrimSpace(r.Text) == "" {
		return NewError(ErrValidation, "text is required for "+string(r.Kind))
	}
	if r.TargetLang == "" {
		return NewError(ErrValidation, "targetLang is required for "+string(r.Kind))
	}
	return nil
}

// ActionResult 跨上下文返回的统一信封
type ActionResult struct {
	OK    bool         `json:"ok"`
	Value string       `json:"value,omitempty"`
	Error *ActionError `json:"error,omitempty"`
}

func Success(value string) ActionResult {
	return ActionResult{OK: true, Value: value}
}

func Failure(err *ActionError) ActionResult {
	return ActionResult{OK: false, Error: err}
}

type ResultType string

const (
	ResultTranslate ResultType = "translate"
	ResultExplain   ResultType = "explain"
)

func (t ResultType) Kind() ActionKind {
	if t == ResultExplain {
		return KindExplain
	}
	return KindTranslate
}

// Label 提示里使用的动作名称
func (t ResultType) Label() string {
	if t == ResultExplain {
		return "解释"
	}
	return "翻译"
}

// ResultState 结果卡片的状态
type ResultState struct {
	Type    ResultType `json:"type"`
	Text    string     `json:"text"`
	Loading bool       `json:"loading"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// OpenAI chat completions
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// FirstContent 返回第一个 choice 的内容，路径缺失时 ok 为 false
func (r ChatResponse) FirstContent() (string, bool) {
	if len(r.Choices) == 0 || r.Choices[0].Message.Content == nil {
		return "", false
	}
	return *r.Choices[0].Message.Content, true
}

type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}
