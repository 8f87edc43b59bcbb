package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"selection_assistant/config"
	"selection_assistant/models/models"
	"selection_assistant/pkg/httpclient"
	"selection_assistant/pkg/logger"
	"strings"
	"time"
)

const (
	TestTimeout   = 5 * time.Second
	ActionTimeout = 10 * time.Second

	testPrompt = "Say 'API connection successful!' in Chinese"

	// 错误日志里保留的响应体长度
	bodyExcerpt = 200
	// 读取响应体的上限
	maxResponseBody = 4 << 20
)

// Doer 发送 HTTP 请求，*http.Client 满足该接口
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	HTTP          Doer
	TestTimeout   time.Duration
	ActionTimeout time.Duration
}

func New() *Client {
	return &Client{
		HTTP:          httpclient.Client,
		TestTimeout:   TestTimeout,
		ActionTimeout: ActionTimeout,
	}
}

// TestConnection 发送一条最小的提示，收到非空的回复即视为成功
func (c *Client) TestConnection(ctx context.Context, cfg models.APIConfig) error {
	_, err := c.complete(ctx, c.TestTimeout, cfg, []models.Message{
		{Role: "user", Content: testPrompt},
	})
	if err != nil {
		logger.Logger.Warn("Test API failed", "base_url", cfg.BaseURL, "model", cfg.Model, "error", err.Error())
		// 保留上游的 HTTP 状态码
		return &models.ActionError{
			Kind:    models.ErrConnectionTestFailed,
			Status:  models.AsActionError(err).Status,
			Message: "API connection test failed: " + err.Error(),
		}
	}
	return nil
}

func (c *Client) Translate(ctx context.Context, cfg models.APIConfig, text, targetLang string) (string, error) {
	return c.complete(ctx, c.ActionTimeout, cfg, []models.Message{
		{Role: "system", Content: TranslatePrompt(targetLang)},
		{Role: "user", Content: text},
	})
}

func (c *Client) Explain(ctx context.Context, cfg models.APIConfig, text, targetLang string) (string, error) {
	return c.complete(ctx, c.ActionTimeout, cfg, []models.Message{
		{Role: "system", Content: ExplainPrompt(targetLang)},
		{Role: "user", Content: text},
	})
}

func TranslatePrompt(targetLang string) string {
	return fmt.Sprintf("You are a professional translator. Translate the given text into %s. Only provide the translation without any explanations or additional content.", config.LanguageName(targetLang))
}

func ExplainPrompt(targetLang string) string {
	return fmt.Sprintf("You are an expert at explaining complex text. Provide a clear and concise explanation in %s about what the given text means or implies. Focus on the main points and context.", config.LanguageName(targetLang))
}

// Endpoint 拼接 chat completions 地址
func Endpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/chat/completions"
}

// complete 执行一次 chat completion 请求并取出第一个 choice 的内容
func (c *Client) complete(ctx context.Context, timeout time.Duration, cfg models.APIConfig, messages []models.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := httpclient.NewJSONRequest(ctx, Endpoint(cfg.BaseURL), models.ChatRequest{Model: cfg.Model, Messages: messages}, cfg.APIKey)
	if err != nil {
		return "", models.NewError(models.ErrNetwork, "invalid API address: "+err.Error())
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		msg := "network error"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("request timed out after %s", timeout)
		}
		logger.Logger.Error("chat completion request failed", "base_url", cfg.BaseURL, "error", err.Error())
		return "", models.NewError(models.ErrNetwork, msg)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", models.NewError(models.ErrNetwork, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := string(body)
		if len(excerpt) > bodyExcerpt {
			excerpt = excerpt[:bodyExcerpt]
		}
		logger.Logger.Error("chat completion returned error status", "status", resp.StatusCode, "body", excerpt)
		return "", models.HTTPError(resp.StatusCode)
	}

	var chat models.ChatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return "", models.NewError(models.ErrInvalidResponseFormat, "Invalid API response format")
	}
	// 空白回复与缺少 content 一样按格式错误处理
	content, ok := chat.FirstContent()
	if !ok || strings.TrimSpace(content) == "" {
		return "", models.NewError(models.ErrInvalidResponseFormat, "Invalid API response format")
	}
	return content, nil
}
