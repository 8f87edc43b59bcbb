package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Controller embeds an http.Client
// and uses it internally
type Controller struct {
	*http.Client
}

var Client = New()

const ResponseHeaderTimeout = 10 * time.Second

// New 创建共享的 HTTP 客户端
func New() Controller {
	/*
		HTTP 客户端超时的5种类型：
		Dial  TLS-handshake  Request  Resp.Header Resp.body

		整体超时不在这里设置，由每次调用的 context 决定（测试连接 5s，翻译/解释 10s）
	*/
	client := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			// 等待建立TCP连接的最长时间, 设置为3秒
			DialContext: (&net.Dialer{
				Timeout: time.Second * 3,
			}).DialContext,
			TLSHandshakeTimeout: time.Second * 5,
			// 等待响应头的最长时间，与翻译/解释的上限一致
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
	return Controller{Client: client}
}

// NewJSONRequest 构造 JSON POST 请求，bearer 非空时带上 Authorization 头
func NewJSONRequest(ctx context.Context, url string, body interface{}, bearer string) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req, nil
}
