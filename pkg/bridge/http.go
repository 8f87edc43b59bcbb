package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"selection_assistant/models/models"
	"selection_assistant/pkg/completion"
	"selection_assistant/pkg/httpclient"
	"selection_assistant/pkg/logger"
	"strings"
	"time"
)

const (
	MessagesPath = "/v1/messages"

	// 比模型调用的超时稍长，保证后台先超时并回传 NetworkError
	httpReplyTimeout = completion.ActionTimeout + 5*time.Second
)

// HTTPTransport 把消息 POST 到后台进程
type HTTPTransport struct {
	BaseURL  string
	Secret   []byte
	TokenTTL time.Duration
	HTTP     completion.Doer
}

func NewHTTPTransport(baseURL string, secret string, ttl time.Duration) *HTTPTransport {
	return &HTTPTransport{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Secret:   []byte(secret),
		TokenTTL: ttl,
		HTTP:     httpclient.Client,
	}
}

func (t *HTTPTransport) Post(ctx context.Context, env Envelope, deliver func(Reply)) error {
	var token string
	if len(t.Secret) > 0 {
		var err error
		if token, err = MintToken(t.Secret, t.TokenTTL); err != nil {
			return fmt.Errorf("mint bridge token: %w", err)
		}
	}

	req, err := httpclient.NewJSONRequest(context.Background(), t.BaseURL+MessagesPath, env, token)
	if err != nil {
		return fmt.Errorf("create bridge request: %w", err)
	}

	go func() {
		deliver(t.roundTrip(ctx, env.ID, req))
	}()
	return nil
}

func (t *HTTPTransport) roundTrip(ctx context.Context, id string, req *http.Request) Reply {
	ctx, cancel := context.WithTimeout(ctx, httpReplyTimeout)
	defer cancel()

	fail := func(kind models.ErrorKind, msg string) Reply {
		return Reply{ID: id, Result: models.Failure(models.NewError(kind, msg))}
	}

	resp, err := t.HTTP.Do(req.WithContext(ctx))
	if err != nil {
		logger.Logger.Error("bridge request failed", "id", id, "error", err.Error())
		return fail(models.ErrNetwork, "background is not reachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body models.Response
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Msg == "" {
			body.Msg = http.StatusText(resp.StatusCode)
		}
		logger.Logger.Error("bridge request rejected", "id", id, "status", resp.StatusCode, "msg", body.Msg)
		if resp.StatusCode == http.StatusBadRequest {
			return fail(models.ErrValidation, body.Msg)
		}
		return fail(models.ErrInternal, "background rejected the request: "+body.Msg)
	}

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return fail(models.ErrInternal, "malformed reply from background")
	}
	if reply.ID != id {
		return fail(models.ErrInternal, "reply does not match request")
	}
	return reply
}
