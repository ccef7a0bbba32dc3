package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"fibo_bot/internal/broker"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Trader реализация broker.Broker поверх одной сессии.
type Trader struct {
	c *Client
	s *Session
}

var (
	_ broker.Broker      = (*Trader)(nil)
	_ broker.PriceSource = (*Trader)(nil)
)

func (t *Trader) Session() *Session { return t.s }

// Refresh обновляет сессию трейдера при истечении TTL.
func (t *Trader) Refresh(ctx context.Context) error {
	s, err := t.c.Refresh(ctx, t.s)
	if err != nil {
		return err
	}
	t.s = s
	return nil
}

func (t *Trader) req(ctx context.Context, version string) *resty.Request {
	r := t.c.http.R().
		SetContext(ctx).
		SetHeader("Version", version)
	if t.s != nil {
		r.SetHeader("CST", t.s.CST).
			SetHeader("X-SECURITY-TOKEN", t.s.SecurityToken)
	}
	return r
}

// call проверяет ответ и раскладывает тело в out.
func (t *Trader) call(op string, resp *resty.Response, err error, out any) error {
	if err := checkResponse(op, resp, err); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(resp.Body(), out); err != nil {
		return broker.Transport(op, errors.Wrap(err, "decode"))
	}
	return nil
}

// checkResponse: сеть и 5xx -> TransportError, 4xx с errorCode -> RejectedError.
func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return broker.Transport(op, errors.Wrap(err, "do request"))
	}
	code := resp.StatusCode()
	if code/100 == 2 {
		return nil
	}
	body := strings.TrimSpace(string(resp.Body()))
	if code >= http.StatusInternalServerError || code == 0 {
		return broker.Transport(op, fmt.Errorf("http %d: %s", code, body))
	}

	var apiErr struct {
		ErrorCode string `json:"errorCode"`
	}
	if sonic.Unmarshal(resp.Body(), &apiErr) == nil && apiErr.ErrorCode != "" {
		return broker.Rejected(op, apiErr.ErrorCode)
	}
	return broker.Rejected(op, fmt.Sprintf("http %d: %s", code, body))
}
