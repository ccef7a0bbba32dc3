package service

import (
	"context"
	"fmt"
	"time"

	"fibo_bot/internal/broker"
	"fibo_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// Session токены авторизации IG. Передаётся явно, глобального состояния нет.
type Session struct {
	CST           string
	SecurityToken string
	AccountID     string
	CreatedAt     time.Time
}

func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	if s == nil || s.CST == "" || s.SecurityToken == "" {
		return true
	}
	return now.Sub(s.CreatedAt) >= ttl
}

func (c *Client) Login(ctx context.Context) (*Session, error) {
	const op = "login"

	body := map[string]any{
		"identifier":        c.cfg.Username,
		"password":          c.cfg.Password,
		"encryptedPassword": false,
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Version", "2").
		SetBody(body).
		Post("/session")

	var out struct {
		CurrentAccountID string `json:"currentAccountId"`
	}
	if err := checkResponse(op, resp, err); err != nil {
		return nil, err
	}
	if err := sonic.Unmarshal(resp.Body(), &out); err != nil {
		return nil, broker.Transport(op, errors.Wrap(err, "decode session"))
	}

	s := &Session{
		CST:           resp.Header().Get("CST"),
		SecurityToken: resp.Header().Get("X-SECURITY-TOKEN"),
		AccountID:     out.CurrentAccountID,
		CreatedAt:     c.now(),
	}
	if s.CST == "" || s.SecurityToken == "" {
		return nil, broker.Rejected(op, "no CST/X-SECURITY-TOKEN in response")
	}
	if c.cfg.AccountID != "" && c.cfg.AccountID != s.AccountID {
		logger.Warn("ig login: current account %s differs from configured %s", s.AccountID, c.cfg.AccountID)
	}
	return s, nil
}

// Refresh перелогинивается, если сессия протухла; иначе возвращает её же.
func (c *Client) Refresh(ctx context.Context, s *Session) (*Session, error) {
	if !s.Expired(c.now(), c.cfg.SessionTTL) {
		return s, nil
	}
	fresh, err := c.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("Refresh: %w", err)
	}
	return fresh, nil
}
