// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-blog/internal/blog"
	"github.com/olegiv/ocms-blog/internal/util"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxAttempts = 1 // comment requests wait on delivery
	InitialBackoff     = 500 * time.Millisecond
	MaxResponseLen     = 10 * 1024
	UserAgent          = "ocms-blog/1.0"
)

// Config configures a Notifier.
type Config struct {
	URL         string
	Secret      string
	Timeout     time.Duration
	MaxAttempts int
	// AllowPrivate skips the public-address checks. Tests only.
	AllowPrivate bool
}

// Notifier posts comment events to one endpoint.
type Notifier struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewNotifier validates the endpoint and builds its HTTP client.
func NewNotifier(cfg Config, logger *slog.Logger) (*Notifier, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if !cfg.AllowPrivate {
		if err := util.CheckOutboundURL(cfg.URL); err != nil {
			return nil, fmt.Errorf("webhook url: %w", err)
		}
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		MaxIdleConns:          2,
		IdleConnTimeout:       30 * time.Second,
	}
	if !cfg.AllowPrivate {
		transport.DialContext = util.PublicDialContext(dialer)
	}

	return &Notifier{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			// Redirects could lead to an address the dial check never saw.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
		sleep:  sleepContext,
	}, nil
}

// NotifyComment implements blog.Notifier.
func (n *Notifier) NotifyComment(ctx context.Context, c blog.CommentNotice) error {
	return n.Send(ctx, NewEvent(EventCommentPublished, CommentData(c)))
}

// Send delivers ev, retrying network errors, 408, 429 and 5xx responses
// with exponential backoff.
func (n *Notifier) Send(ctx context.Context, ev *Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding webhook event: %w", err)
	}
	deliveryID := uuid.NewString()

	var last result
	for attempt := 1; attempt <= n.cfg.MaxAttempts; attempt++ {
		last = n.attempt(ctx, ev.Type, deliveryID, payload)
		if last.err == nil {
			n.logger.Debug("webhook delivered", "event", ev.Type, "delivery_id", deliveryID, "status", last.status)
			return nil
		}
		if !last.retry || attempt == n.cfg.MaxAttempts {
			break
		}
		if err := n.sleep(ctx, backoff(attempt)); err != nil {
			return err
		}
	}
	return fmt.Errorf("webhook delivery %s: %w", deliveryID, last.err)
}

type result struct {
	status int
	err    error
	retry  bool
}

func (n *Notifier) attempt(ctx context.Context, event, deliveryID string, payload []byte) result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return result{err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Webhook-Signature", GenerateSignature(payload, n.cfg.Secret))
	req.Header.Set("X-Webhook-Event", event)
	req.Header.Set("X-Webhook-Delivery-ID", deliveryID)

	resp, err := n.client.Do(req)
	if err != nil {
		return result{err: fmt.Errorf("request failed: %w", err), retry: ctx.Err() == nil}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseLen))

	switch code := resp.StatusCode; {
	case code >= 200 && code < 300:
		return result{status: code}
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500:
		return result{status: code, err: fmt.Errorf("HTTP %d", code), retry: true}
	default:
		return result{status: code, err: fmt.Errorf("HTTP %d", code)}
	}
}

// backoff returns InitialBackoff * 2^(attempt-1).
func backoff(attempt int) time.Duration {
	return InitialBackoff << (attempt - 1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GenerateSignature returns the hex HMAC-SHA256 of payload.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a signature produced by GenerateSignature.
func VerifySignature(payload []byte, signature, secret string) bool {
	return hmac.Equal([]byte(signature), []byte(GenerateSignature(payload, secret)))
}
