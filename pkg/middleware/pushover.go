package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/pkg/bus"
)

const pushoverURL = "https://api.pushover.net/1/messages.json"

// Pushover sends a notification when a client reports a failed connection.
type Pushover struct {
	logger   *zap.Logger
	endpoint string
	user     string
	token    string
	device   string
	client   *http.Client

	wg sync.WaitGroup
}

func NewPushover(logger *zap.Logger, user, token, device string) *Pushover {
	return &Pushover{
		logger:   logger,
		endpoint: pushoverURL,
		user:     user,
		token:    token,
		device:   device,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// WithEndpoint overrides the API url.
func (p *Pushover) WithEndpoint(endpoint string) *Pushover {
	p.endpoint = endpoint
	return p
}

func (p *Pushover) Wrap(sub bus.Subscriber) bus.Subscriber {
	return wrap(sub, func(ctx context.Context, ev bus.Event) error {
		if s, ok := ev.Status(); ok && s.Status == bus.ConnectionStatusFailed {
			msg := fmt.Sprintf("client = %s\nerror = %v", s.ClientId, s.Err)
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				if err := p.send(context.WithoutCancel(ctx), "Connection Failed", msg); err != nil {
					p.logger.Error("unable to send notification", zap.Error(err))
				}
			}()
		}
		return sub.OnEvent(ctx, ev)
	})
}

// Wait blocks until the notifications in flight are sent.
func (p *Pushover) Wait() {
	p.wg.Wait()
}

func (p *Pushover) send(ctx context.Context, title, message string) error {
	data := url.Values{}
	data.Set("token", p.token)
	data.Set("user", p.user)
	data.Set("device", p.device)
	data.Set("title", title)
	data.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("pushover post failed: %w", err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pushover error: %s", body)
	}
	return nil
}
