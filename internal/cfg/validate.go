package cfg

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

var monitorNames = map[string]struct{}{
	"all": {}, "none": {}, "ticks": {}, "bars": {}, "instruments": {}, "status": {},
}

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	if c.Engine.DataQueueSize < 1 {
		return errors.New("engine.data_queue_size must be >= 1")
	}
	if c.Engine.MessageQueueSize < 1 {
		return errors.New("engine.message_queue_size must be >= 1")
	}
	if c.Engine.StatsInterval < 0 {
		return errors.New("engine.stats_interval must be >= 0")
	}

	venues := make(map[string]struct{})
	addVenue := func(prefix, venue string) error {
		if venue == "" {
			return fmt.Errorf("%s.venue is required", prefix)
		}
		if _, ok := venues[venue]; ok {
			return fmt.Errorf("%s.venue %q is used by another client", prefix, venue)
		}
		venues[venue] = struct{}{}
		return nil
	}

	for i, s := range c.Clients.Synthetic {
		prefix := fmt.Sprintf("clients.synthetic[%d]", i)
		if err := addVenue(prefix, s.Venue); err != nil {
			return err
		}
		for name, v := range map[string]string{"start_price": s.StartPrice, "spread": s.Spread} {
			if v == "" {
				continue
			}
			p, err := fixed.Parse(v)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", prefix, name, err)
			}
			if !p.IsPos() {
				return fmt.Errorf("%s.%s must be positive", prefix, name)
			}
		}
		if s.Sigma < 0 {
			return fmt.Errorf("%s.sigma must be >= 0", prefix)
		}
	}
	for i, h := range c.Clients.Historical {
		prefix := fmt.Sprintf("clients.historical[%d]", i)
		if err := addVenue(prefix, h.Venue); err != nil {
			return err
		}
		if !strings.Contains(h.PathTemplate, "{symbol}") {
			return fmt.Errorf("%s.path_template must contain {symbol}", prefix)
		}
		if h.PriceDigits < 0 {
			return fmt.Errorf("%s.price_digits must be >= 0", prefix)
		}
	}
	for i, w := range c.Clients.Websocket {
		prefix := fmt.Sprintf("clients.websocket[%d]", i)
		if err := addVenue(prefix, w.Venue); err != nil {
			return err
		}
		if !strings.HasPrefix(w.URL, "ws://") && !strings.HasPrefix(w.URL, "wss://") {
			return fmt.Errorf("%s.url must be a ws:// or wss:// url, got %q", prefix, w.URL)
		}
	}
	for i, d := range c.Clients.DuckDB {
		if err := addVenue(fmt.Sprintf("clients.duckdb[%d]", i), d.Venue); err != nil {
			return err
		}
	}

	for i, s := range c.Subscriptions {
		prefix := fmt.Sprintf("subscriptions[%d]", i)
		kind, err := bus.ParseKind(s.Kind)
		if err != nil {
			return fmt.Errorf("%s.kind: %w", prefix, err)
		}
		if s.Key == "" {
			return fmt.Errorf("%s.key is required", prefix)
		}
		if kind == bus.KindBar {
			if _, err := common.ParseBarType(s.Key); err != nil {
				return fmt.Errorf("%s.key: %w", prefix, err)
			}
		}
	}

	for _, m := range c.Monitor {
		if _, ok := monitorNames[strings.ToLower(m)]; !ok {
			return fmt.Errorf("monitor: unknown flag %q", m)
		}
	}

	if c.Recorder != nil && c.Recorder.Batch < 1 {
		return errors.New("recorder.batch must be >= 1")
	}
	if p := c.Alerts.Pushover; p != nil && (p.User == "" || p.Token == "") {
		return errors.New("alerts.pushover requires user and token")
	}
	return nil
}
