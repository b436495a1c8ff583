package cfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const fullConfig = `
logging:
  level: debug
  development: true
engine:
  data_queue_size: 500
  message_queue_size: 50
  check_owner: false
  stats_interval: 10s
clients:
  synthetic:
    - venue: SIM
      start_price: "1.00000"
      spread: "0.00002"
      sigma: 0.0001
      interval: 250ms
      seed: 7
  historical:
    - venue: DUKA
      path_template: /data/{symbol}.bin
      price_digits: 5
  websocket:
    - venue: FEED
      url: ${FEED_URL}
  duckdb:
    - venue: DB
      dsn: ticks.duckdb
subscriptions:
  - kind: tick
    key: AUD/USD.SIM
  - kind: BAR
    key: AUD/USD.SIM-1-MINUTE-BID-INTERNAL
monitor: [ticks, status]
recorder:
  dsn: record.duckdb
alerts:
  pushover:
    user: u
    token: ${PUSHOVER_TOKEN}
`

func TestLoadAndValidate_Full(t *testing.T) {
	t.Setenv("FEED_URL", "ws://localhost:9000/feed")
	t.Setenv("PUSHOVER_TOKEN", "secret")

	c, err := LoadAndValidate(writeTempFile(t, fullConfig))
	if err != nil {
		t.Fatalf("LoadAndValidate: %v", err)
	}

	if c.Logging.Level != "debug" || !c.Logging.Development {
		t.Errorf("logging = %+v", c.Logging)
	}
	if c.Engine.DataQueueSize != 500 || c.Engine.MessageQueueSize != 50 {
		t.Errorf("engine queues = %d/%d", c.Engine.DataQueueSize, c.Engine.MessageQueueSize)
	}
	if c.Engine.CheckOwner == nil || *c.Engine.CheckOwner {
		t.Errorf("check_owner should be explicitly false")
	}
	if c.Engine.StatsInterval != 10*time.Second {
		t.Errorf("stats_interval = %v", c.Engine.StatsInterval)
	}
	if got := c.Clients.Synthetic[0]; got.Interval != 250*time.Millisecond || got.Seed != 7 || got.StartPrice != "1.00000" {
		t.Errorf("synthetic = %+v", got)
	}
	if got := c.Clients.Websocket[0]; got.URL != "ws://localhost:9000/feed" || got.DialTimeout != DefaultDialTimeout {
		t.Errorf("websocket = %+v", got)
	}
	if got := c.Clients.DuckDB[0].Table; got != DefaultDuckDBTable {
		t.Errorf("duckdb table = %q", got)
	}
	if len(c.Subscriptions) != 2 {
		t.Fatalf("subscriptions = %d", len(c.Subscriptions))
	}
	if c.Recorder == nil || c.Recorder.Batch != DefaultRecorderBatch || c.Recorder.Table != DefaultDuckDBTable {
		t.Errorf("recorder = %+v", c.Recorder)
	}
	if p := c.Alerts.Pushover; p == nil || p.Token != "secret" {
		t.Errorf("pushover = %+v", p)
	}
}

func TestLoadWithDefaults_Empty(t *testing.T) {
	c, err := LoadWithDefaults(writeTempFile(t, "{}\n"))
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if c.Logging.Level != DefaultLogLevel {
		t.Errorf("level = %q", c.Logging.Level)
	}
	if c.Engine.DataQueueSize != DefaultDataQueueSize || c.Engine.MessageQueueSize != DefaultMessageQueueSize {
		t.Errorf("queues = %d/%d", c.Engine.DataQueueSize, c.Engine.MessageQueueSize)
	}
	if c.Engine.CheckOwner == nil || !*c.Engine.CheckOwner {
		t.Errorf("check_owner should default to true")
	}
	if c.Engine.StatsInterval != DefaultStatsInterval {
		t.Errorf("stats_interval = %v", c.Engine.StatsInterval)
	}
	if c.Recorder != nil {
		t.Errorf("recorder should stay disabled")
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "read config file") {
		t.Errorf("missing file: %v", err)
	}
	if _, err := Load(writeTempFile(t, "engine: [1, 2")); err == nil || !strings.Contains(err.Error(), "parse config yaml") {
		t.Errorf("bad yaml: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad level", "logging: {level: loud}", "logging.level"},
		{"negative queue", "engine: {data_queue_size: -1}", "engine.data_queue_size"},
		{"missing venue", "clients: {synthetic: [{seed: 1}]}", "clients.synthetic[0].venue is required"},
		{"bad price", "clients: {synthetic: [{venue: SIM, spread: abc}]}", "clients.synthetic[0].spread"},
		{"duplicate venue", "clients: {synthetic: [{venue: SIM}], duckdb: [{venue: SIM}]}", "used by another client"},
		{"path without symbol", "clients: {historical: [{venue: H, path_template: /data/x.bin}]}", "{symbol}"},
		{"http url", "clients: {websocket: [{venue: W, url: http://x}]}", "ws:// or wss://"},
		{"bad kind", "subscriptions: [{kind: ORDER, key: X}]", "subscriptions[0].kind"},
		{"missing key", "subscriptions: [{kind: TICK}]", "subscriptions[0].key is required"},
		{"bad bar type", "subscriptions: [{kind: BAR, key: AUD/USD.SIM}]", "subscriptions[0].key"},
		{"bad monitor flag", "monitor: [orders]", "unknown flag"},
		{"pushover without token", "alerts: {pushover: {user: u}}", "alerts.pushover"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAndValidate(writeTempFile(t, tt.yaml))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
			if !strings.HasPrefix(err.Error(), "validate config: ") {
				t.Errorf("error = %v, want validate prefix", err)
			}
		})
	}
}
