package cfg

import "time"

// Config is the root configuration of the data engine process.
type Config struct {
	Logging       LoggingConfig        `yaml:"logging"`
	Engine        EngineConfig         `yaml:"engine"`
	Clients       ClientsConfig        `yaml:"clients"`
	Subscriptions []SubscriptionConfig `yaml:"subscriptions"`
	Monitor       []string             `yaml:"monitor"`
	Recorder      *RecorderConfig      `yaml:"recorder"`
	Alerts        AlertsConfig         `yaml:"alerts"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type EngineConfig struct {
	DataQueueSize    int           `yaml:"data_queue_size"`
	MessageQueueSize int           `yaml:"message_queue_size"`
	CheckOwner       *bool         `yaml:"check_owner"`
	StatsInterval    time.Duration `yaml:"stats_interval"`
}

type ClientsConfig struct {
	Synthetic  []SyntheticConfig  `yaml:"synthetic"`
	Historical []HistoricalConfig `yaml:"historical"`
	Websocket  []WebsocketConfig  `yaml:"websocket"`
	DuckDB     []DuckDBConfig     `yaml:"duckdb"`
}

type SyntheticConfig struct {
	Venue      string        `yaml:"venue"`
	StartPrice string        `yaml:"start_price"`
	Spread     string        `yaml:"spread"`
	Mu         float64       `yaml:"mu"`
	Sigma      float64       `yaml:"sigma"`
	Interval   time.Duration `yaml:"interval"`
	Seed       int64         `yaml:"seed"`
}

type HistoricalConfig struct {
	Venue        string `yaml:"venue"`
	PathTemplate string `yaml:"path_template"`
	PriceDigits  int    `yaml:"price_digits"`
}

type WebsocketConfig struct {
	Venue       string        `yaml:"venue"`
	URL         string        `yaml:"url"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

type DuckDBConfig struct {
	Venue string `yaml:"venue"`
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// SubscriptionConfig is a topic the process logs, e.g. {kind: TICK, key: AUD/USD.SIM}.
type SubscriptionConfig struct {
	Kind string `yaml:"kind"`
	Key  string `yaml:"key"`
}

// RecorderConfig stores the ticks of the subscriptions into a DuckDB table.
type RecorderConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
	Batch int    `yaml:"batch"`
}

type AlertsConfig struct {
	Pushover *PushoverConfig `yaml:"pushover"`
}

type PushoverConfig struct {
	User   string `yaml:"user"`
	Token  string `yaml:"token"`
	Device string `yaml:"device"`
}
