package cfg

import "time"

const (
	DefaultLogLevel         = "info"
	DefaultDataQueueSize    = 10000
	DefaultMessageQueueSize = 1000
	DefaultStatsInterval    = 30 * time.Second
	DefaultDialTimeout      = 5 * time.Second
	DefaultDuckDBTable      = "ticks"
	DefaultRecorderBatch    = 1000
)

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}

	if c.Engine.DataQueueSize == 0 {
		c.Engine.DataQueueSize = DefaultDataQueueSize
	}
	if c.Engine.MessageQueueSize == 0 {
		c.Engine.MessageQueueSize = DefaultMessageQueueSize
	}
	if c.Engine.CheckOwner == nil {
		checkOwner := true
		c.Engine.CheckOwner = &checkOwner
	}
	if c.Engine.StatsInterval == 0 {
		c.Engine.StatsInterval = DefaultStatsInterval
	}

	for i := range c.Clients.Websocket {
		if c.Clients.Websocket[i].DialTimeout == 0 {
			c.Clients.Websocket[i].DialTimeout = DefaultDialTimeout
		}
	}
	for i := range c.Clients.DuckDB {
		if c.Clients.DuckDB[i].Table == "" {
			c.Clients.DuckDB[i].Table = DefaultDuckDBTable
		}
	}

	if c.Recorder != nil {
		if c.Recorder.Table == "" {
			c.Recorder.Table = DefaultDuckDBTable
		}
		if c.Recorder.Batch == 0 {
			c.Recorder.Batch = DefaultRecorderBatch
		}
	}
}
