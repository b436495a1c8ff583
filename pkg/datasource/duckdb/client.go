package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/datasource"
	"github.com/imemo88/nautilus-trader/pkg/tools/bar"
	"github.com/imemo88/nautilus-trader/pkg/utility"
	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

const (
	defaultTable  = "ticks"
	componentName = "datasource.duckdb"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Config struct {
	Venue string
	// DSN is the database file, empty for an in-memory database.
	DSN   string
	Table string
}

// Client answers historical requests from a DuckDB table
//
//	symbol VARCHAR, ts BIGINT (unix nanoseconds), bid VARCHAR, ask VARCHAR
//
// Prices are stored as decimal strings so they read back with their exact scale.
// There is no live stream, subscriptions return datasource.ErrUnsupported.
type Client struct {
	*datasource.Base
	cfg Config

	mu sync.RWMutex
	db *sql.DB
}

var _ datasource.Client = (*Client)(nil)

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Table == "" {
		cfg.Table = defaultTable
	}
	return &Client{
		Base: datasource.NewBase(cfg.Venue, logger, 0),
		cfg:  cfg,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}
	if !tableName.MatchString(c.cfg.Table) {
		err := fmt.Errorf("invalid table name %q", c.cfg.Table)
		c.SetStatus(ctx, bus.ConnectionStatusFailed, err)
		return err
	}

	db, err := sql.Open("duckdb", c.cfg.DSN)
	if err != nil {
		err = fmt.Errorf("unable to open duckdb %q: %w", c.cfg.DSN, err)
		c.SetStatus(ctx, bus.ConnectionStatusFailed, err)
		return err
	}

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (symbol VARCHAR, ts BIGINT, bid VARCHAR, ask VARCHAR)`, c.cfg.Table)
	if _, err := db.ExecContext(ctx, query); err != nil {
		_ = db.Close()
		err = fmt.Errorf("unable to prepare table %s: %w", c.cfg.Table, err)
		c.SetStatus(ctx, bus.ConnectionStatusFailed, err)
		return err
	}

	c.db = db
	c.SetStatus(ctx, bus.ConnectionStatusConnected, nil)
	return nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	c.SetStatus(ctx, bus.ConnectionStatusDisconnected, nil)
	return err
}

func (c *Client) Subscribe(_ context.Context, kind bus.Kind, _ string) error {
	return fmt.Errorf("%w: %s subscription", datasource.ErrUnsupported, kind)
}

func (c *Client) Unsubscribe(context.Context, bus.Kind, string) error {
	return nil
}

// Store appends ticks in a single transaction.
func (c *Client) Store(ctx context.Context, ticks []common.Tick) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.db == nil {
		return datasource.ErrNotConnected
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (symbol, ts, bid, ask) VALUES (?, ?, ?, ?)`, c.cfg.Table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, t := range ticks {
		if _, err := stmt.ExecContext(ctx, t.Symbol, t.TimeStamp.UnixNano(), t.Bid.String(), t.Ask.String()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("error inserting tick %s: %w", t.Symbol, err)
		}
	}
	return tx.Commit()
}

func (c *Client) RequestTicks(ctx context.Context, symbol string, w datasource.Window) ([]common.Tick, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.db == nil {
		return nil, datasource.ErrNotConnected
	}

	from, to := int64(math.MinInt64), int64(math.MaxInt64)
	if !w.From.IsZero() {
		from = w.From.UnixNano()
	}
	if !w.To.IsZero() {
		to = w.To.UnixNano()
	}

	query := fmt.Sprintf(`SELECT ts, bid, ask FROM %s WHERE symbol = ? AND ts BETWEEN ? AND ? ORDER BY ts`, c.cfg.Table)
	if w.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, w.Limit)
	}

	rows, err := c.db.QueryContext(ctx, query, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("error preparing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ticks []common.Tick
	for rows.Next() {
		var (
			ts       int64
			bid, ask string
		)
		if err := rows.Scan(&ts, &bid, &ask); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}

		tick, err := makeTick(symbol, ts, bid, ask)
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, tick)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rows: %w", err)
	}
	return ticks, nil
}

func (c *Client) RequestBars(ctx context.Context, barType common.BarType, w datasource.Window) ([]common.Bar, error) {
	ticks, err := c.RequestTicks(ctx, barType.Symbol, datasource.Window{From: w.From, To: w.To})
	if err != nil {
		return nil, err
	}
	bars, err := bar.Aggregate(barType, ticks)
	if err != nil {
		return nil, err
	}
	if w.Limit > 0 && len(bars) > w.Limit {
		bars = bars[:w.Limit]
	}
	return bars, nil
}

func makeTick(symbol string, ts int64, bid, ask string) (common.Tick, error) {
	b, errBid := fixed.Parse(bid)
	a, errAsk := fixed.Parse(ask)
	if err := errors.Join(errBid, errAsk); err != nil {
		return common.Tick{}, fmt.Errorf("invalid tick row of %s at %d: %w", symbol, ts, err)
	}
	return common.Tick{
		Symbol:      symbol,
		Bid:         b,
		Ask:         a,
		TimeStamp:   time.Unix(0, ts).UTC(),
		Source:      componentName,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
	}, nil
}
