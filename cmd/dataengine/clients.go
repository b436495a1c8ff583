package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/internal/cfg"
	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/datasource"
	"github.com/imemo88/nautilus-trader/pkg/datasource/duckdb"
	"github.com/imemo88/nautilus-trader/pkg/datasource/historical"
	"github.com/imemo88/nautilus-trader/pkg/datasource/synthetic"
	"github.com/imemo88/nautilus-trader/pkg/datasource/websocket"
	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

// buildClients creates the configured venue clients, one per venue.
func buildClients(c cfg.ClientsConfig, logger *zap.Logger) ([]datasource.Client, error) {
	var clients []datasource.Client

	for _, s := range c.Synthetic {
		sc := synthetic.Config{
			Venue:       s.Venue,
			Mu:          s.Mu,
			Sigma:       s.Sigma,
			Interval:    s.Interval,
			Seed:        s.Seed,
			Instruments: venueInstruments(s.Venue),
		}
		var err error
		if sc.StartPrice, err = parseOptional(s.StartPrice); err != nil {
			return nil, fmt.Errorf("synthetic %s start price: %w", s.Venue, err)
		}
		if sc.Spread, err = parseOptional(s.Spread); err != nil {
			return nil, fmt.Errorf("synthetic %s spread: %w", s.Venue, err)
		}
		clients = append(clients, synthetic.NewClient(sc, logger))
	}

	for _, h := range c.Historical {
		clients = append(clients, historical.NewClient(historical.Config{
			Venue:        h.Venue,
			PathTemplate: h.PathTemplate,
			PriceDigits:  h.PriceDigits,
		}, logger))
	}

	for _, w := range c.Websocket {
		clients = append(clients, websocket.NewClient(websocket.Config{
			Venue:       w.Venue,
			URL:         w.URL,
			DialTimeout: w.DialTimeout,
		}, logger))
	}

	for _, d := range c.DuckDB {
		clients = append(clients, duckdb.NewClient(duckdb.Config{
			Venue: d.Venue,
			DSN:   d.DSN,
			Table: d.Table,
		}, logger))
	}

	return clients, nil
}

// venueInstruments returns the reference instruments listed on venue.
func venueInstruments(venue string) []common.Instrument {
	var out []common.Instrument
	for _, inst := range []common.Instrument{common.StubAUDUSD(), common.StubXBTUSD(), common.StubETHUSD()} {
		if inst.Venue() == venue {
			out = append(out, inst)
		}
	}
	return out
}

func parseOptional(s string) (fixed.Point, error) {
	if s == "" {
		return fixed.Zero, nil
	}
	return fixed.Parse(s)
}
