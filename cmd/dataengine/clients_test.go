package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/imemo88/nautilus-trader/internal/cfg"
)

func TestBuildClients(t *testing.T) {
	clients, err := buildClients(cfg.ClientsConfig{
		Synthetic:  []cfg.SyntheticConfig{{Venue: "SIM", StartPrice: "1.20000"}},
		Historical: []cfg.HistoricalConfig{{Venue: "DUKA", PathTemplate: "/data/{symbol}.bin"}},
		Websocket:  []cfg.WebsocketConfig{{Venue: "FEED", URL: "ws://localhost:1/feed"}},
		DuckDB:     []cfg.DuckDBConfig{{Venue: "DB"}},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	var ids []string
	for _, c := range clients {
		ids = append(ids, c.Id())
	}
	assert.Equal(t, []string{"SIM", "DUKA", "FEED", "DB"}, ids)

	_, err = buildClients(cfg.ClientsConfig{
		Synthetic: []cfg.SyntheticConfig{{Venue: "SIM", Spread: "wide"}},
	}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestVenueInstruments(t *testing.T) {
	sim := venueInstruments("SIM")
	require.Len(t, sim, 1)
	assert.Equal(t, "AUD/USD.SIM", sim[0].Symbol)

	assert.Len(t, venueInstruments("BITMEX"), 2)
	assert.Empty(t, venueInstruments("NOWHERE"))
}
