package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mevsearcher/priceoracle/cex"
)

func TestSnapshotKeyJoinsVenueAndSymbol(t *testing.T) {
	require.Equal(t, "binance:ETHUSDT", snapshotKey("binance", "ETHUSDT"))
}

func TestVenueSnapshotsMissingEntryReturnsFalse(t *testing.T) {
	v := newVenueSnapshots(map[string]cex.ExchangeClient{}, nil, nil)
	_, ok := v.Snapshot("binance", "ETHUSDT")
	require.False(t, ok)
}
