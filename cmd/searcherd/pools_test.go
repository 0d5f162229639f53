package main

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestPairKeyIsOrderSensitiveAndCaseInsensitive(t *testing.T) {
	a := common.HexToAddress("0xAAAA000000000000000000000000000000AAAA")
	b := common.HexToAddress("0xbbbb000000000000000000000000000000bbbb")

	k1 := pairKey([]common.Address{a, b})
	k2 := pairKey([]common.Address{b, a})
	require.NotEqual(t, k1, k2)

	k3 := pairKey([]common.Address{a, b})
	require.Equal(t, k1, k3)
}

func TestPoolReserveLookupMissingPairReturnsFalse(t *testing.T) {
	lookup := newPoolReserveLookup(nil, map[string]common.Address{})
	_, ok := lookup.Lookup([]common.Address{
		common.HexToAddress("0x1"),
		common.HexToAddress("0x2"),
	})
	require.False(t, ok)
}

func TestPoolReserveLookupShortPathReturnsFalse(t *testing.T) {
	lookup := newPoolReserveLookup(nil, map[string]common.Address{})
	_, ok := lookup.Lookup([]common.Address{common.HexToAddress("0x1")})
	require.False(t, ok)
}
