package main

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"mevsearcher/chain"
	"mevsearcher/strategy/sandwich"
)

// getReserves() selector: keccak256("getReserves()")[:4], the standard
// Uniswap V2-style pair interface shared by most constant-product DEXes.
var selectorGetReserves = []byte{0x09, 0x02, 0xf1, 0xac}

var reservesOut = abi.Arguments{
	{Type: mustType("uint112")},
	{Type: mustType("uint112")},
	{Type: mustType("uint32")},
}

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

// poolReserveLookup resolves a swap path's AMM reserves by calling the
// configured pair contract's getReserves(), reading the pool address from a
// path-keyed map populated at startup. Token ordering within the pair
// (token0/token1) is assumed to match the swap path's [in, out] order,
// which holds for the common case of a two-hop direct pair.
type poolReserveLookup struct {
	client *chain.Client
	pairs  map[string]common.Address
}

func newPoolReserveLookup(client *chain.Client, pairs map[string]common.Address) *poolReserveLookup {
	return &poolReserveLookup{client: client, pairs: pairs}
}

func pairKey(path []common.Address) string {
	parts := make([]string, len(path))
	for i, addr := range path {
		parts[i] = strings.ToLower(addr.Hex())
	}
	return strings.Join(parts, "-")
}

// Lookup implements the sandwich detector's poolLookup callback.
func (p *poolReserveLookup) Lookup(path []common.Address) (sandwich.PoolState, bool) {
	if len(path) < 2 {
		return sandwich.PoolState{}, false
	}
	pairAddr, ok := p.pairs[pairKey(path[:2])]
	if !ok {
		return sandwich.PoolState{}, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), chainCallTimeout)
	defer cancel()

	raw, err := p.client.CallContract(ctx, chain.CallMsg{
		To:   &pairAddr,
		Data: selectorGetReserves,
	}, "latest")
	if err != nil || len(raw) == 0 {
		return sandwich.PoolState{}, false
	}
	values, err := reservesOut.UnpackValues(raw)
	if err != nil || len(values) < 2 {
		return sandwich.PoolState{}, false
	}
	reserve0, _ := values[0].(*big.Int)
	reserve1, _ := values[1].(*big.Int)
	if reserve0 == nil || reserve1 == nil {
		return sandwich.PoolState{}, false
	}
	return sandwich.PoolState{ReserveIn: reserve0, ReserveOut: reserve1}, true
}
