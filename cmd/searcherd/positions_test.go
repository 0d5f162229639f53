package main

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestAaveAccountScannerNoBorrowersReturnsEmpty(t *testing.T) {
	scanner := newAaveAccountScanner(nil, common.Address{}, nil, common.Address{}, common.Address{})
	positions, err := scanner.UnsafePositions(context.Background(), 1.0)
	require.NoError(t, err)
	require.Empty(t, positions)
}
