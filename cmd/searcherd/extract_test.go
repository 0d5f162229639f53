package main

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestExtractFieldsParsesFullTransaction(t *testing.T) {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	raw := []byte(`{
		"hash": "0x` + sampleHash + `",
		"to": "` + to.Hex() + `",
		"from": "0x2222222222222222222222222222222222222222",
		"value": "0xde0b6b3a7640000",
		"gasPrice": "0x3b9aca00",
		"gas": "0x5208",
		"input": "0xa9059cbb000000000000000000000000000000000000000000000000000000000000002a",
		"nonce": "0x7"
	}`)

	fields, ok := extractFields(json.RawMessage(raw))
	require.True(t, ok)
	require.NotNil(t, fields.To)
	require.Equal(t, to, *fields.To)
	require.Equal(t, uint64(0x5208), fields.GasLimit)
	require.Equal(t, uint64(7), fields.Nonce)
	require.Equal(t, [4]byte{0xa9, 0x05, 0x9c, 0xbb}, fields.MethodSelector)
	require.Equal(t, "1000000000000000000", fields.Value.String())
}

func TestExtractFieldsReportsFalseOnMalformedPayload(t *testing.T) {
	_, ok := extractFields(json.RawMessage(`not json`))
	require.False(t, ok)
}

func TestExtractFieldsLeavesSelectorZeroWhenInputShort(t *testing.T) {
	raw := []byte(`{
		"hash": "0x` + sampleHash + `",
		"from": "0x2222222222222222222222222222222222222222",
		"value": "0x0",
		"gasPrice": "0x0",
		"gas": "0x0",
		"input": "0x01",
		"nonce": "0x0"
	}`)
	fields, ok := extractFields(json.RawMessage(raw))
	require.True(t, ok)
	require.Equal(t, [4]byte{}, fields.MethodSelector)
	require.Nil(t, fields.To)
}

const sampleHash = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
