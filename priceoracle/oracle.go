package priceoracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"mevsearcher/chain"
	"mevsearcher/searcherr"
)

const chainlinkStaleAfter = 3600 * time.Second

var latestRoundDataArgs = mustLatestRoundDataArgs()

func mustLatestRoundDataArgs() abi.Arguments {
	uint80Ty, _ := abi.NewType("uint80", "", nil)
	int256Ty, _ := abi.NewType("int256", "", nil)
	uint256Ty, _ := abi.NewType("uint256", "", nil)
	return abi.Arguments{
		{Type: uint80Ty},  // roundId
		{Type: int256Ty},  // answer
		{Type: uint256Ty}, // startedAt
		{Type: uint256Ty}, // updatedAt
		{Type: uint80Ty},  // answeredInRound
	}
}

var selectorLatestRoundData = [4]byte{0xfe, 0xaf, 0x96, 0x8c}

// subgraphClient queries a DEX subgraph's GraphQL endpoint as the secondary
// price source when a Chainlink feed is unavailable or stale.
type subgraphClient interface {
	TokenPriceUSD(ctx context.Context, token string) (float64, error)
}

// coingeckoClient is the last-resort REST fallback.
type coingeckoClient interface {
	SimplePriceUSD(ctx context.Context, coinID string) (float64, error)
}

// Oracle resolves a token's USD price through a primary/fallback chain:
// Chainlink aggregator -> DEX subgraph -> CoinGecko REST.
type Oracle struct {
	chainClient *chain.Client
	feeds       map[string]common.Address // token symbol -> AggregatorV3Interface address
	subgraph    subgraphClient
	coingecko   coingeckoClient
	coinIDs     map[string]string // token symbol -> CoinGecko coin id
}

// NewOracle constructs an Oracle over a chain client and its feed registry.
func NewOracle(chainClient *chain.Client, feeds map[string]common.Address, subgraph subgraphClient, coingecko coingeckoClient, coinIDs map[string]string) *Oracle {
	return &Oracle{chainClient: chainClient, feeds: feeds, subgraph: subgraph, coingecko: coingecko, coinIDs: coinIDs}
}

// Price resolves token's current USD price, falling through the chain in
// order and returning the first non-stale, successfully fetched quote.
func (o *Oracle) Price(ctx context.Context, token string) (Price, error) {
	if feed, ok := o.feeds[token]; ok {
		price, err := o.fromChainlink(ctx, token, feed)
		if err == nil && !price.IsStale(chainlinkStaleAfter) {
			return price, nil
		}
	}

	if o.subgraph != nil {
		if usd, err := o.subgraph.TokenPriceUSD(ctx, token); err == nil {
			return Price{Token: token, USD8: usdToE8(usd), Source: "subgraph", UpdatedAt: time.Now()}, nil
		}
	}

	if o.coingecko != nil {
		if coinID, ok := o.coinIDs[token]; ok {
			if usd, err := o.coingecko.SimplePriceUSD(ctx, coinID); err == nil {
				return Price{Token: token, USD8: usdToE8(usd), Source: "coingecko", UpdatedAt: time.Now()}, nil
			}
		}
	}

	return Price{}, searcherr.New(searcherr.ConnectionError, fmt.Sprintf("no price source available for %s", token))
}

func (o *Oracle) fromChainlink(ctx context.Context, token string, feed common.Address) (Price, error) {
	data := selectorLatestRoundData[:]
	raw, err := o.chainClient.CallContract(ctx, chain.CallMsg{To: &feed, Data: data}, "latest")
	if err != nil {
		return Price{}, err
	}
	values, err := latestRoundDataArgs.Unpack(raw)
	if err != nil {
		return Price{}, searcherr.Wrap(searcherr.DecodeError, "decode latestRoundData", err)
	}
	answer, _ := values[1].(*big.Int)
	updatedAt, _ := values[3].(*big.Int)
	if answer == nil || updatedAt == nil {
		return Price{}, searcherr.New(searcherr.DecodeError, "malformed latestRoundData response")
	}
	return Price{
		Token:     token,
		USD8:      answer.Int64(),
		Source:    "chainlink",
		UpdatedAt: time.Unix(updatedAt.Int64(), 0),
	}, nil
}

func usdToE8(usd float64) int64 {
	return int64(usd * 1e8)
}

// httpCoingeckoClient is the real CoinGecko REST implementation of
// coingeckoClient, used when no test stub is substituted.
type httpCoingeckoClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewCoingeckoClient constructs the default public-API CoinGecko client.
func NewCoingeckoClient() coingeckoClient {
	return &httpCoingeckoClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    "https://api.coingecko.com/api/v3",
	}
}

func (c *httpCoingeckoClient) SimplePriceUSD(ctx context.Context, coinID string) (float64, error) {
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, coinID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, searcherr.Wrap(searcherr.ConnectionError, "coingecko simple price", err)
	}
	defer resp.Body.Close()

	var body map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, searcherr.Wrap(searcherr.DecodeError, "decode coingecko response", err)
	}
	usd, ok := body[coinID]["usd"]
	if !ok {
		return 0, searcherr.New(searcherr.DecodeError, "coingecko response missing usd field")
	}
	return usd, nil
}
