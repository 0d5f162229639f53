// Package config loads the searcher daemon's configuration: chain RPC
// endpoints, the signing key, relay/oracle/CEX credentials, and the
// persistence DSNs, following the environment variable contract in the
// deployment spec. A TOML file on disk seeds defaults and caches a
// generated signing key across restarts; env vars always win.
package config

import (
	"encoding/hex"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"mevsearcher/cryptoutil"
)

// Config holds every externally supplied setting the searcher daemon needs
// to run. Field names mirror the environment variable contract so that
// Load's precedence rules are easy to audit.
type Config struct {
	EthRPCWSURL   string `toml:"EthRPCWSURL"`
	EthRPCHTTPURL string `toml:"EthRPCHTTPURL"`

	// PrivateKeyHex is the hex-encoded secp256k1 scalar used to sign
	// bundles and relay auth headers. Generated and persisted on first run
	// if not supplied.
	PrivateKeyHex string `toml:"PrivateKeyHex"`

	// KeystorePath, when set, takes precedence over PrivateKeyHex: the
	// signing key is decrypted from an Ethereum v3 keystore file instead,
	// with the passphrase sourced from KeystorePassphraseEnv or an
	// interactive terminal prompt.
	KeystorePath          string `toml:"KeystorePath"`
	KeystorePassphraseEnv string `toml:"KeystorePassphraseEnv"`

	FlashbotsRelayURL string   `toml:"FlashbotsRelayURL"`
	RelayURLs         []string `toml:"RelayURLs"`

	RedisURL    string `toml:"RedisURL"`
	DatabaseURL string `toml:"DatabaseURL"`

	BinanceAPIKey     string `toml:"BinanceAPIKey"`
	BinanceSecretKey  string `toml:"BinanceSecretKey"`
	CoinbaseAPIKey    string `toml:"CoinbaseAPIKey"`
	CoinbaseSecretKey string `toml:"CoinbaseSecretKey"`
	CoinbasePassword  string `toml:"CoinbasePassphrase"`
	OneInchAPIKey     string `toml:"OneInchAPIKey"`

	DataDir        string        `toml:"DataDir"`
	ControlAddress string        `toml:"ControlAddress"`
	ShutdownGrace  time.Duration `toml:"-"`

	// SandwichRouters lists the DEX router addresses the sandwich detector
	// watches for swap calldata.
	SandwichRouters []string `toml:"SandwichRouters"`

	// AaveLendingPool is the Aave V3 Pool contract address the liquidation
	// detector queries for account health via getUserAccountData.
	AaveLendingPool string `toml:"AaveLendingPool"`
	// WatchedBorrowers is the candidate set the liquidation detector scans
	// each pass; a production deployment would instead subscribe to a
	// protocol subgraph for the full borrower set.
	WatchedBorrowers []string `toml:"WatchedBorrowers"`

	// ArbitrageVenues and ArbitrageSymbols bound the cross-venue detector's
	// scan space.
	ArbitrageVenues  []string `toml:"ArbitrageVenues"`
	ArbitrageSymbols []string `toml:"ArbitrageSymbols"`

	ControlAuthEnabled bool   `toml:"ControlAuthEnabled"`
	ControlAuthSecret  string `toml:"ControlAuthSecret"`

	// P2PDiscoveryDomain, when set, is the root of an EIP-1459-style DNS
	// discovery tree the mempool ingestor resolves to find gossip peers.
	// P2PDNSResolver is the resolver address (host:port) queried.
	P2PDiscoveryDomain string `toml:"P2PDiscoveryDomain"`
	P2PDNSResolver     string `toml:"P2PDNSResolver"`

	ChainlinkFeeds map[string]string `toml:"ChainlinkFeeds"`

	// TelemetryEndpoint, when set, is the OTLP/HTTP collector address traces
	// and metrics are exported to. Empty disables telemetry export entirely.
	TelemetryEndpoint string `toml:"TelemetryEndpoint"`
	TelemetryInsecure bool   `toml:"TelemetryInsecure"`
	TelemetryHeaders  string `toml:"TelemetryHeaders"`
}

// envOverrides applies the contract's environment variables on top of
// whatever was decoded from the TOML file, so operators can deploy the same
// file across environments and override secrets via the process env.
func (c *Config) envOverrides() {
	overrideString(&c.EthRPCWSURL, "ETH_RPC_WS_URL")
	overrideString(&c.EthRPCHTTPURL, "ETH_RPC_HTTP_URL")
	overrideString(&c.PrivateKeyHex, "PRIVATE_KEY")
	overrideString(&c.FlashbotsRelayURL, "FLASHBOTS_RELAY_URL")
	overrideString(&c.RedisURL, "REDIS_URL")
	overrideString(&c.DatabaseURL, "DATABASE_URL")
	overrideString(&c.BinanceAPIKey, "BINANCE_API_KEY")
	overrideString(&c.BinanceSecretKey, "BINANCE_SECRET_KEY")
	overrideString(&c.ControlAuthSecret, "CONTROL_AUTH_SECRET")
	overrideString(&c.AaveLendingPool, "AAVE_LENDING_POOL")
	overrideString(&c.CoinbaseAPIKey, "COINBASE_API_KEY")
	overrideString(&c.CoinbaseSecretKey, "COINBASE_SECRET_KEY")
	overrideString(&c.CoinbasePassword, "COINBASE_PASSPHRASE")
	overrideString(&c.OneInchAPIKey, "ONEINCH_API_KEY")
	overrideString(&c.P2PDiscoveryDomain, "P2P_DISCOVERY_DOMAIN")
	overrideString(&c.P2PDNSResolver, "P2P_DNS_RESOLVER")
	overrideString(&c.TelemetryEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	overrideString(&c.TelemetryHeaders, "OTEL_EXPORTER_OTLP_HEADERS")
}

func overrideString(field *string, envKey string) {
	if v, ok := os.LookupEnv(envKey); ok && v != "" {
		*field = v
	}
}

const defaultShutdownGrace = 5 * time.Second

// Load reads cfg from path, creating a default file with a freshly
// generated signing key if none exists, then layers environment variable
// overrides on top.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		created, err := createDefault(path)
		if err != nil {
			return nil, err
		}
		cfg = created
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
		if cfg.PrivateKeyHex == "" {
			key, err := cryptoutil.GeneratePrivateKey()
			if err != nil {
				return nil, err
			}
			cfg.PrivateKeyHex = hex.EncodeToString(key.Bytes())

			f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o600)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			if err := toml.NewEncoder(f).Encode(cfg); err != nil {
				return nil, err
			}
		}
	}

	cfg.envOverrides()
	if cfg.ShutdownGrace == 0 {
		cfg.ShutdownGrace = shutdownGraceFromEnv()
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./searcher-data"
	}
	return cfg, nil
}

func shutdownGraceFromEnv() time.Duration {
	if v, ok := os.LookupEnv("SHUTDOWN_GRACE_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return defaultShutdownGrace
}

// createDefault writes a default configuration file with a newly generated
// signing key and empty endpoint/credential placeholders.
func createDefault(path string) (*Config, error) {
	key, err := cryptoutil.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		EthRPCWSURL:       "wss://127.0.0.1:8546",
		EthRPCHTTPURL:     "http://127.0.0.1:8545",
		PrivateKeyHex:     hex.EncodeToString(key.Bytes()),
		FlashbotsRelayURL: "https://relay.flashbots.net",
		RelayURLs:         []string{"https://relay.flashbots.net"},
		DataDir:           "./searcher-data",
		ControlAddress:    ":7300",
		ArbitrageVenues:   []string{"binance", "coinbase"},
		ArbitrageSymbols:  []string{"ETHUSDT"},
		P2PDNSResolver:    "8.8.8.8:53",
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SigningKey resolves the searcher's wallet key, preferring an encrypted
// keystore file over a bare hex scalar when KeystorePath is set.
func (c *Config) SigningKey() (*cryptoutil.PrivateKey, error) {
	if c.KeystorePath != "" {
		passphrase, err := cryptoutil.NewPassphraseSource(c.KeystorePassphraseEnv).Get()
		if err != nil {
			return nil, err
		}
		return cryptoutil.LoadFromKeystore(c.KeystorePath, passphrase)
	}
	b, err := hex.DecodeString(c.PrivateKeyHex)
	if err != nil {
		return nil, err
	}
	return cryptoutil.PrivateKeyFromBytes(b)
}
