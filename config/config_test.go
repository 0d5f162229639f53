package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"mevsearcher/cryptoutil"
)

func TestLoadCreatesDefaultWithGeneratedKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "searcher.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PrivateKeyHex == "" {
		t.Fatalf("expected generated private key")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
	if cfg.FlashbotsRelayURL == "" {
		t.Fatalf("expected default relay url")
	}
	if cfg.ShutdownGrace != defaultShutdownGrace {
		t.Fatalf("unexpected shutdown grace: %v", cfg.ShutdownGrace)
	}
	if _, err := cfg.SigningKey(); err != nil {
		t.Fatalf("signing key should decode: %v", err)
	}
}

func TestLoadParsesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "searcher.toml")

	key, err := cryptoutil.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	contents := `EthRPCWSURL = "wss://example.invalid/ws"
EthRPCHTTPURL = "https://example.invalid/rpc"
PrivateKeyHex = "` + hex.EncodeToString(key.Bytes()) + `"
FlashbotsRelayURL = "https://relay.example.invalid"
RedisURL = "redis://localhost:6379/0"
DatabaseURL = "postgres://localhost/searcher"
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.EthRPCWSURL != "wss://example.invalid/ws" {
		t.Fatalf("unexpected ws url: %s", cfg.EthRPCWSURL)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected redis url: %s", cfg.RedisURL)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "searcher.toml")
	if _, err := Load(path); err != nil {
		t.Fatalf("load config: %v", err)
	}

	t.Setenv("ETH_RPC_WS_URL", "wss://override.invalid/ws")
	t.Setenv("FLASHBOTS_RELAY_URL", "https://override-relay.invalid")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if cfg.EthRPCWSURL != "wss://override.invalid/ws" {
		t.Fatalf("expected env override, got %s", cfg.EthRPCWSURL)
	}
	if cfg.FlashbotsRelayURL != "https://override-relay.invalid" {
		t.Fatalf("expected env override, got %s", cfg.FlashbotsRelayURL)
	}
}
