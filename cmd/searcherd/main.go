// Command searcherd runs the on-chain MEV searcher daemon: it ingests
// pending transactions, fans them out to the registered opportunity
// detectors, simulates and optimizes the resulting bundles, submits them to
// configured relays, and tracks execution risk and performance.
package main

import (
	"context"
	"flag"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/miekg/dns"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"mevsearcher/bundle"
	"mevsearcher/chain"
	"mevsearcher/config"
	"mevsearcher/control"
	"mevsearcher/mempool"
	"mevsearcher/observability/logging"
	"mevsearcher/observability/otel"
	"mevsearcher/opportunity"
	"mevsearcher/priceoracle"
	"mevsearcher/priceoracle/cex"
	"mevsearcher/relay"
	"mevsearcher/risk"
	"mevsearcher/simulation"
	"mevsearcher/storage"
	"mevsearcher/strategy"
	"mevsearcher/strategy/arbitrage"
	"mevsearcher/strategy/liquidation"
	"mevsearcher/strategy/sandwich"
)

// chainCallTimeout bounds every on-chain eth_call the detector adapters in
// this package make while resolving pool reserves and account data.
const chainCallTimeout = 5 * time.Second

// simulationPollInterval paces relay.Tracker.Track's inclusion polling.
const simulationPollInterval = 2 * time.Second

func main() {
	configPath := flag.String("config", "./searcherd.toml", "path to the searcher daemon's configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("SEARCHER_ENV"))
	logger := logging.Setup("searcherd", env, logging.Options{
		LogFilePath: os.Getenv("SEARCHER_LOG_FILE"),
	})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	shutdownTelemetry := func(context.Context) error { return nil }
	if cfg.TelemetryEndpoint != "" {
		shutdownTelemetry, err = otel.Init(context.Background(), otel.Config{
			ServiceName: "searcherd",
			Environment: env,
			Endpoint:    cfg.TelemetryEndpoint,
			Insecure:    cfg.TelemetryInsecure,
			Headers:     otel.ParseHeaders(cfg.TelemetryHeaders),
			Metrics:     true,
			Traces:      true,
		})
		if err != nil {
			logger.Error("failed to init telemetry", slog.Any("error", err))
			os.Exit(1)
		}
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(shutdownCtx)
	}()

	signingKey, err := cfg.SigningKey()
	if err != nil {
		logger.Error("failed to load signing key", slog.Any("error", err))
		os.Exit(1)
	}
	searcherAddr := signingKey.PubKey().Address()
	logger.Info("loaded signing key", slog.String("address", searcherAddr.Hex()))

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("failed to prepare data directory", slog.Any("error", err))
		os.Exit(1)
	}

	journal, err := storage.OpenJournal(cfg.DataDir + "/journal.db")
	if err != nil {
		logger.Error("failed to open journal", slog.Any("error", err))
		os.Exit(1)
	}
	defer journal.Close()

	if cfg.DatabaseURL != "" {
		if ledger, err := storage.NewPostgresLedger(cfg.DatabaseURL); err != nil {
			logger.Warn("postgres ledger unavailable, continuing without it", slog.Any("error", err))
		} else {
			defer ledger.Close()
		}
	}

	if cfg.RedisURL != "" {
		if cache, err := storage.NewCache(cfg.RedisURL); err != nil {
			logger.Warn("redis cache unavailable, continuing without it", slog.Any("error", err))
		} else {
			defer cache.Close()
		}
	}

	httpClient := chain.NewClient(cfg.EthRPCHTTPURL, 10*time.Second)
	wsClient := chain.NewWSClient(cfg.EthRPCWSURL)

	ingestor := mempool.New(mempool.Config{MaxQueueSize: 10_000, Dedup: true}, extractFields)
	defer ingestor.Close()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ingestor.AddWebsocket(rootCtx, "primary-ws", wsClient)
	ingestor.AddHTTPPolling(rootCtx, "fallback-poll", httpClient, 2*time.Second)

	if cfg.P2PDiscoveryDomain != "" {
		peers := &mempool.PeerList{}
		go mempool.RunDiscovery(rootCtx, &dns.Client{}, cfg.P2PDNSResolver, cfg.P2PDiscoveryDomain, 5*time.Minute, peers)
		ingestor.AddP2P("dns-discovery")
		logger.Info("p2p peer discovery started", slog.String("domain", cfg.P2PDiscoveryDomain))
	}

	manager := strategy.NewManager()
	registerDetectors(manager, cfg, httpClient, journal, logger)

	simEngine := simulation.NewEngine(httpClient)

	feeds := make(map[string]common.Address, len(cfg.ChainlinkFeeds))
	for symbol, addr := range cfg.ChainlinkFeeds {
		feeds[symbol] = common.HexToAddress(addr)
	}
	priceOracle := priceoracle.NewOracle(httpClient, feeds, nil, nil, nil)

	relayClients := make([]*relay.Client, 0, len(cfg.RelayURLs))
	for _, url := range cfg.RelayURLs {
		name := url
		if url == cfg.FlashbotsRelayURL {
			name = "flashbots"
		}
		relayClients = append(relayClients, relay.NewClient(relay.Endpoint{Name: name, URL: url}, signingKey))
	}
	submitter := relay.NewSubmitter(relayClients)
	inclusionTracker := relay.NewTracker(httpClient, journal)

	riskTracker := risk.NewTracker(risk.Limits{}, func(w risk.Warning) {
		logger.Warn(logging.EventRiskLimitExceeded, slog.String("limit", w.Limit), slog.String("message", w.Message))
	})
	feedback := risk.NewFeedbackLoop(riskTracker, manager)
	exporter := risk.NewExporter(cfg.DataDir+"/risk-export", 5*time.Minute)
	go exporter.Run(rootCtx)

	var authn *control.Authenticator
	if cfg.ControlAuthEnabled {
		authn = control.NewAuthenticator(control.AuthConfig{
			Enabled:    true,
			HMACSecret: cfg.ControlAuthSecret,
		}, nil)
	}
	controlServer := control.New(control.Config{
		Manager:       manager,
		Ingestor:      ingestor,
		Tracker:       riskTracker,
		Authenticator: authn,
	})
	httpServer := &http.Server{
		Addr:         cfg.ControlAddress,
		Handler:      otelhttp.NewHandler(controlServer.Handler(), "control"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrs := make(chan error, 1)
	go func() {
		logger.Info("control plane listening", slog.String("addr", cfg.ControlAddress))
		serverErrs <- httpServer.ListenAndServe()
	}()

	pipeline := &searchPipeline{
		manager:      manager,
		feedback:     feedback,
		exporter:     exporter,
		simEngine:    simEngine,
		submitter:    submitter,
		tracker:      inclusionTracker,
		chainClient:  httpClient,
		oracle:       priceOracle,
		searcherAddr: searcherAddr,
		logger:       logger,
	}
	go pipeline.run(rootCtx, ingestor)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrs:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("control plane server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		_ = httpServer.Close()
	}
	if err := exporter.Flush(); err != nil {
		logger.Warn("final risk export flush failed", slog.Any("error", err))
	}
	logger.Info("searcherd stopped")
}

// registerDetectors wires the sandwich, liquidation, and arbitrage
// detectors into manager, backed by chain/CEX adapters built from cfg.
func registerDetectors(manager *strategy.Manager, cfg *config.Config, client *chain.Client, journal *storage.Journal, logger *slog.Logger) {
	routers := make(map[common.Address]bool, len(cfg.SandwichRouters))
	for _, r := range cfg.SandwichRouters {
		routers[common.HexToAddress(r)] = true
	}
	sandwichCfg := sandwich.DefaultConfig()
	sandwichCfg.Routers = routers
	pools := newPoolReserveLookup(client, map[string]common.Address{})
	manager.Register(sandwich.NewDetector(sandwichCfg, pools.Lookup))

	if cfg.AaveLendingPool != "" {
		borrowers := make([]common.Address, 0, len(cfg.WatchedBorrowers))
		for _, b := range cfg.WatchedBorrowers {
			borrowers = append(borrowers, common.HexToAddress(b))
		}
		scanner := newAaveAccountScanner(client, common.HexToAddress(cfg.AaveLendingPool), borrowers, common.Address{}, common.Address{})
		gasCost := func(ctx context.Context) (*big.Int, error) {
			price, err := client.GasPrice(ctx)
			if err != nil {
				return nil, err
			}
			return new(big.Int).Mul((*big.Int)(price), big.NewInt(450_000)), nil
		}
		manager.Register(liquidation.NewDetector(liquidation.DefaultConfig(), scanner, journal, gasCost))
	}

	clients := map[string]cex.ExchangeClient{}
	if cfg.BinanceAPIKey != "" {
		clients["binance"] = cex.NewBinanceClient(cfg.BinanceAPIKey, cfg.BinanceSecretKey)
		logger.Info("cex client configured", slog.String("venue", "binance"), logging.MaskField("secret_key", cfg.BinanceSecretKey))
	}
	if cfg.CoinbaseAPIKey != "" {
		clients["coinbase"] = cex.NewCoinbaseClient(cfg.CoinbaseAPIKey, cfg.CoinbaseSecretKey, cfg.CoinbasePassword)
		logger.Info("cex client configured", slog.String("venue", "coinbase"), logging.MaskField("secret_key", cfg.CoinbaseSecretKey))
	}
	if len(clients) > 0 {
		snapshots := newVenueSnapshots(clients, cfg.ArbitrageSymbols, logger)
		go snapshots.Run(context.Background())
		manager.Register(arbitrage.NewDetector(arbitrage.DefaultConfig(), snapshots, cfg.ArbitrageVenues, cfg.ArbitrageSymbols))
	}
}

// searchPipeline drains the ingestor's accepted-transaction stream, fans
// each one out to the strategy manager, and carries any resulting
// opportunity through bundle construction, simulation, relay submission,
// inclusion tracking, and risk feedback.
type searchPipeline struct {
	manager      *strategy.Manager
	feedback     *risk.FeedbackLoop
	exporter     *risk.Exporter
	simEngine    *simulation.Engine
	submitter    *relay.Submitter
	tracker      *relay.Tracker
	chainClient  *chain.Client
	oracle       *priceoracle.Oracle
	searcherAddr common.Address
	logger       *slog.Logger
}

func (p *searchPipeline) run(ctx context.Context, ingestor *mempool.Ingestor) {
	txs, cancel := ingestor.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case tx, ok := <-txs:
			if !ok {
				return
			}
			fields, ok := extractFields(tx.Raw)
			if !ok {
				continue
			}
			p.handle(ctx, tx, fields)
		}
	}
}

func (p *searchPipeline) handle(ctx context.Context, tx mempool.PendingTransaction, fields mempool.TxFields) {
	opps := p.manager.AnalyzeTx(ctx, tx, fields)
	for _, opp := range opps {
		attrs := []any{
			slog.String("kind", string(opp.Kind)),
			slog.String("strategy", opp.StrategyTag),
			slog.String("expected_profit_wei", opp.ExpectedProfit.String()),
		}
		if usd, err := p.profitUSD(ctx, opp.ExpectedProfit); err == nil {
			attrs = append(attrs, slog.Float64("expected_profit_usd", usd))
		}
		p.logger.Info(logging.EventOpportunityDetected, attrs...)
		p.pursue(ctx, opp)
	}
}

func (p *searchPipeline) pursue(ctx context.Context, opp *opportunity.Opportunity) {
	detector, ok := p.manager.Detector(opp.StrategyTag)
	if !ok || !detector.Validate(opp) {
		return
	}

	head, err := p.chainClient.BlockNumber(ctx)
	if err != nil {
		p.logger.Warn("failed to read chain head for target block", slog.Any("error", err))
		return
	}
	targetBlock := head + 1
	b, err := detector.BuildBundle(ctx, opp, targetBlock)
	if err != nil {
		p.logger.Debug("bundle construction skipped", slog.String("strategy", opp.StrategyTag), slog.Any("error", err))
		return
	}

	started := time.Now()
	optimized, err := bundle.Optimize(ctx, b, p.validator(opp))
	if err != nil {
		p.logger.Warn("bundle optimization failed", slog.String("strategy", opp.StrategyTag), slog.Any("error", err))
		return
	}

	result, err := p.submitter.Submit(ctx, optimized)
	if err != nil {
		p.logger.Warn(logging.EventRelayRejected, slog.String("strategy", opp.StrategyTag), slog.Any("error", err))
		p.recordOutcome(opp.StrategyTag, big.NewInt(0), time.Since(started), false)
		return
	}
	p.logger.Info(logging.EventBundleSubmitted,
		slog.String("strategy", opp.StrategyTag),
		slog.String("bundle_id", optimized.ID.Hex()),
		slog.String("status", string(result.Status)),
		slog.Int("relay_errors", len(result.PerRelayErrs)))

	status, err := p.tracker.Track(ctx, optimized, simulationPollInterval)
	success := err == nil && status == relay.Included
	if success {
		p.logger.Info(logging.EventBundleIncluded, slog.String("bundle_id", optimized.ID.Hex()))
	} else {
		p.logger.Info(logging.EventBundleTimeout, slog.String("bundle_id", optimized.ID.Hex()), slog.String("status", string(status)))
	}

	profit := big.NewInt(0)
	if success {
		profit = opp.ExpectedProfit
	}
	p.recordOutcome(opp.StrategyTag, profit, time.Since(started), success)
}

// recordOutcome folds a resolved bundle's result into the rolling risk
// window, the originating strategy's stats, and the periodic Parquet
// export buffer.
func (p *searchPipeline) recordOutcome(strategyTag string, profitWei *big.Int, latency time.Duration, success bool) {
	outcome := risk.Outcome{Strategy: strategyTag, ProfitWei: profitWei, Latency: latency, Success: success, At: time.Now()}
	p.feedback.Record(outcome)
	p.exporter.Buffer(outcome)
}

// profitUSD converts a wei-denominated profit into its USD equivalent via
// the configured ETH/USD Chainlink feed, when one is available.
func (p *searchPipeline) profitUSD(ctx context.Context, wei *big.Int) (float64, error) {
	price, err := p.oracle.Price(ctx, "WETH")
	if err != nil {
		return 0, err
	}
	eth := new(big.Float).Quo(new(big.Float).SetInt(wei), new(big.Float).SetInt(big.NewInt(1e18)))
	usd := new(big.Float).Mul(eth, big.NewFloat(float64(price.USD8)/1e8))
	f, _ := usd.Float64()
	return f, nil
}

// validator adapts the simulation engine into a bundle.Validator scoring
// each optimization candidate by its simulated validation score (success
// rate less the risk-level penalty).
func (p *searchPipeline) validator(opp *opportunity.Opportunity) bundle.Validator {
	return func(ctx context.Context, b *bundle.Bundle) (float64, error) {
		gasPrice, err := p.chainClient.GasPrice(ctx)
		if err != nil {
			return 0, err
		}
		result, err := p.simEngine.Simulate(ctx, b, simulation.Options{
			Mode:        simulation.Accurate,
			GasPriceWei: (*big.Int)(gasPrice),
		})
		if err != nil {
			return 0, err
		}
		if !result.Success {
			return 0, nil
		}
		return result.ValidationScore, nil
	}
}
