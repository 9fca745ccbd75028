package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spredd/config"
	"spredd/core/events"
	"spredd/core/state"
	"spredd/core/types"
	"spredd/native/forecast"
	"spredd/observability/logging"
	"spredd/rpc"
	"spredd/storage"
)

// slogEmitter forwards engine events to the structured logger so every epoch
// transition and payout is externally auditable.
type slogEmitter struct {
	logger *slog.Logger
}

func (e slogEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	attrs := []any{}
	if payload, ok := evt.(interface{ Event() *types.Event }); ok && payload.Event() != nil {
		for key, value := range payload.Event().Attributes {
			attrs = append(attrs, slog.String(key, value))
		}
	}
	e.logger.Info(evt.EventType(), attrs...)
}

func main() {
	configFile := flag.String("config", "./forecastd.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup("forecastd", cfg.Env)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	engine := forecast.NewEngine()
	engine.SetState(state.NewManager(db))
	engine.SetEmitter(slogEmitter{logger: logger})
	owner := config.Address(cfg.Owner)
	engine.SetOwner(owner)
	engine.SetVault(config.Address(cfg.Vault))

	params, err := cfg.EngineParams()
	if err != nil {
		logger.Error("invalid engine parameters", slog.Any("error", err))
		os.Exit(1)
	}
	if err := engine.SetParams(params); err != nil {
		logger.Error("failed to apply engine parameters", slog.Any("error", err))
		os.Exit(1)
	}

	submitter := config.Address(cfg.Submitter)
	if submitter != (common.Address{}) {
		if err := engine.SetLeaderboardManager(owner, submitter); err != nil {
			logger.Error("failed to assign leaderboard manager", slog.Any("error", err))
			os.Exit(1)
		}
	}
	if factory := config.Address(cfg.Factory); factory != (common.Address{}) {
		if err := engine.SetFactory(owner, factory); err != nil {
			logger.Error("failed to assign factory", slog.Any("error", err))
			os.Exit(1)
		}
	}

	if cfg.MetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
				logger.Error("metrics listener failed", slog.Any("error", err))
			}
		}()
		logger.Info("metrics listener started", slog.String("address", cfg.MetricsAddress))
	}

	server := rpc.NewServer(engine, submitter)
	logger.Info("starting JSON-RPC server", slog.String("address", cfg.RPCAddress))
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server failed", slog.Any("error", err))
		os.Exit(1)
	}
}
