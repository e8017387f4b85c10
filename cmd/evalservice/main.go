// Command evalservice runs the conversational-agent evaluation harness: it
// bridges an Agent Protocol agent-under-test (via the client/adapter
// packages) to an LLM-routed tool surface exposed as its own Agent Protocol
// front-end (C7).
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"goa.design/clue/log"

	"github.com/a2aeval/bridge/client"
	"github.com/a2aeval/bridge/internal/config"
	"github.com/a2aeval/bridge/internal/obs"
	"github.com/a2aeval/bridge/internal/telemetry"
	"github.com/a2aeval/bridge/llmgateway"
	"github.com/a2aeval/bridge/orchestrator"
	"github.com/a2aeval/bridge/resultstore"
	"github.com/a2aeval/bridge/service"
	"github.com/a2aeval/bridge/toolsurface"
)

// fatal logs err at error severity with msg as context, then exits. clue/log
// has no Fatalf of its own (it leaves process lifecycle to the caller).
func fatal(ctx context.Context, err error, msg string) {
	log.Error(ctx, err, log.KV{K: "component", V: "evalservice"}, log.KV{K: "context", V: msg})
	os.Exit(1)
}

func main() {
	var (
		configF = flag.String("config", "config.yaml", "Path to the deployment configuration file")
		dbgF    = flag.Bool("debug", false, "Enable debug-level logging")
	)
	flag.Parse()

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if *dbgF {
		ctx = log.Context(ctx, log.WithDebug())
		log.Debugf(ctx, "debug logs enabled")
	}

	cfg, err := config.Load(*configF)
	if err != nil {
		fatal(ctx, err, "loading configuration")
	}
	logger := obs.NewClueLogger()

	clientCfg, err := client.NewConfig(cfg.Agent.Endpoint, cfg.Agent.AuthToken, cfg.Agent.TimeoutSeconds, cfg.Agent.VerifySSL)
	if err != nil {
		fatal(ctx, err, "invalid agent client configuration")
	}
	agentClient := client.New(clientCfg,
		client.WithLogger(logger),
		client.WithTelemetry(telemetry.NewOTelTracer(), telemetry.NewOTelMetrics()),
	)

	var store resultstore.Store
	if cfg.FrontEnd.ResultStoreRedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.FrontEnd.ResultStoreRedisAddr})
		store = resultstore.NewRedis(rdb, 24*time.Hour)
		log.Print(ctx, log.KV{K: "resultStore", V: "redis"}, log.KV{K: "addr", V: cfg.FrontEnd.ResultStoreRedisAddr})
	} else {
		store = resultstore.NewMemory()
		log.Print(ctx, log.KV{K: "resultStore", V: "memory"})
	}

	runner := &unavailableRunner{agent: agentClient}
	domains := &emptyDomainCatalog{}

	surface, err := toolsurface.New(runner, domains, store)
	if err != nil {
		fatal(ctx, err, "constructing tool surface")
	}

	apiKey := os.Getenv(cfg.FrontEnd.AnthropicAPIKeyEnv)
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	llmClient, err := llmgateway.NewAnthropicClientFromAPIKey(apiKey, cfg.FrontEnd.LLMModel, 1024)
	if err != nil {
		fatal(ctx, err, "constructing LLM gateway client")
	}

	router := service.NewRouter(llmClient, surface, logger)
	srv := service.NewServer(service.ServerConfig{
		AgentName:        "a2a-eval-bridge",
		AgentDescription: "Runs conversational-agent evaluations against an agent-under-test and reports results.",
		BaseURL:          "http://" + cfg.FrontEnd.ListenAddr,
		Version:          "1.0.0",
	}, router, service.WithLogger(logger))

	httpSrv := &http.Server{
		Addr:         cfg.FrontEnd.ListenAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		log.Print(ctx, log.KV{K: "listenAddr", V: cfg.FrontEnd.ListenAddr})
		errc <- httpSrv.ListenAndServe()
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			fatal(ctx, err, "http server")
		}
	case sig := <-sigc:
		log.Print(ctx, log.KV{K: "signal", V: sig.String()})
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Print(ctx, log.KV{K: "shutdownError", V: err.Error()})
		}
	}
}

// unavailableRunner is a placeholder orchestrator.Runner until the scenario
// orchestrator (domain tasks, turn loop, grading — out of this module's
// scope) is wired in. It holds the configured Evaluator Adapter client so
// the real orchestrator can be dropped in without touching main's wiring.
type unavailableRunner struct {
	agent *client.Client
}

func (u *unavailableRunner) RunEvaluation(_ context.Context, cfg orchestrator.RunConfig) (orchestrator.Results, error) {
	return orchestrator.Results{}, fmt.Errorf("orchestrator: no scenario orchestrator configured for domain %q", cfg.Domain)
}

// emptyDomainCatalog is a placeholder orchestrator.DomainCatalog. Real
// deployments replace this with a catalog backed by the scenario
// orchestrator's domain registry.
type emptyDomainCatalog struct{}

func (c *emptyDomainCatalog) ListDomains(_ context.Context) ([]orchestrator.DomainInfo, error) {
	return nil, nil
}
