// Command simworld runs a multi-agent conversational simulation: a seeded
// world of locations and oracle-driven agents that observe, plan, act, and
// reflect on their own tick loops until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"

	"simworld/pkg/agent"
	"simworld/pkg/config"
	"simworld/pkg/conversation"
	"simworld/pkg/logx"
	"simworld/pkg/metrics"
	"simworld/pkg/oracle"
	"simworld/pkg/oracle/provider/anthropic"
	"simworld/pkg/oracle/provider/google"
	"simworld/pkg/oracle/provider/ollama"
	"simworld/pkg/oracle/provider/openai"
	"simworld/pkg/persistence"
	"simworld/pkg/tools"
	"simworld/pkg/world"
)

// Simulation owns the run-scoped resources of one world.
type Simulation struct {
	cfg        *config.Config
	logger     *logx.Logger
	store      *persistence.Store
	archive    *world.ArchiveWriter
	w          *world.World
	roster     *agent.Roster
	scheduler  *world.Scheduler
	console    *Console
	metricsSrv *http.Server
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to world config file")
	flag.Parse()

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		configPath = "world.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sim, err := NewSimulation(cfg)
	if err != nil {
		log.Fatalf("Failed to build simulation: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		sim.logger.Info("received signal %v, shutting down", sig)
		cancel()
	}()

	sim.Run(ctx)

	if err := sim.Close(); err != nil {
		log.Printf("Error during shutdown: %v", err)
		os.Exit(1)
	}
	sim.logger.Info("simulation shut down cleanly")
}

// NewSimulation assembles the world from config: persistence, event archive,
// oracle chain, locations, and agents (resumed from a prior run when the
// database knows them).
func NewSimulation(cfg *config.Config) (*Simulation, error) {
	logger := logx.NewLogger("simworld")

	store, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open persistence: %w", err)
	}

	archive, err := world.NewArchiveWriter(cfg.EventLogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create event archive: %w", err)
	}

	// Events go to the rotated JSONL archive and to the database.
	archiver := world.MultiArchiver{archive, persistence.NewEventArchiver(store)}

	locations := make([]*world.Location, 0, len(cfg.Locations))
	for i := range cfg.Locations {
		lc := &cfg.Locations[i]
		locations = append(locations, world.NewLocation(lc.Name, lc.Description))
	}
	w := world.New(cfg.WorldName, locations, archiver)

	var recorder *metrics.PrometheusRecorder
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		recorder = metrics.NewPrometheusRecorder()
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			logger.Info("metrics listening on %s", cfg.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed: %v", err)
			}
		}()
	}

	completer, err := buildCompleter(cfg, recorder, logger)
	if err != nil {
		return nil, err
	}

	tools.InitCatalog()
	tracker := conversation.NewTracker()
	documents := persistence.NewDocumentBridge(store)
	search := &oracleSearch{completer: completer}

	agentCfg := agent.Config{
		MaxPlanIterations:   cfg.Sim.MaxPlanIterations,
		ReflectionThreshold: cfg.Sim.ReflectionThreshold,
		ReflectionMemories:  cfg.Sim.ReflectionMemories,
		ActivitySummaryTTL:  cfg.Sim.ActivitySummaryTTL,
		PlanLength:          time.Duration(cfg.Sim.PlanLengthHours * float64(time.Hour)),
	}

	roster := agent.NewRoster()
	scheduler := world.NewScheduler(cfg.Sim.TickInterval)
	embedder := buildEmbedder(cfg)
	console := NewConsole("Operator", roster, w, tracker)

	for i := range cfg.Agents {
		seed := &cfg.Agents[i]
		loc, ok := w.Directory.ByName(seed.Location)
		if !ok {
			return nil, fmt.Errorf("agent %q starts at unknown location %q", seed.Name, seed.Location)
		}

		params := agent.Params{
			FullName:        seed.Name,
			PublicBio:       seed.PublicBio,
			PrivateBio:      seed.PrivateBio,
			Directives:      seed.Directives,
			LocationID:      loc.ID,
			AuthorizedTools: seed.AuthorizedTools,
			World:           w,
			Tracker:         tracker,
			Completer:       completer,
			Persister:       store,
			Documents:       documents,
			Search:          search,
			Humans:          console,
			Config:          agentCfg,
			Color:           logx.ColorForIndex(i),
		}
		if recorder != nil {
			params.Recorder = recorder
		}
		if embedder != nil {
			params.Embedder = embedder
		}

		a, err := agent.NewFromStore(params, store)
		if err != nil {
			return nil, fmt.Errorf("failed to seed agent %q: %w", seed.Name, err)
		}
		roster.Add(a)
		scheduler.Add(a)
	}

	logger.Info("world %q seeded: %d locations, %d agents", cfg.WorldName, len(locations), len(cfg.Agents))

	return &Simulation{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		archive:    archive,
		w:          w,
		roster:     roster,
		scheduler:  scheduler,
		console:    console,
		metricsSrv: metricsSrv,
	}, nil
}

// Run ticks every agent until ctx is cancelled, then waits for in-flight
// ticks to finish.
func (s *Simulation) Run(ctx context.Context) {
	s.logger.Info("starting %d agents, tick interval %s", len(s.cfg.Agents), s.cfg.Sim.TickInterval)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		go s.console.Run(ctx)
	}
	s.scheduler.Run(ctx)
}

// Close releases the run's resources.
func (s *Simulation) Close() error {
	var firstErr error
	if s.metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.metricsSrv.Shutdown(shutdownCtx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.archive.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// buildCompleter wires the middleware chain around the configured provider
// clients: metrics outermost, then fallback, retry, and per-call timeout.
func buildCompleter(cfg *config.Config, recorder *metrics.PrometheusRecorder, logger *logx.Logger) (oracle.Completer, error) {
	primary, err := buildClient(&cfg.Oracle.Primary)
	if err != nil {
		return nil, fmt.Errorf("oracle primary: %w", err)
	}

	var mws []oracle.Middleware
	if recorder != nil {
		mws = append(mws, oracle.WithMetrics(recorder))
	}
	if cfg.Oracle.Fallback != nil {
		secondary, err := buildClient(cfg.Oracle.Fallback)
		if err != nil {
			return nil, fmt.Errorf("oracle fallback: %w", err)
		}
		secondary = oracle.Chain(secondary,
			oracle.WithRetry(oracle.DefaultRetryConfig),
			oracle.WithTimeout(cfg.Oracle.RequestTimeout),
		)
		mws = append(mws, oracle.WithFallback(secondary, logger.Warn))
	}
	mws = append(mws,
		oracle.WithRetry(oracle.DefaultRetryConfig),
		oracle.WithTimeout(cfg.Oracle.RequestTimeout),
	)

	return oracle.Chain(primary, mws...), nil
}

func buildClient(m *config.Model) (oracle.Completer, error) {
	switch m.Provider {
	case config.ProviderAnthropic:
		return anthropic.New(m.APIKey, m.Name), nil
	case config.ProviderOpenAI:
		return openai.New(m.APIKey, m.Name), nil
	case config.ProviderOllama:
		return ollama.New(m.Host, m.Name), nil
	case config.ProviderGoogle:
		return google.New(m.APIKey, m.Name), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", m.Provider)
	}
}

// buildEmbedder returns an embedding client when an OpenAI key is
// configured; without one, memory ranking falls back to keyword overlap.
func buildEmbedder(cfg *config.Config) *openai.Embedder {
	if cfg.Oracle.Primary.Provider == config.ProviderOpenAI {
		return openai.NewEmbedder(cfg.Oracle.Primary.APIKey)
	}
	if cfg.Oracle.Fallback != nil && cfg.Oracle.Fallback.Provider == config.ProviderOpenAI {
		return openai.NewEmbedder(cfg.Oracle.Fallback.APIKey)
	}
	return nil
}

// oracleSearch answers search queries with the oracle itself. The result
// reads like a terse research note, which is all the search tool promises.
type oracleSearch struct {
	completer oracle.Completer
}

func (s *oracleSearch) Search(ctx context.Context, query string) (string, error) {
	req := oracle.NewRequest(
		oracle.SystemMessage("You are a research assistant. Answer the query factually in at most three sentences. If you do not know, say so."),
		oracle.UserMessage(query),
	)
	req.Temperature = 0
	resp, err := s.completer.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}
