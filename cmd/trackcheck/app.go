package main

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trackcheck/internal/config"
	"trackcheck/internal/expect"
	"trackcheck/internal/inspector"
	"trackcheck/internal/logger"
	"trackcheck/internal/match"
	"trackcheck/internal/report"
	"trackcheck/internal/scenario"
	"trackcheck/pkg/cel"
	"trackcheck/pkg/health"
)

// App wires the components a subcommand needs. History is attached only
// when a mongo URI is configured; everything else is always available.
type App struct {
	cfg    *config.Config
	logger logger.Logger

	store    *expect.Store
	engine   *match.Engine
	writer   *report.Writer
	history  *report.History
	registry *health.CheckerRegistry

	mongoClient *mongo.Client
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{cfg: cfg, logger: log}
}

func (a *App) Initialize(ctx context.Context) error {
	a.store = expect.NewStore(a.cfg.Templates.Dir)
	a.writer = report.NewWriter(a.cfg.Artifacts.Dir, a.logger)
	a.registry = health.NewCheckerRegistry()

	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return err
	}
	a.engine = match.NewEngine(evaluator, a.logger)

	if a.cfg.History.MongoURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.cfg.History.MongoURI))
		if err != nil {
			return err
		}
		if err := client.Ping(ctx, nil); err != nil {
			return err
		}
		a.mongoClient = client
		a.history = report.NewHistory(client, a.cfg.History.Database, a.logger)
		a.registry.Register(health.NewMongoChecker(client))
		a.logger.InfowCtx(ctx, "Run history enabled", "database", a.cfg.History.Database)
	}

	return nil
}

func (a *App) Shutdown(ctx context.Context) {
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.logger.Warnw("Mongo disconnect failed", "error", err)
		}
	}
}

// RunScenario executes one scenario file end to end.
func (a *App) RunScenario(ctx context.Context, sc *scenario.Scenario) (*report.RunRecord, error) {
	runner := scenario.NewRunner(a.cfg, a.store, a.engine, a.writer, a.history, a.logger)
	return runner.Run(ctx, sc)
}

// ServeInspector blocks serving the debug API until ctx is cancelled.
func (a *App) ServeInspector(ctx context.Context) error {
	server := inspector.NewServer(a.cfg.Inspector, a.history, nil, a.registry, a.logger)
	return server.Run(ctx)
}
