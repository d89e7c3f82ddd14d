package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"thirdcoast.systems/leadwatch/internal/config"
	"thirdcoast.systems/leadwatch/internal/db"
	"thirdcoast.systems/leadwatch/internal/events"
	"thirdcoast.systems/leadwatch/internal/helpdesk"
	"thirdcoast.systems/leadwatch/internal/keywords"
	"thirdcoast.systems/leadwatch/internal/leads"
	"thirdcoast.systems/leadwatch/internal/ledger"
	"thirdcoast.systems/leadwatch/internal/pipeline"
	"thirdcoast.systems/leadwatch/internal/registry"
	"thirdcoast.systems/leadwatch/internal/scrape"
	"thirdcoast.systems/leadwatch/pkg/apify"
)

// App holds the wired pipeline shared by the web server and the scheduler.
type App struct {
	Config       config.Config
	Videos       registry.Store
	Leads        ledger.Store
	Orchestrator *pipeline.Orchestrator
	Receiver     *pipeline.Receiver

	closers []func()
}

// Deps are the pieces that talk to the outside world. Nil fields get the
// in-process defaults.
type Deps struct {
	Videos   registry.Store
	Leads    ledger.Store
	Claims   ledger.Claimer
	Events   events.Publisher
	Provider scrape.Provider
	Issuer   pipeline.Issuer
}

// New connects the configured stores and brokers, then assembles the pipeline.
func New(ctx context.Context, conf config.Config) (*App, error) {
	var deps Deps
	var closers []func()
	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		return nil, err
	}

	switch conf.StoreDriver {
	case "memory":
		slog.Warn("using in-memory stores; leads are lost on restart")
		deps.Videos = registry.NewMemoryStore()
		deps.Leads = ledger.NewMemoryLedger()
	default:
		pool, err := OpenDBPoolWithRetry(ctx, conf)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, pool.Close)

		dbc, err := db.NewDatabaseConnection(ctx, pool)
		if err != nil {
			return fail(err)
		}
		q := dbc.Queries(ctx)
		deps.Videos = registry.NewPostgresStore(q)
		deps.Leads = ledger.NewPostgresLedger(q)
		// Web and scheduler share this database, so claims must too.
		deps.Claims = ledger.NewPostgresClaimer(q, conf.ClaimTTL)
	}

	if conf.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     conf.RedisAddr,
			Password: conf.RedisPassword,
			DB:       conf.RedisDB,
		})
		closers = append(closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fail(fmt.Errorf("connect redis %s: %w", conf.RedisAddr, err))
		}
		slog.Info("Using redis claims", "addr", conf.RedisAddr)
		deps.Claims = ledger.NewRedisClaimer(rdb, conf.ClaimTTL)
	}

	if conf.NatsURL != "" {
		pub, err := events.ConnectNats(conf.NatsURL, conf.NatsSubject)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, pub.Close)
		deps.Events = pub
	}

	app, err := Assemble(conf, deps)
	if err != nil {
		return fail(err)
	}
	app.closers = closers
	return app, nil
}

// Assemble builds the pipeline from conf and deps without opening connections.
func Assemble(conf config.Config, deps Deps) (*App, error) {
	policy, err := keywords.ParsePolicy(conf.KeywordPolicy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", leads.ErrConfiguration, err)
	}

	if deps.Videos == nil {
		deps.Videos = registry.NewMemoryStore()
	}
	if deps.Leads == nil {
		deps.Leads = ledger.NewMemoryLedger()
	}
	if deps.Claims == nil {
		deps.Claims = ledger.NewLocalClaimer()
	}
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	if deps.Provider == nil {
		deps.Provider = scrape.NewApifyProvider(apify.NewClient(conf.ApifyBaseURL, conf.ApifyToken), conf.ApifyActorID)
	}
	if deps.Issuer == nil {
		deps.Issuer = helpdesk.FromConfig(conf)
	}

	strategy, err := scrape.New(conf, deps.Provider)
	if err != nil {
		return nil, err
	}

	processor := pipeline.NewProcessor(keywords.NewMatcher(policy), deps.Leads, deps.Claims, deps.Issuer, deps.Events)

	return &App{
		Config: conf,
		Videos: deps.Videos,
		Leads:  deps.Leads,
		Orchestrator: pipeline.NewOrchestrator(deps.Videos, strategy, processor, pipeline.OrchestratorOptions{
			Concurrency: conf.CycleConcurrency,
			Budget:      conf.CycleBudget,
		}),
		Receiver: pipeline.NewReceiver(deps.Videos, deps.Provider, processor, conf.ScrapeRecordSchema, conf.ScrapeResultsPerVideo),
	}, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
