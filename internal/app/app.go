package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/juankaspain/vuelosrobot-sub000/internal/acquire"
	"github.com/juankaspain/vuelosrobot-sub000/internal/breaker"
	"github.com/juankaspain/vuelosrobot-sub000/internal/config"
	"github.com/juankaspain/vuelosrobot-sub000/internal/deals"
	"github.com/juankaspain/vuelosrobot-sub000/internal/estimator"
	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
	"github.com/juankaspain/vuelosrobot-sub000/internal/history"
	"github.com/juankaspain/vuelosrobot-sub000/internal/metrics"
	"github.com/juankaspain/vuelosrobot-sub000/internal/pricecache"
	"github.com/juankaspain/vuelosrobot-sub000/internal/provider"
	"github.com/juankaspain/vuelosrobot-sub000/internal/ratelimit"
	"github.com/juankaspain/vuelosrobot-sub000/internal/scheduler"
	"github.com/juankaspain/vuelosrobot-sub000/internal/service"
	"github.com/juankaspain/vuelosrobot-sub000/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// newClients builds one resilient provider client per configured provider,
// preserving configuration order as acquisition priority.
func (a *App) newClients(registry *metrics.Registry) []*provider.Client {
	limiter := ratelimit.New(nil)
	clients := make([]*provider.Client, 0, len(a.Config.Providers))

	for _, pc := range a.Config.Providers {
		var p provider.PriceProvider
		switch pc.Kind {
		case "farebeam":
			p = provider.NewFareBeam(provider.FareBeamOptions{
				Name:      pc.Name,
				BaseURL:   pc.BaseURL,
				APIKey:    pc.APIKey,
				Timeout:   pc.Timeout,
				UserAgent: pc.UserAgent,
			}, a.Logger)
		default:
			p = provider.NewAeroData(provider.AeroDataOptions{
				Name:    pc.Name,
				BaseURL: pc.BaseURL,
				APIKey:  pc.APIKey,
				Timeout: pc.Timeout,
			}, a.Logger)
		}

		limiter.Register(pc.Name, ratelimit.Budget{
			PeriodQuota: pc.Budget.PeriodQuota,
			Period:      pc.Budget.Period,
			PerMinute:   pc.Budget.PerMinute,
		})

		brk := breaker.New(breaker.Config{
			FailureThreshold: pc.Breaker.FailureThreshold,
			Cooldown:         pc.Breaker.Cooldown,
		})

		clients = append(clients, provider.NewClient(p, limiter, brk, registry, pc.Timeout, a.Logger))
	}

	return clients
}

func (a *App) newNotifier() deals.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return deals.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// routes parses the configured watchlist, failing fast on malformed codes.
func (a *App) routes() ([]flight.Route, error) {
	routes := make([]flight.Route, 0, len(a.Config.Scan.Routes))
	for _, raw := range a.Config.Scan.Routes {
		route, err := flight.ParseRoute(raw)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// newOrchestrator assembles the full acquisition stack. store may be nil.
func (a *App) newOrchestrator(store *storage.Store) *acquire.Orchestrator {
	registry := metrics.NewRegistry(0)
	clients := a.newClients(registry)

	cache := pricecache.New(a.Config.Cache.MaxEntries)

	est := estimator.New(estimator.Options{
		Seed:       a.Config.Estimator.Seed,
		PeakMonths: a.Config.ParsedPeakMonths(),
	}, a.Logger)

	var sink history.PersistenceSink
	var recorder acquire.DealRecorder
	if store != nil {
		sink = store
		recorder = store
	}

	histStore := history.NewStore(history.Options{
		Retention:  a.Config.History.Retention,
		MaxEntries: a.Config.History.MaxEntries,
	}, sink, a.Logger)

	detector := deals.NewDetector(deals.Options{
		MinSavings: decimal.NewFromFloat(a.Config.Deals.ThresholdPct / 100),
		Cooldown:   a.Config.Deals.Cooldown,
		MinHistory: a.Config.Deals.MinHistory,
	}, a.Logger)

	return acquire.New(
		clients,
		cache,
		est,
		histStore,
		detector,
		registry,
		a.newNotifier(),
		recorder,
		acquire.Options{
			CacheTTL:     a.Config.Cache.TTL,
			HeuristicTTL: a.Config.Cache.HeuristicTTL,
			StatsWindow:  a.Config.History.StatsWindow,
			Workers:      a.Config.Scan.Workers,
		},
		a.Logger,
	)
}

// preloadHistory seeds the in-memory store from persistence for the
// watched routes so deal detection has context after a restart.
func (a *App) preloadHistory(ctx context.Context, orch *acquire.Orchestrator, routes []flight.Route, store *storage.Store) {
	if store == nil {
		return
	}
	for _, route := range routes {
		if err := orch.History().Load(ctx, route); err != nil {
			a.Logger.Warn().Err(err).Str("route", route.Key()).Msg("failed to preload route history")
		}
	}
}

// Run executes the long-running scanning service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	routes, err := a.routes()
	if err != nil {
		return err
	}

	orch := a.newOrchestrator(store)
	a.preloadHistory(ctx, orch, routes, store)

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	var locker service.AdvisoryLocker
	var pruner service.HistoryPruner
	if store != nil {
		locker = store
		pruner = store
	}

	svc := service.New(sched, orch, locker, pruner, service.Options{
		Routes:      routes,
		HorizonDays: a.Config.Scan.HorizonDays,
		LockKey:     a.Config.Scheduler.AdvisoryLockKey,
		Retention:   a.Config.History.Retention,
	}, a.Logger)

	a.Logger.Info().Int("routes", len(routes)).Int("providers", len(a.Config.Providers)).Msg("starting scanning service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("scanning service stopped")
	return nil
}

// ScanOptions configure the one-shot scan command.
type ScanOptions struct {
	Routes      []string
	HorizonDays int
}

// DealsOptions configure the deals command.
type DealsOptions struct {
	MinSavingsPct float64
	Limit         int
}

// ExportOptions hold parameters for exporting a route's price history.
type ExportOptions struct {
	Route     string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// SimulateOptions drive a synthetic deal evaluation.
type SimulateOptions struct {
	Route string
	Price float64
	Mean  float64
}
