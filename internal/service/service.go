package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/juankaspain/vuelosrobot-sub000/internal/acquire"
	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
	"github.com/juankaspain/vuelosrobot-sub000/internal/scheduler"
)

// AdvisoryLocker guards scan cycles against concurrent scanner instances.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// HistoryPruner removes persisted records older than the retention horizon.
type HistoryPruner interface {
	DeleteHistoryBefore(ctx context.Context, olderThan time.Time) error
	CountHistory(ctx context.Context) (int64, error)
}

// Options configure the scanning service.
type Options struct {
	Routes      []flight.Route
	HorizonDays int
	LockKey     int64
	Retention   time.Duration
}

// Service drives periodic route scans through the acquisition orchestrator.
type Service struct {
	scheduler    *scheduler.Scheduler
	orchestrator *acquire.Orchestrator
	locker       AdvisoryLocker
	pruner       HistoryPruner
	routes       []flight.Route
	horizonDays  int
	lockKey      int64
	retention    time.Duration
	logger       zerolog.Logger
}

// New constructs the scanning service. locker and pruner may be nil when
// persistence is disabled.
func New(sched *scheduler.Scheduler, orch *acquire.Orchestrator, locker AdvisoryLocker, pruner HistoryPruner, opts Options, logger zerolog.Logger) *Service {
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 30
	}
	return &Service{
		scheduler:    sched,
		orchestrator: orch,
		locker:       locker,
		pruner:       pruner,
		routes:       opts.Routes,
		horizonDays:  opts.HorizonDays,
		lockKey:      opts.LockKey,
		retention:    opts.Retention,
		logger:       logger.With().Str("component", "service").Logger(),
	}
}

// Run begins the periodic scan loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ScanCycle)
}

// ScanCycle performs one full scan of the watched routes for the travel
// date at the configured horizon.
func (s *Service) ScanCycle(ctx context.Context, tick time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("tick", tick).Msg("skip cycle: advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	travelDate := tick.UTC().AddDate(0, 0, s.horizonDays).Truncate(24 * time.Hour)

	started := time.Now()
	quotes, err := s.orchestrator.ScanRoutes(ctx, s.routes, travelDate)
	if err != nil {
		return fmt.Errorf("scan routes: %w", err)
	}

	live := 0
	for _, q := range quotes {
		if q.Live() {
			live++
		}
	}

	s.logger.Info().
		Time("tick", tick).
		Str("travel_date", travelDate.Format("2006-01-02")).
		Int("routes", len(quotes)).
		Int("live", live).
		Int("heuristic", len(quotes)-live).
		Dur("elapsed", time.Since(started)).
		Msg("scan cycle complete")

	s.pruneHistory(ctx)
	return nil
}

// pruneHistory trims persisted records past retention. Prune failures are
// logged, not fatal.
func (s *Service) pruneHistory(ctx context.Context) {
	if s.pruner == nil || s.retention <= 0 {
		return
	}

	cutoff := time.Now().UTC().Add(-s.retention)
	if err := s.pruner.DeleteHistoryBefore(ctx, cutoff); err != nil {
		s.logger.Error().Err(err).Msg("failed to prune price history")
		return
	}

	if count, err := s.pruner.CountHistory(ctx); err == nil {
		s.logger.Debug().Int64("records", count).Time("cutoff", cutoff).Msg("price history pruned")
	}
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
