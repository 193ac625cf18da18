package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cwu2020/reflist-sub001/internal/claim/store"
	"github.com/cwu2020/reflist-sub001/internal/clock"
	obsmetrics "github.com/cwu2020/reflist-sub001/internal/observability/metrics"
)

const jobVerificationSweep = "verification_sweep"

var ErrInvalidConfig = errors.New("scheduler requires log and clock")

type Params struct {
	fx.In

	Log          *zap.Logger
	Clock        clock.Clock
	Config       Config                       `optional:"true"`
	Store        *store.MemoryStore           `optional:"true"`
	SchedMetrics *obsmetrics.SchedulerMetrics `optional:"true"`
}

// Scheduler drives periodic maintenance. Today that is one job: sweeping
// expired verification records out of the in-memory store. Redis-backed
// verification expires server-side and needs no sweep.
type Scheduler struct {
	log          *zap.Logger
	clock        clock.Clock
	cfg          Config
	store        *store.MemoryStore
	schedMetrics *obsmetrics.SchedulerMetrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:          p.Log.Named("scheduler"),
		clock:        p.Clock,
		cfg:          p.Config.withDefaults(),
		store:        p.Store,
		schedMetrics: p.SchedMetrics,
	}, nil
}

// RunForever ticks until the context is canceled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes every job a single time.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runJob(ctx, jobVerificationSweep, s.sweepVerifications)
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	start := s.clock.Now()
	err := fn(ctx)
	elapsed := s.clock.Now().Sub(start)

	result := obsmetrics.JobResultOK
	if err != nil {
		result = obsmetrics.JobResultError
		s.log.Warn("scheduler job failed",
			zap.String("job", name),
			zap.Error(err),
		)
	}
	s.schedMetrics.RecordRun(name, result, elapsed)
}

func (s *Scheduler) sweepVerifications(context.Context) error {
	if s.store == nil {
		return nil
	}
	purged := s.store.Purge()
	if purged > 0 {
		s.log.Info("purged expired verifications", zap.Int("count", purged))
		s.schedMetrics.RecordPurged(jobVerificationSweep, purged)
	}
	return nil
}
