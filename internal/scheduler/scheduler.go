// Package scheduler runs periodic housekeeping on a cron spec.
package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobmate/verifier-service/internal/logger"
)

const DefaultSweepSpec = "@every 1m"

// Expirer is anything that can reclaim its expired entries.
type Expirer interface {
	DeleteExpired() int
}

// Sweeper wraps robfig/cron and purges expired cache entries.
type Sweeper struct {
	cron   *cron.Cron
	target Expirer
	spec   string
	logger *zap.Logger
}

// NewSweeper creates a Sweeper for target firing on spec, e.g. "@every 1m".
func NewSweeper(target Expirer, spec string, log *zap.Logger) *Sweeper {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	return &Sweeper{
		cron:   cron.New(),
		target: target,
		spec:   spec,
		logger: logger.OrNop(log).Named("scheduler"),
	}
}

// Start registers the sweep and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.Sweep); err != nil {
		return fmt.Errorf("cron.AddFunc(%q): %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("cache sweeper started", zap.String("spec", s.spec))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("cache sweeper stopped")
}

// Sweep runs one purge immediately.
func (s *Sweeper) Sweep() {
	if n := s.target.DeleteExpired(); n > 0 {
		s.logger.Debug("expired cache entries removed", zap.Int("count", n))
	}
}
