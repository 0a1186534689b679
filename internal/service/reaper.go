package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/trustedge/integrations/config"
	"github.com/trustedge/integrations/internal/core"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo   core.JobRepository // Required: job repository
	Config config.ReaperConfig
	Logger *slog.Logger // Optional: structured logger
}

// ReaperService returns jobs orphaned by a crashed worker to the queue. A job
// stuck in running past the stale threshold gets its lock cleared and its
// attempt count bumped, so a job that repeatedly kills its worker still hits
// the permanent-failure ceiling.
type ReaperService struct {
	repo   core.JobRepository
	config config.ReaperConfig
	logger *slog.Logger
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}

	cfg := opts.Config
	cfg.Sanitize()

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
	}

	return &ReaperService{repo: opts.Repo, config: cfg, logger: logger}, nil
}

// Run starts the sweep loop and runs until the context is cancelled. Returns
// nil on graceful shutdown.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service",
			"interval", s.config.Interval,
			"stale_after", s.config.StaleAfter,
		)
	}

	// Jitter the first sweep so multiple instances starting together don't
	// sweep in lockstep.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if err := s.Sweep(ctx); err != nil {
		s.logSweepError(err)
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logSweepError(err)
			}
		}
	}
}

// Sweep requeues stale running jobs in batches until a batch comes back
// empty.
func (s *ReaperService) Sweep(ctx context.Context) error {
	var total int64
	for {
		count, err := s.repo.RequeueStale(ctx, s.config.StaleAfter, s.config.BatchSize)
		if err != nil {
			return err
		}
		total += count
		if count == 0 {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if total > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "requeued stale jobs",
			"count", total,
			"stale_after", s.config.StaleAfter,
		)
	}
	return nil
}

// waitWithJitter delays up to 10% of the interval before the first sweep.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func (s *ReaperService) logSweepError(err error) {
	if s.logger == nil {
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Debug("sweep cancelled by context", "error", err)
		return
	}
	s.logger.Error("sweep failed", "error", err)
}
