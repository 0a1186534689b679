// Package service implements the integration job operations on top of the
// repository and provider interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/domain/model"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo   core.JobRepository // Required: job repository
	Logger *slog.Logger       // Optional: structured logger
}

// JobService provides enqueue and inspection operations for integration jobs.
type JobService struct {
	repo   core.JobRepository
	logger *slog.Logger
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "job_service")
	}

	return &JobService{repo: opts.Repo, logger: logger}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// Enqueue adds a job to the queue. Requests carrying an idempotency key that
// matches an existing job return that job with Deduped set instead of
// inserting a duplicate.
func (s *JobService) Enqueue(ctx context.Context, req *model.EnqueueRequest) (*model.EnqueueResult, error) {
	result, err := s.repo.Enqueue(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job enqueued",
			"job_id", result.ID,
			"job_type", req.Type,
			"deduped", result.Deduped,
		)
	}
	return result, nil
}

// GetByID retrieves a job by its id.
func (s *JobService) GetByID(ctx context.Context, id string) (*model.IntegrationJob, error) {
	return s.repo.GetByID(ctx, id)
}

// Stats counts jobs per status.
func (s *JobService) Stats(ctx context.Context) (*model.JobStats, error) {
	return s.repo.Stats(ctx)
}
