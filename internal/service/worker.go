package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trustedge/integrations/config"
	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/domain/model"
	"github.com/trustedge/integrations/internal/domain/retry"
)

// actorIntegrationWorker is recorded on audit events written by the worker.
const actorIntegrationWorker = "integration_worker"

// WorkerServiceOptions groups dependencies for WorkerService.
type WorkerServiceOptions struct {
	Repo       core.JobRepository       // Required: job repository
	Dispatcher *Dispatcher              // Required: job type handlers
	LeadEvents core.LeadEventRepository // Optional: audit trail sink
	Config     config.WorkerConfig
	Logger     *slog.Logger // Optional: structured logger
}

// WorkerService drains due jobs: claim, dispatch, and settle each one
// independently so one failing job never blocks the rest of the batch.
type WorkerService struct {
	repo       core.JobRepository
	dispatcher *Dispatcher
	leadEvents core.LeadEventRepository
	config     config.WorkerConfig
	logger     *slog.Logger
}

// NewWorkerService constructs a new WorkerService.
func NewWorkerService(opts WorkerServiceOptions) (*WorkerService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("Dispatcher is required")
	}

	cfg := opts.Config
	cfg.Sanitize()

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "worker_service")
	}

	return &WorkerService{
		repo:       opts.Repo,
		dispatcher: opts.Dispatcher,
		leadEvents: opts.LeadEvents,
		config:     cfg,
		logger:     logger,
	}, nil
}

// ClampLimit applies the configured default and ceiling to a requested batch
// size. Zero or negative requests use the default.
func (s *WorkerService) ClampLimit(requested int) int {
	if requested < 1 {
		return s.config.DefaultLimit
	}
	if requested > s.config.MaxLimit {
		return s.config.MaxLimit
	}
	return requested
}

// RunDueJobs processes up to limit due jobs sequentially and reports the
// per-job outcomes. Another worker racing on the same batch is expected:
// jobs whose claim is lost are skipped, not errors.
func (s *WorkerService) RunDueJobs(ctx context.Context, limit int) (*model.RunSummary, error) {
	limit = s.ClampLimit(limit)

	due, err := s.repo.DueJobs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch due jobs: %w", err)
	}

	summary := &model.RunSummary{Scanned: len(due)}
	for _, candidate := range due {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		job, claimErr := s.repo.Claim(ctx, candidate.ID)
		if claimErr != nil {
			return summary, fmt.Errorf("claim job %s: %w", candidate.ID, claimErr)
		}
		if job == nil {
			continue
		}
		summary.Claimed++

		s.settleJob(ctx, job, summary)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "worker run complete",
			"scanned", summary.Scanned,
			"claimed", summary.Claimed,
			"succeeded", summary.Succeeded,
			"retried", summary.Retried,
			"failed", summary.Failed,
		)
	}
	return summary, nil
}

func (s *WorkerService) settleJob(ctx context.Context, job *model.IntegrationJob, summary *model.RunSummary) {
	runErr := s.runHandler(ctx, job)
	if runErr == nil {
		if _, err := s.repo.MarkSucceeded(ctx, job.ID); err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to mark job succeeded", "job_id", job.ID, "error", err)
		}
		summary.Succeeded++
		return
	}

	newAttempts := job.Attempts + 1
	final := retry.Exhausted(newAttempts)

	params := core.MarkFailureParams{
		JobID:        job.ID,
		ErrMsg:       runErr.Error(),
		FinalFailure: final,
		RetryDelay:   retry.Delay(job.Attempts),
	}
	if _, err := s.repo.MarkFailure(ctx, params); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to mark job failure", "job_id", job.ID, "error", err)
	}

	if final {
		summary.Failed++
	} else {
		summary.Retried++
	}
	s.recordAttemptFailure(ctx, job, runErr, final)

	if s.logger != nil {
		s.logger.WarnContext(ctx, "job attempt failed",
			"job_id", job.ID,
			"job_type", job.Type,
			"attempts", newAttempts,
			"final", final,
			"error", runErr,
		)
	}
}

// runHandler dispatches the job with a panic boundary so a handler bug
// surfaces as a failed attempt instead of taking down the worker.
func (s *WorkerService) runHandler(ctx context.Context, job *model.IntegrationJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return s.dispatcher.Dispatch(ctx, job)
}

// recordAttemptFailure leaves a best-effort audit note on the lead the
// payload references, when it references one. Rescheduled and permanently
// failed attempts both leave a note; the event type distinguishes them.
func (s *WorkerService) recordAttemptFailure(ctx context.Context, job *model.IntegrationJob, runErr error, final bool) {
	if s.leadEvents == nil {
		return
	}
	leadID := model.LeadIDFromPayload(job.Payload)
	if leadID == "" {
		return
	}

	eventType := "integration_retry:" + string(job.Type)
	if final {
		eventType = "integration_failed:" + string(job.Type)
	}
	event := &model.LeadEvent{
		LeadID:    leadID,
		EventType: eventType,
		Note:      runErr.Error(),
		Actor:     actorIntegrationWorker,
	}
	if err := s.leadEvents.Append(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to append lead event", "lead_id", leadID, "error", err)
	}
}
