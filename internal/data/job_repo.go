package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/domain/model"
	apperrors "github.com/trustedge/integrations/internal/errors"
)

// ErrJobNotFound is returned when a job is not found.
var ErrJobNotFound = errors.New("integration job not found")

// RepoConfig holds configuration options shared by the repositories.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

func (c RepoConfig) timeProvider() TimeProvider {
	if c.TimeProvider != nil {
		return c.TimeProvider
	}
	return &RealTimeProvider{}
}

// JobRepo provides database operations for the integration job queue.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo with the given database connection and
// configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	return &JobRepo{
		DB:           db,
		timeProvider: cfg.timeProvider(),
		logger:       cfg.Logger,
	}
}

const jobColumns = `
  id,
  job_type,
  status,
  payload,
  attempts,
  next_attempt_at,
  idempotency_key,
  last_error,
  locked_at,
  completed_at,
  created_at,
  updated_at
`

// Enqueue inserts a new pending job, deduplicating on the idempotency key.
// Two concurrent enqueues with the same key both succeed: the loser of the
// insert race re-reads the winner's row instead of surfacing the unique
// violation.
func (r *JobRepo) Enqueue(ctx context.Context, req *model.EnqueueRequest) (*model.EnqueueResult, error) {
	if req == nil {
		return nil, errors.New("enqueue request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		if existing, err := r.findByIdempotencyKey(ctx, req.IdempotencyKey); err != nil {
			return nil, err
		} else if existing != "" {
			return &model.EnqueueResult{ID: existing, Deduped: true}, nil
		}
	}

	now := r.timeProvider.Now().UTC()
	var key *string
	if req.IdempotencyKey != "" {
		key = &req.IdempotencyKey
	}

	var id string
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO integration_jobs (job_type, status, payload, attempts, next_attempt_at, idempotency_key)
		VALUES ($1, 'pending', $2, 0, $3, $4)
		RETURNING id
	`, req.Type, []byte(req.Payload), now, key).Scan(&id)
	if err != nil {
		if apperrors.IsUniqueViolation(err) && req.IdempotencyKey != "" {
			existing, qerr := r.findByIdempotencyKey(ctx, req.IdempotencyKey)
			if qerr != nil {
				return nil, qerr
			}
			if existing != "" {
				return &model.EnqueueResult{ID: existing, Deduped: true}, nil
			}
		}
		return nil, apperrors.Wrap(apperrors.MapDBError(err), apperrors.ErrCodeInternal, "enqueue integration job")
	}

	return &model.EnqueueResult{ID: id, Deduped: false}, nil
}

func (r *JobRepo) findByIdempotencyKey(ctx context.Context, key string) (string, error) {
	var id string
	err := r.DB.QueryRowContext(ctx,
		`SELECT id FROM integration_jobs WHERE idempotency_key = $1`, key,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("look up idempotency key: %w", err)
	}
	return id, nil
}

// DueJobs returns up to limit pending jobs whose next attempt time has
// passed, oldest created first for fairness.
func (r *JobRepo) DueJobs(ctx context.Context, limit int) ([]*model.IntegrationJob, error) {
	if limit < 1 {
		limit = 1
	}

	now := r.timeProvider.Now().UTC()
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+jobColumns+`
		FROM integration_jobs
		WHERE status = 'pending' AND next_attempt_at <= $1
		ORDER BY created_at ASC
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch due jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.IntegrationJob
	for rows.Next() {
		job, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan due job: %w", scanErr)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due jobs: %w", err)
	}
	return jobs, nil
}

// Claim conditionally transitions a pending job to running. The update is a
// compare-and-swap on the current status, so only one of any number of
// concurrent claimers can win; losers get (nil, nil), not an error.
func (r *JobRepo) Claim(ctx context.Context, jobID string) (*model.IntegrationJob, error) {
	now := r.timeProvider.Now().UTC()

	row := r.DB.QueryRowContext(ctx, `
		UPDATE integration_jobs
		SET status = 'running',
		    locked_at = $2,
		    updated_at = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING `+jobColumns, jobID, now)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job %s: %w", jobID, err)
	}
	return job, nil
}

// MarkSucceeded finalizes a running job: terminal status, cleared error and
// lock. Conditioned on the row still being running so a state changed
// elsewhere is never clobbered.
func (r *JobRepo) MarkSucceeded(ctx context.Context, jobID string) (bool, error) {
	now := r.timeProvider.Now().UTC()

	res, err := r.DB.ExecContext(ctx, `
		UPDATE integration_jobs
		SET status = 'succeeded',
		    completed_at = $2,
		    last_error = NULL,
		    locked_at = NULL,
		    updated_at = $2
		WHERE id = $1 AND status = 'running'
	`, jobID, now)
	if err != nil {
		return false, fmt.Errorf("mark job %s succeeded: %w", jobID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark succeeded rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkFailure increments attempts and either reschedules the job or fails it
// permanently. Attempts only ever increase.
func (r *JobRepo) MarkFailure(ctx context.Context, params core.MarkFailureParams) (bool, error) {
	now := r.timeProvider.Now().UTC()

	var (
		res sql.Result
		err error
	)
	if params.FinalFailure {
		res, err = r.DB.ExecContext(ctx, `
			UPDATE integration_jobs
			SET status = 'failed',
			    attempts = attempts + 1,
			    last_error = $2,
			    locked_at = NULL,
			    completed_at = $3,
			    updated_at = $3
			WHERE id = $1 AND status = 'running'
		`, params.JobID, params.ErrMsg, now)
	} else {
		retryAt := now.Add(params.RetryDelay)
		res, err = r.DB.ExecContext(ctx, `
			UPDATE integration_jobs
			SET status = 'pending',
			    attempts = attempts + 1,
			    next_attempt_at = $2,
			    last_error = $3,
			    locked_at = NULL,
			    updated_at = $4
			WHERE id = $1 AND status = 'running'
		`, params.JobID, retryAt, params.ErrMsg, now)
	}
	if err != nil {
		return false, fmt.Errorf("mark job %s failure: %w", params.JobID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark failure rows affected: %w", err)
	}
	return affected > 0, nil
}

// RequeueStale returns running jobs whose lock is older than maxAge to
// pending, incrementing attempts so a crash-looping job still hits the
// permanent-failure ceiling. SKIP LOCKED keeps concurrent sweeps from
// contending on the same rows.
func (r *JobRepo) RequeueStale(ctx context.Context, maxAge time.Duration, limit int) (int64, error) {
	if limit < 1 {
		limit = 1
	}

	now := r.timeProvider.Now().UTC()
	cutoff := now.Add(-maxAge)

	res, err := r.DB.ExecContext(ctx, `
		UPDATE integration_jobs
		SET status = 'pending',
		    attempts = attempts + 1,
		    next_attempt_at = $1,
		    last_error = 'requeued: stale lock reclaimed',
		    locked_at = NULL,
		    updated_at = $1
		WHERE id IN (
			SELECT id FROM integration_jobs
			WHERE status = 'running' AND locked_at IS NOT NULL AND locked_at < $2
			ORDER BY locked_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
	`, now, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("requeue stale jobs: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("requeue stale rows affected: %w", err)
	}
	return affected, nil
}

// GetByID retrieves a job by its id.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.IntegrationJob, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM integration_jobs
		WHERE id = $1
	`, id)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// Stats counts jobs in each state.
func (r *JobRepo) Stats(ctx context.Context) (*model.JobStats, error) {
	var s model.JobStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			count(*) FILTER (WHERE status = 'pending')   AS pending,
			count(*) FILTER (WHERE status = 'running')   AS running,
			count(*) FILTER (WHERE status = 'succeeded') AS succeeded,
			count(*) FILTER (WHERE status = 'failed')    AS failed
		FROM integration_jobs
	`).Scan(&s.Pending, &s.Running, &s.Succeeded, &s.Failed)
	if err != nil {
		return nil, fmt.Errorf("get job stats: %w", err)
	}
	return &s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(scanner rowScanner) (*model.IntegrationJob, error) {
	job := &model.IntegrationJob{}
	var (
		payload                   []byte
		idempotencyKey, lastError sql.NullString
		lockedAt, completedAt     sql.NullTime
	)

	if err := scanner.Scan(
		&job.ID,
		&job.Type,
		&job.Status,
		&payload,
		&job.Attempts,
		&job.NextAttemptAt,
		&idempotencyKey,
		&lastError,
		&lockedAt,
		&completedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}

	job.Payload = append(job.Payload, payload...)
	job.IdempotencyKey = nullableString(idempotencyKey)
	job.LastError = nullableString(lastError)
	job.LockedAt = nullableTime(lockedAt)
	job.CompletedAt = nullableTime(completedAt)
	return job, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
