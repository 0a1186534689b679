package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/domain/model"
	"github.com/trustedge/integrations/internal/testutil"
)

func enqueueReq(key string) *model.EnqueueRequest {
	return &model.EnqueueRequest{
		Type:           model.JobTypeEnsureFolder,
		Payload:        json.RawMessage(`{"phoneKey":"14155550134"}`),
		IdempotencyKey: key,
	}
}

// TestEnqueue_ConcurrentSameKey_SingleRow is an integration test that races
// enqueues on one idempotency key against Postgres. Losers of the insert race
// must land in the unique-violation fallback and re-read the winner's row.
func TestEnqueue_ConcurrentSameKey_SingleRow(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})
		ctx := context.Background()

		const racers = 12
		results := make([]*model.EnqueueResult, racers)
		errs := make([]error, racers)

		var wg sync.WaitGroup
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = repo.Enqueue(ctx, enqueueReq("ensure_folder:race-1"))
			}(i)
		}
		wg.Wait()

		inserted := 0
		for i := 0; i < racers; i++ {
			require.NoError(t, errs[i])
			require.NotNil(t, results[i])
			assert.Equal(t, results[0].ID, results[i].ID)
			if !results[i].Deduped {
				inserted++
			}
		}
		assert.Equal(t, 1, inserted)

		var rows int
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT count(*) FROM integration_jobs WHERE idempotency_key = $1`,
			"ensure_folder:race-1").Scan(&rows))
		assert.Equal(t, 1, rows)
	})
}

// TestClaim_ConcurrentClaimers_OneWinner races claimers on a single pending
// job; the status compare-and-swap must let exactly one through.
func TestClaim_ConcurrentClaimers_OneWinner(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})
		ctx := context.Background()

		res, err := repo.Enqueue(ctx, enqueueReq("ensure_folder:claim-1"))
		require.NoError(t, err)

		const claimers = 8
		claimed := make([]*model.IntegrationJob, claimers)
		errs := make([]error, claimers)

		var wg sync.WaitGroup
		for i := 0; i < claimers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				claimed[i], errs[i] = repo.Claim(ctx, res.ID)
			}(i)
		}
		wg.Wait()

		winners := 0
		for i := 0; i < claimers; i++ {
			require.NoError(t, errs[i])
			if claimed[i] != nil {
				winners++
				assert.Equal(t, model.JobStatusRunning, claimed[i].Status)
				require.NotNil(t, claimed[i].LockedAt)
			}
		}
		assert.Equal(t, 1, winners)
	})
}

// TestMarkFailure_RequiresRunning walks a job through failed attempts and
// checks that failure and success writes only land on running rows.
func TestMarkFailure_RequiresRunning(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
		clock := NewFixedTimeProvider(base)
		repo := NewJobRepo(db, RepoConfig{TimeProvider: clock})
		ctx := context.Background()

		res, err := repo.Enqueue(ctx, enqueueReq("ensure_folder:fail-1"))
		require.NoError(t, err)

		params := core.MarkFailureParams{
			JobID:      res.ID,
			ErrMsg:     "drive unavailable",
			RetryDelay: 30 * time.Second,
		}

		t.Run("pending job is not touched", func(t *testing.T) {
			ok, markErr := repo.MarkFailure(ctx, params)
			require.NoError(t, markErr)
			assert.False(t, ok)

			okSucceeded, succErr := repo.MarkSucceeded(ctx, res.ID)
			require.NoError(t, succErr)
			assert.False(t, okSucceeded)

			job, getErr := repo.GetByID(ctx, res.ID)
			require.NoError(t, getErr)
			assert.Equal(t, model.JobStatusPending, job.Status)
			assert.Zero(t, job.Attempts)
		})

		t.Run("running job is rescheduled with backoff", func(t *testing.T) {
			claimedJob, claimErr := repo.Claim(ctx, res.ID)
			require.NoError(t, claimErr)
			require.NotNil(t, claimedJob)

			ok, markErr := repo.MarkFailure(ctx, params)
			require.NoError(t, markErr)
			assert.True(t, ok)

			job, getErr := repo.GetByID(ctx, res.ID)
			require.NoError(t, getErr)
			assert.Equal(t, model.JobStatusPending, job.Status)
			assert.Equal(t, 1, job.Attempts)
			require.NotNil(t, job.LastError)
			assert.Equal(t, "drive unavailable", *job.LastError)
			assert.Nil(t, job.LockedAt)
			assert.True(t, job.NextAttemptAt.Equal(base.Add(30*time.Second)))
		})

		t.Run("rescheduled job is due only after the delay", func(t *testing.T) {
			due, dueErr := repo.DueJobs(ctx, 10)
			require.NoError(t, dueErr)
			assert.Empty(t, due)

			clock.AddTime(time.Minute)
			due, dueErr = repo.DueJobs(ctx, 10)
			require.NoError(t, dueErr)
			require.Len(t, due, 1)
			assert.Equal(t, res.ID, due[0].ID)
		})

		t.Run("final failure is terminal", func(t *testing.T) {
			claimedJob, claimErr := repo.Claim(ctx, res.ID)
			require.NoError(t, claimErr)
			require.NotNil(t, claimedJob)

			params.FinalFailure = true
			ok, markErr := repo.MarkFailure(ctx, params)
			require.NoError(t, markErr)
			assert.True(t, ok)

			job, getErr := repo.GetByID(ctx, res.ID)
			require.NoError(t, getErr)
			assert.Equal(t, model.JobStatusFailed, job.Status)
			assert.Equal(t, 2, job.Attempts)
			require.NotNil(t, job.CompletedAt)

			again, againErr := repo.Claim(ctx, res.ID)
			require.NoError(t, againErr)
			assert.Nil(t, again)
		})
	})
}

// TestRequeueStale_ReclaimsExpiredLocks requeues a job whose worker died
// mid-run while leaving a freshly claimed job alone.
func TestRequeueStale_ReclaimsExpiredLocks(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
		clock := NewFixedTimeProvider(base)
		repo := NewJobRepo(db, RepoConfig{TimeProvider: clock})
		ctx := context.Background()

		stale, err := repo.Enqueue(ctx, enqueueReq("ensure_folder:stale-1"))
		require.NoError(t, err)
		fresh, err := repo.Enqueue(ctx, enqueueReq("ensure_folder:fresh-1"))
		require.NoError(t, err)

		claimedStale, err := repo.Claim(ctx, stale.ID)
		require.NoError(t, err)
		require.NotNil(t, claimedStale)

		clock.AddTime(20 * time.Minute)
		claimedFresh, err := repo.Claim(ctx, fresh.ID)
		require.NoError(t, err)
		require.NotNil(t, claimedFresh)

		requeued, err := repo.RequeueStale(ctx, 15*time.Minute, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), requeued)

		staleJob, err := repo.GetByID(ctx, stale.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusPending, staleJob.Status)
		assert.Equal(t, 1, staleJob.Attempts)
		require.NotNil(t, staleJob.LastError)
		assert.Contains(t, *staleJob.LastError, "stale lock reclaimed")
		assert.Nil(t, staleJob.LockedAt)

		freshJob, err := repo.GetByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusRunning, freshJob.Status)
	})
}
