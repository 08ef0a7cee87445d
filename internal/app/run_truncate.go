package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/dev-tams/gluekit/internal/config"
	"github.com/dev-tams/gluekit/internal/notify"
	"github.com/dev-tams/gluekit/internal/storage"
	s3store "github.com/dev-tams/gluekit/internal/storage/s3"
)

const notificationTimeout = 5 * time.Second

// swapped in tests
var openStores = storage.FromConfigByNames

type TruncateResult struct {
	Job      string
	Status   string
	Location string
	Batches  int
	Deleted  int
	Failed   int
	Duration time.Duration
	Err      error
}

func RunTruncate(ctx context.Context, cfg *config.Config, jobNames []string, log zerolog.Logger) error {
	_, err := RunTruncateWithResults(ctx, cfg, jobNames, log)
	return err
}

// RunTruncateWithResults runs the named truncate jobs (all of them when
// jobNames is empty) in config order and stops at the first job that errors.
// Per-key delete failures reported by S3 are logged and counted, not fatal.
func RunTruncateWithResults(ctx context.Context, cfg *config.Config, jobNames []string, log zerolog.Logger) ([]TruncateResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jobs, err := selectJobs(cfg, jobNames)
	if err != nil {
		return nil, err
	}

	usedStorage := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		usedStorage[job.Storage] = struct{}{}
	}

	stores, err := openStores(ctx, cfg, usedStorage)
	if err != nil {
		return nil, err
	}

	dispatcher, err := notify.NewDispatcher(cfg.Notifications)
	if err != nil {
		return nil, err
	}

	results := make([]TruncateResult, 0, len(jobs))
	for _, job := range jobs {
		started := time.Now().UTC()
		jobLog := log.With().Str("job", job.Name).Logger()

		st, ok := stores[job.Storage]
		if !ok {
			res := TruncateResult{
				Job:      job.Name,
				Status:   notify.StatusFailure,
				Duration: time.Since(started),
				Err:      fmt.Errorf("job %s: storage %q not found", job.Name, job.Storage),
			}
			results = append(results, res)
			notifyResult(ctx, dispatcher, res, jobLog)
			return results, res.Err
		}

		loc := st.Location(job.Prefix)
		tally := &batchTally{log: jobLog}
		opts := []s3store.TruncateOption{s3store.WithResponseHook(tally.observe)}
		if job.BatchSize > 0 {
			opts = append(opts, s3store.WithBatchSize(job.BatchSize))
		}

		jobLog.Info().Str("location", loc).Int("batch_size", job.BatchSize).Msg("truncate started")

		err := st.Truncate(ctx, job.Prefix, opts...)
		res := TruncateResult{
			Job:      job.Name,
			Status:   notify.StatusSuccess,
			Location: loc,
			Batches:  tally.batches,
			Deleted:  tally.deleted,
			Failed:   tally.failed,
			Duration: time.Since(started),
		}

		if err != nil {
			res.Status = notify.StatusFailure
			res.Err = fmt.Errorf("truncate %s: %w", job.Name, err)

			ev := jobLog.Error().Err(err).Int("batches_done", tally.batches)
			var apiErr smithy.APIError
			if errors.As(err, &apiErr) {
				ev = ev.Str("code", apiErr.ErrorCode())
			}
			ev.Msg("truncate failed")

			results = append(results, res)
			notifyResult(ctx, dispatcher, res, jobLog)
			return results, res.Err
		}

		results = append(results, res)
		jobLog.Info().
			Str("location", loc).
			Int("batches", res.Batches).
			Int("deleted", res.Deleted).
			Int("failed", res.Failed).
			Dur("duration", res.Duration.Round(time.Millisecond)).
			Msg("truncate OK")
		notifyResult(ctx, dispatcher, res, jobLog)
	}

	return results, nil
}

func selectJobs(cfg *config.Config, names []string) ([]config.TruncateJobConfig, error) {
	if len(names) == 0 {
		if len(cfg.Truncate) == 0 {
			return nil, fmt.Errorf("no truncate jobs configured")
		}
		return cfg.Truncate, nil
	}

	jobs := make([]config.TruncateJobConfig, 0, len(names))
	for _, name := range names {
		job, ok := cfg.Job(name)
		if !ok {
			return nil, fmt.Errorf("truncate job %q not found in config", name)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// batchTally is the response hook for one job.
type batchTally struct {
	log     zerolog.Logger
	batches int
	deleted int
	failed  int
}

func (t *batchTally) observe(out *s3.DeleteObjectsOutput) error {
	t.batches++
	if out == nil {
		return nil
	}
	t.deleted += len(out.Deleted)
	t.failed += len(out.Errors)

	for _, e := range out.Errors {
		t.log.Warn().
			Str("key", aws.ToString(e.Key)).
			Str("code", aws.ToString(e.Code)).
			Str("message", aws.ToString(e.Message)).
			Msg("delete failed for key")
	}
	t.log.Debug().
		Int("batch", t.batches).
		Int("deleted", len(out.Deleted)).
		Int("failed", len(out.Errors)).
		Msg("batch deleted")
	return nil
}

func notifyResult(ctx context.Context, dispatcher *notify.Dispatcher, res TruncateResult, log zerolog.Logger) {
	errMsg := ""
	if res.Err != nil {
		errMsg = res.Err.Error()
	}

	event := notify.Event{
		Job:      res.Job,
		Status:   res.Status,
		Location: res.Location,
		Batches:  res.Batches,
		Deleted:  res.Deleted,
		Failed:   res.Failed,
		Duration: res.Duration.Round(time.Millisecond).String(),
		Error:    errMsg,
	}

	notifyCtx, cancel := notificationContext(ctx)
	defer cancel()

	if err := dispatcher.Notify(notifyCtx, event); err != nil {
		log.Warn().Err(err).Str("status", res.Status).Msg("notification failed")
	}
}

func notificationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), notificationTimeout)
	}
	return context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
}
