package importjobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/natserract/mkto/pkg/marketo"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Importer is the part of the Marketo client the tracker drives.
type Importer interface {
	ImportLeadsBatch(ctx context.Context, filePath string, opts marketo.ImportOptions) (*marketo.ImportStatus, error)
	WaitForImport(ctx context.Context, batchID int, poll marketo.PollConfig) (*marketo.ImportStatus, error)
	ImportLeadsFailures(ctx context.Context, batchID int) ([]byte, error)
	ImportLeadsWarnings(ctx context.Context, batchID int) ([]byte, error)
}

var _ Importer = (*marketo.Client)(nil)

// Tracker uploads lead files, waits for their batches and records every
// state change in a Store.
type Tracker struct {
	importer Importer
	store    Store
	logger   *zap.Logger
	poll     marketo.PollConfig
	now      func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithPollConfig sets how batch status is polled.
func WithPollConfig(poll marketo.PollConfig) TrackerOption {
	return func(t *Tracker) {
		t.poll = poll
	}
}

// NewTracker creates a Tracker that uploads through importer and records jobs in store.
func NewTracker(importer Importer, store Store, logger *zap.Logger, opts ...TrackerOption) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		importer: importer,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run imports filePath and blocks until the batch finishes. The returned
// job reflects the last recorded state even when err is non-nil.
func (t *Tracker) Run(ctx context.Context, filePath string, opts marketo.ImportOptions) (*Job, error) {
	job, err := t.Submit(ctx, filePath, opts)
	if err != nil {
		return job, err
	}
	return t.Wait(ctx, job)
}

// Submit records a new job and uploads its file. It returns once Marketo
// has accepted the batch.
func (t *Tracker) Submit(ctx context.Context, filePath string, opts marketo.ImportOptions) (*Job, error) {
	now := t.now()
	format := opts.Format
	if format == "" {
		format = "csv"
	}
	job := &Job{
		ID:          uuid.New(),
		FilePath:    filePath,
		Format:      format,
		LookupField: opts.LookupField,
		ListID:      opts.ListID,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.store.Create(ctx, job); err != nil {
		t.logger.Error("Failed to record import job", zap.String("job_id", job.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to record import job: %w", err)
	}

	t.logger.Info("Submitting import job",
		zap.String("job_id", job.ID.String()),
		zap.String("file", filePath))

	status, err := t.importer.ImportLeadsBatch(ctx, filePath, opts)
	if err != nil {
		job.Status = StatusUploadFailed
		job.Message = err.Error()
		job.UpdatedAt = t.now()
		finished := job.UpdatedAt
		job.FinishedAt = &finished
		t.logger.Error("Import upload failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		if updateErr := t.store.Update(ctx, job); updateErr != nil {
			return job, errors.Join(err, fmt.Errorf("failed to update import job: %w", updateErr))
		}
		return job, err
	}

	job.apply(status, t.now())
	if err := t.store.Update(ctx, job); err != nil {
		return job, fmt.Errorf("failed to update import job: %w", err)
	}
	t.logger.Info("Import batch accepted",
		zap.String("job_id", job.ID.String()),
		zap.Int("batch_id", job.BatchID),
		zap.String("status", job.Status))
	return job, nil
}

// Wait polls the job's batch until it finishes and records the outcome.
// A failed batch is recorded and reported with marketo.ErrImportFailed.
func (t *Tracker) Wait(ctx context.Context, job *Job) (*Job, error) {
	if job.Done() {
		return job, nil
	}
	if job.BatchID == 0 {
		return job, fmt.Errorf("import job %s has no batch", job.ID)
	}

	status, waitErr := t.importer.WaitForImport(ctx, job.BatchID, t.poll)
	if status == nil {
		t.logger.Error("Import job did not finish",
			zap.String("job_id", job.ID.String()),
			zap.Int("batch_id", job.BatchID),
			zap.Error(waitErr))
		return job, waitErr
	}

	job.apply(status, t.now())
	if err := t.store.Update(ctx, job); err != nil {
		return job, errors.Join(waitErr, fmt.Errorf("failed to update import job: %w", err))
	}

	t.logger.Info("Import job finished",
		zap.String("job_id", job.ID.String()),
		zap.Int("batch_id", job.BatchID),
		zap.String("status", job.Status),
		zap.Int("leads_processed", job.LeadsProcessed),
		zap.Int("rows_failed", job.RowsFailed))
	return job, waitErr
}

// Resume waits for every unfinished job in the store, at most
// maxConcurrency at a time (zero means 4). It returns the jobs it polled
// and the joined errors of those that did not complete.
func (t *Tracker) Resume(ctx context.Context, maxConcurrency int) ([]*Job, error) {
	jobs, err := t.store.ListUnfinished(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unfinished import jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	t.logger.Info("Resuming import jobs", zap.Int("count", len(jobs)))

	p := pool.New().WithMaxGoroutines(maxConcurrency).WithErrors()
	for _, job := range jobs {
		job := job
		p.Go(func() error {
			_, err := t.Wait(ctx, job)
			if err != nil {
				return fmt.Errorf("import job %s: %w", job.ID, err)
			}
			return nil
		})
	}
	return jobs, p.Wait()
}

// Failures returns the failed rows of a finished job as CSV.
func (t *Tracker) Failures(ctx context.Context, id uuid.UUID) ([]byte, error) {
	job, err := t.batchJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.RowsFailed == 0 {
		return nil, nil
	}
	return t.importer.ImportLeadsFailures(ctx, job.BatchID)
}

// Warnings returns the rows of a finished job that imported with
// warnings, as CSV.
func (t *Tracker) Warnings(ctx context.Context, id uuid.UUID) ([]byte, error) {
	job, err := t.batchJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.RowsWithWarning == 0 {
		return nil, nil
	}
	return t.importer.ImportLeadsWarnings(ctx, job.BatchID)
}

func (t *Tracker) batchJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	job, err := t.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.BatchID == 0 {
		return nil, fmt.Errorf("import job %s has no batch", id)
	}
	return job, nil
}
