package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/natserract/mkto/pkg/importjobs"
	"go.uber.org/zap"
)

const jobColumns = `id, file_path, format, lookup_field, list_id, batch_id, status,
	leads_processed, rows_failed, rows_with_warning, message,
	created_at, updated_at, finished_at`

// JobStore is an importjobs.Store backed by the import_jobs table.
type JobStore struct {
	db     *DB
	logger *zap.Logger
}

var _ importjobs.Store = (*JobStore)(nil)

// NewJobStore creates a job store on db. Call DB.InitSchema first.
func NewJobStore(db *DB, logger *zap.Logger) *JobStore {
	return &JobStore{db: db, logger: logger}
}

// Create inserts job. A duplicate ID is reported as an error.
func (s *JobStore) Create(ctx context.Context, job *importjobs.Job) error {
	_, err := s.db.Pool().Exec(ctx,
		`INSERT INTO import_jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		jobArgs(job)...)
	if err != nil {
		if isUniqueConstraintViolation(err) {
			return fmt.Errorf("import job %s already exists: %w", job.ID, err)
		}
		s.logger.Error("Failed to create import job", zap.String("job_id", job.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to create import job %s: %w", job.ID, err)
	}
	s.logger.Debug("Created import job", zap.String("job_id", job.ID.String()))
	return nil
}

// Update overwrites the row for job, or returns importjobs.ErrNotFound.
func (s *JobStore) Update(ctx context.Context, job *importjobs.Job) error {
	tag, err := s.db.Pool().Exec(ctx,
		`UPDATE import_jobs SET
			file_path = $2, format = $3, lookup_field = $4, list_id = $5, batch_id = $6,
			status = $7, leads_processed = $8, rows_failed = $9, rows_with_warning = $10,
			message = $11, created_at = $12, updated_at = $13, finished_at = $14
		WHERE id = $1`,
		jobArgs(job)...)
	if err != nil {
		s.logger.Error("Failed to update import job", zap.String("job_id", job.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to update import job %s: %w", job.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return importjobs.ErrNotFound
	}
	s.logger.Debug("Updated import job",
		zap.String("job_id", job.ID.String()),
		zap.String("status", job.Status))
	return nil
}

// Get loads the job with id, or returns importjobs.ErrNotFound.
func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*importjobs.Job, error) {
	row := s.db.Pool().QueryRow(ctx, `SELECT `+jobColumns+` FROM import_jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, importjobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import job %s: %w", id, err)
	}
	return job, nil
}

// ListUnfinished returns uploaded jobs that have not finished, oldest first.
func (s *JobStore) ListUnfinished(ctx context.Context) ([]*importjobs.Job, error) {
	rows, err := s.db.Pool().Query(ctx,
		`SELECT `+jobColumns+` FROM import_jobs
		WHERE finished_at IS NULL AND batch_id IS NOT NULL
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unfinished import jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*importjobs.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list unfinished import jobs: %w", err)
	}
	return jobs, nil
}

func jobArgs(job *importjobs.Job) []any {
	finishedAt := pgtype.Timestamptz{}
	if job.FinishedAt != nil {
		finishedAt = pgtype.Timestamptz{Time: *job.FinishedAt, Valid: true}
	}
	return []any{
		job.ID,
		job.FilePath,
		job.Format,
		pgtype.Text{String: job.LookupField, Valid: job.LookupField != ""},
		pgtype.Int4{Int32: int32(job.ListID), Valid: job.ListID != 0},
		pgtype.Int4{Int32: int32(job.BatchID), Valid: job.BatchID != 0},
		job.Status,
		job.LeadsProcessed,
		job.RowsFailed,
		job.RowsWithWarning,
		pgtype.Text{String: job.Message, Valid: job.Message != ""},
		pgtype.Timestamptz{Time: job.CreatedAt, Valid: true},
		pgtype.Timestamptz{Time: job.UpdatedAt, Valid: true},
		finishedAt,
	}
}

func scanJob(row pgx.Row) (*importjobs.Job, error) {
	var (
		job         importjobs.Job
		lookupField pgtype.Text
		listID      pgtype.Int4
		batchID     pgtype.Int4
		message     pgtype.Text
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
		finishedAt  pgtype.Timestamptz
	)
	err := row.Scan(
		&job.ID,
		&job.FilePath,
		&job.Format,
		&lookupField,
		&listID,
		&batchID,
		&job.Status,
		&job.LeadsProcessed,
		&job.RowsFailed,
		&job.RowsWithWarning,
		&message,
		&createdAt,
		&updatedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	job.LookupField = lookupField.String
	job.ListID = int(listID.Int32)
	job.BatchID = int(batchID.Int32)
	job.Message = message.String
	job.CreatedAt = createdAt.Time
	job.UpdatedAt = updatedAt.Time
	if finishedAt.Valid {
		t := finishedAt.Time
		job.FinishedAt = &t
	}
	return &job, nil
}

// isUniqueConstraintViolation checks for pgx error code 23505.
func isUniqueConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
