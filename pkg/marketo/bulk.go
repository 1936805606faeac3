package marketo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

var (
	// ErrImportFailed is returned by WaitForImport when the batch ends in
	// the Failed state.
	ErrImportFailed = errors.New("import batch failed")

	errImportPending = errors.New("import batch still running")
)

// PollConfig controls how WaitForImport polls batch status.
type PollConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

func (p PollConfig) withDefaults() PollConfig {
	if p.InitialInterval <= 0 {
		p.InitialInterval = 5 * time.Second
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = time.Minute
	}
	if p.MaxElapsed <= 0 {
		p.MaxElapsed = time.Hour
	}
	return p
}

// ImportLeads uploads a lead file to the bulk API. The file is checked
// before anything is sent: an unreadable path fails with a BuildError.
func (c *Client) ImportLeads(ctx context.Context, filePath string, opts ImportOptions) (*Result, error) {
	format := opts.Format
	if format == "" {
		format = "csv"
	}
	args := Args{"file": filePath, "format": format}
	withOptional(args, "lookupField", opts.LookupField)
	withOptional(args, "listId", opts.ListID)
	withOptional(args, "partitionName", opts.PartitionName)

	c.logger.Info("Importing leads",
		zap.String("file", filePath),
		zap.String("format", format))
	return c.Execute(ctx, OpImportLeads, args)
}

// ImportLeadsBatch uploads a lead file and returns the created batch.
func (c *Client) ImportLeadsBatch(ctx context.Context, filePath string, opts ImportOptions) (*ImportStatus, error) {
	res, err := c.ImportLeads(ctx, filePath, opts)
	if err != nil {
		return nil, err
	}
	return firstImportStatus(res)
}

// ImportLeadsStatus returns the state of an import batch.
func (c *Client) ImportLeadsStatus(ctx context.Context, batchID int) (*ImportStatus, error) {
	res, err := c.Execute(ctx, OpImportLeadsStatus, Args{"batchId": batchID})
	if err != nil {
		return nil, err
	}
	return firstImportStatus(res)
}

// ImportLeadsFailures returns the failed rows of a batch as the CSV the
// bulk API serves.
func (c *Client) ImportLeadsFailures(ctx context.Context, batchID int) ([]byte, error) {
	return c.ExecuteRaw(ctx, OpImportLeadsFailures, Args{"batchId": batchID})
}

// ImportLeadsWarnings returns the rows of a batch that imported with
// warnings, as CSV.
func (c *Client) ImportLeadsWarnings(ctx context.Context, batchID int) ([]byte, error) {
	return c.ExecuteRaw(ctx, OpImportLeadsWarnings, Args{"batchId": batchID})
}

// WaitForImport polls a batch with exponential backoff until it is
// Complete or Failed. A Failed batch is returned with ErrImportFailed.
func (c *Client) WaitForImport(ctx context.Context, batchID int, poll PollConfig) (*ImportStatus, error) {
	poll = poll.withDefaults()

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = poll.InitialInterval
	expBackoff.MaxInterval = poll.MaxInterval
	expBackoff.Reset()

	operation := func() (*ImportStatus, error) {
		status, err := c.ImportLeadsStatus(ctx, batchID)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if !status.Done() {
			c.logger.Debug("Import batch not finished",
				zap.Int("batch_id", batchID),
				zap.String("status", status.Status),
				zap.Int("leads_processed", status.NumOfLeadsProcessed))
			return nil, errImportPending
		}
		return status, nil
	}

	status, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxElapsedTime(poll.MaxElapsed))
	if err != nil {
		c.logger.Error("Waiting for import batch failed", zap.Int("batch_id", batchID), zap.Error(err))
		return nil, fmt.Errorf("wait for import batch %d: %w", batchID, err)
	}

	if status.Status == ImportFailed {
		c.logger.Error("Import batch failed",
			zap.Int("batch_id", batchID),
			zap.String("message", status.Message))
		return status, fmt.Errorf("%w: batch %d: %s", ErrImportFailed, batchID, status.Message)
	}

	c.logger.Info("Import batch complete",
		zap.Int("batch_id", batchID),
		zap.Int("leads_processed", status.NumOfLeadsProcessed),
		zap.Int("rows_failed", status.NumOfRowsFailed),
		zap.Int("rows_with_warning", status.NumOfRowsWithWarning))
	return status, nil
}

func firstImportStatus(res *Result) (*ImportStatus, error) {
	var statuses []ImportStatus
	if err := res.Decode(&statuses); err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, fmt.Errorf("%s returned no batch", res.Operation)
	}
	return &statuses[0], nil
}
