package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/natserract/mkto/pkg/importjobs"
	"github.com/natserract/mkto/pkg/marketo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	format        string
	lookupField   string
	listID        int
	partitionName string
	concurrency   int
	warnings      bool
)

var runCmd = &cobra.Command{
	Use:   "run <file>...",
	Short: "Upload lead files and wait for their batches",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := marketo.ImportOptions{
			Format:        format,
			LookupField:   lookupField,
			ListID:        listID,
			PartitionName: partitionName,
		}

		var failed int
		for _, path := range args {
			job, err := tracker.Run(cmd.Context(), path, opts)
			if job != nil {
				printJob(job)
			}
			if err != nil {
				failed++
				logger.Error("Import failed", zap.String("file", path), zap.Error(err))
				fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d imports failed", failed, len(args))
		}
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Wait for imports left unfinished by an earlier run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobs, err := tracker.Resume(cmd.Context(), concurrency)
		for _, job := range jobs {
			printJob(job)
		}
		if len(jobs) == 0 && err == nil {
			fmt.Println("No unfinished import jobs")
		}
		return err
	},
}

var failuresCmd = &cobra.Command{
	Use:   "failures <job-id>",
	Short: "Print the failed rows of an import job as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid job id %q: %w", args[0], err)
		}

		var body []byte
		if warnings {
			body, err = tracker.Warnings(cmd.Context(), id)
		} else {
			body, err = tracker.Failures(cmd.Context(), id)
		}
		if errors.Is(err, importjobs.ErrNotFound) {
			return fmt.Errorf("no import job %s", id)
		}
		if err != nil {
			return err
		}
		if len(body) == 0 {
			fmt.Fprintln(os.Stderr, "No rows")
			return nil
		}
		_, err = os.Stdout.Write(body)
		return err
	},
}

func init() {
	runCmd.Flags().StringVar(&format, "format", "csv", "file format: csv, tsv or ssv")
	runCmd.Flags().StringVar(&lookupField, "lookup-field", "", "field used to dedupe leads (default email)")
	runCmd.Flags().IntVar(&listID, "list-id", 0, "static list to add imported leads to")
	runCmd.Flags().StringVar(&partitionName, "partition", "", "lead partition to import into")

	resumeCmd.Flags().IntVar(&concurrency, "concurrency", 4, "batches to poll at once")

	failuresCmd.Flags().BoolVar(&warnings, "warnings", false, "print rows imported with warnings instead")
}

func printJob(job *importjobs.Job) {
	fmt.Printf("Job %s\n", job.ID)
	fmt.Printf("  File: %s\n", job.FilePath)
	if job.BatchID != 0 {
		fmt.Printf("  Batch: %d\n", job.BatchID)
	}
	fmt.Printf("  Status: %s\n", job.Status)
	fmt.Printf("  Leads processed: %d, failed: %d, with warnings: %d\n",
		job.LeadsProcessed, job.RowsFailed, job.RowsWithWarning)
	if job.Message != "" {
		fmt.Printf("  Message: %s\n", job.Message)
	}
}
