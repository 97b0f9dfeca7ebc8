// Package worker runs the asynchronous import pipeline
package worker

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"fjacquet/bank-ingest/cmd/root"
	"fjacquet/bank-ingest/internal/container"
	"fjacquet/bank-ingest/internal/jobs"
	"fjacquet/bank-ingest/internal/logging"

	"github.com/spf13/cobra"
)

// ShutdownTimeout bounds the wait for in-flight jobs on exit.
const ShutdownTimeout = 30 * time.Second

// Cmd represents the worker command
var Cmd = &cobra.Command{
	Use:   "worker",
	Short: "Process queued imports until interrupted",
	Long: `Start the job workers and poll the database for QUEUED imports, such as
those created with "ingest --enqueue". Deduplication and categorization run
as follow-on jobs of each import.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := root.GetContainer(ctx, container.WithAsyncQueue())
		if err != nil {
			return err
		}
		return Run(ctx, c)
	},
}

// Run starts the workers and polls until ctx is cancelled.
func Run(ctx context.Context, c *container.Container) error {
	// workers outlive ctx so StopWorkers can drain in-flight jobs
	if err := c.StartWorkers(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	cfg := c.GetConfig()
	c.GetLogger().Info("Worker started",
		logging.F("workers", cfg.Queue.Workers),
		logging.F("poll_interval", cfg.Queue.PollInterval.String()))

	if err := c.GetPoller().Run(ctx); err != nil {
		return err
	}

	c.GetLogger().Info("Worker stopping")
	stopCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := c.StopWorkers(stopCtx); err != nil {
		return err
	}

	failed, err := c.GetJobStore().ListJobs(stopCtx, jobs.Filter{Status: jobs.JobStatusFailed})
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		c.GetLogger().Warn("Jobs failed during this run", logging.F(logging.FieldCount, len(failed)))
	}
	return nil
}
