// Package ingest handles the upload and import of statement files
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"fjacquet/bank-ingest/cmd/common"
	"fjacquet/bank-ingest/cmd/root"
	"fjacquet/bank-ingest/internal/fileutils"
	"fjacquet/bank-ingest/internal/importer"
	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"
)

var enqueueOnly bool

// Cmd represents the ingest command
var Cmd = &cobra.Command{
	Use:   "ingest FILE|DIR...",
	Short: "Import statement files",
	Long: `Register each statement file, queue it and, unless --enqueue is given,
run the import pipeline on it: detection, parsing, deduplication and
categorization. Directories are searched for .csv and .txt files.

Example:
  bank-ingest ingest --user alice exports/otp-2024-01.csv exports/revolut/`,
	Args: cobra.MinimumNArgs(1),
	RunE: ingestFunc,
}

func init() {
	Cmd.Flags().BoolVar(&enqueueOnly, "enqueue", false, "only queue the imports for a worker")
}

func ingestFunc(cmd *cobra.Command, args []string) error {
	userID, err := root.RequireUser()
	if err != nil {
		return err
	}
	files, err := fileutils.ExpandInputs(args, fileutils.StatementExtensions)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no statement files found")
	}

	c, err := root.GetContainer(cmd.Context())
	if err != nil {
		return err
	}

	imports, failures := IngestFiles(cmd.Context(), c.GetImporter(), c.GetStore(), userID, files,
		root.AppConfig.Import.Concurrency, !enqueueOnly, root.Log)

	out := cmd.OutOrStdout()
	common.Header(out, "Import summary")
	common.PrintImports(out, imports)
	for _, f := range failures {
		common.Error(out, "%v", f)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d files could not be imported", len(failures), len(files))
	}
	return nil
}

// ImportStore reads imports back and queues them for a separate worker.
type ImportStore interface {
	GetImport(ctx context.Context, id uuid.UUID) (*models.FileImport, error)
	QueueImport(ctx context.Context, id uuid.UUID) (bool, error)
}

// IngestFiles registers and enqueues each file with at most concurrency
// files in flight. With process set and an inline queue, each import has
// finished by the time its entry is returned. Results keep input order.
func IngestFiles(ctx context.Context, imp *importer.Orchestrator, imports ImportStore, userID string, files []string, concurrency int, process bool, logger logging.Logger) ([]models.FileImport, []error) {
	if concurrency < 1 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  = make([]*models.FileImport, len(files))
		failures []error
	)
	for i, file := range files {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failures = append(failures, fmt.Errorf("%s: %w", file, err))
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(i int, file string) {
			defer wg.Done()
			defer sem.Release(1)

			got, err := ingestOne(ctx, imp, imports, userID, file, process)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.WithError(err).Warn("Import failed", logging.F(logging.FieldFile, file))
				failures = append(failures, fmt.Errorf("%s: %w", file, err))
				return
			}
			results[i] = got
		}(i, file)
	}
	wg.Wait()

	out := make([]models.FileImport, 0, len(files))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, failures
}

func ingestOne(ctx context.Context, imp *importer.Orchestrator, imports ImportStore, userID, file string, process bool) (*models.FileImport, error) {
	data, err := readFile(file)
	if err != nil {
		return nil, err
	}
	registered, err := imp.Register(ctx, userID, file, data)
	if err != nil {
		return nil, err
	}
	if process {
		err = imp.Enqueue(ctx, registered.ID)
	} else {
		// left QUEUED for the worker's poller
		_, err = imports.QueueImport(ctx, registered.ID)
	}
	if err != nil {
		return nil, err
	}
	return imports.GetImport(ctx, registered.ID)
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path) // #nosec G304 -- paths come from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
