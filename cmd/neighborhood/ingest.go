package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/neighborhood/internal/interfaces"
	"github.com/ternarybob/neighborhood/internal/models"
)

var ingestAll bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <project-id> [source-id]",
	Short: "Ingest a source and wait for it to finish",
	Long: `Submits an ingestion job for one source (or every enabled source with --all)
and prints progress until each job completes or fails.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runIngest,
}

var uploadCmd = &cobra.Command{
	Use:   "upload <project-id> <file.pdf>",
	Short: "Upload a local PDF into a project and index it",
	Args:  cobra.ExactArgs(2),
	RunE:  runUpload,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestAll, "all", false, "Ingest every enabled source of the project")
	ingestCmd.AddCommand(uploadCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if !ingestAll && len(args) < 2 {
		return fmt.Errorf("source id required (or use --all)")
	}

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	project, err := application.ProjectService.GetProject(ctx, args[0])
	if err != nil {
		return err
	}

	var sourceIDs []string
	if ingestAll {
		for _, source := range project.EnabledSources() {
			sourceIDs = append(sourceIDs, source.ID)
		}
	} else {
		sourceIDs = []string{args[1]}
	}
	if len(sourceIDs) == 0 {
		cmd.Println("No enabled sources to ingest")
		return nil
	}

	updates, unsubscribe := watchJobs(application.Ingestion)
	defer unsubscribe()

	pending := make(map[string]bool)
	for _, sourceID := range sourceIDs {
		job, err := application.Ingestion.Submit(ctx, project.ProjectID, sourceID)
		if err != nil {
			return fmt.Errorf("failed to submit %s: %w", sourceID, err)
		}
		pending[job.ID] = true
		cmd.Printf("Submitted %s (%s)\n", job.ID, sourceID)
	}

	return waitForJobs(ctx, cmd, updates, pending)
}

func runUpload(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	file, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[1], err)
	}
	defer file.Close()

	filename := filepath.Base(args[1])
	source, path, err := application.ProjectService.UploadDocument(ctx, args[0], filename, file, "", "")
	if err != nil {
		return err
	}

	updates, unsubscribe := watchJobs(application.Ingestion)
	defer unsubscribe()

	job, err := application.Ingestion.SubmitUpload(ctx, args[0], source.ID, path)
	if err != nil {
		return err
	}
	cmd.Printf("Uploaded %s as source %s, job %s\n", filename, source.ID, job.ID)

	return waitForJobs(ctx, cmd, updates, map[string]bool{job.ID: true})
}

// watchJobs subscribes before submission so no update is missed. Progress
// updates are dropped when the buffer is full; terminal updates always land.
func watchJobs(ingestion interfaces.IngestionService) (<-chan *models.IngestionJob, func()) {
	updates := make(chan *models.IngestionJob, 256)
	done := make(chan struct{})

	unsubscribe := ingestion.Subscribe(func(job *models.IngestionJob) {
		if job.IsTerminal() {
			select {
			case updates <- job:
			case <-done:
			}
			return
		}
		select {
		case updates <- job:
		default:
		}
	})

	return updates, func() {
		close(done)
		unsubscribe()
	}
}

func waitForJobs(ctx context.Context, cmd *cobra.Command, updates <-chan *models.IngestionJob, pending map[string]bool) error {
	failed := 0
	lastProgress := make(map[string]int)

	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-updates:
			if !pending[job.ID] {
				continue
			}

			switch job.Status {
			case models.JobStatusCompleted:
				delete(pending, job.ID)
				cmd.Printf("%s completed: %d/%d items", job.ID, job.ProcessedItems, job.TotalItems)
				if job.Note != "" {
					cmd.Printf(" (%s)", job.Note)
				}
				cmd.Println()
			case models.JobStatusFailed:
				delete(pending, job.ID)
				failed++
				cmd.Printf("%s failed: %s\n", job.ID, job.Error)
			default:
				// Print every tenth percent
				step := int(job.Progress) / 10
				if step != lastProgress[job.ID] {
					lastProgress[job.ID] = step
					cmd.Printf("%s %s %.0f%%\n", job.ID, job.Status, job.Progress)
				}
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d ingestion job(s) failed", failed)
	}
	return nil
}
