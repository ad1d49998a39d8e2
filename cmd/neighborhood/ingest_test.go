package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/neighborhood/internal/models"
)

func testCommand() (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	return cmd, out
}

func TestWaitForJobs_ReportsCompletionAndFailure(t *testing.T) {
	cmd, out := testCommand()
	updates := make(chan *models.IngestionJob, 8)
	updates <- &models.IngestionJob{ID: "other", Status: models.JobStatusFailed}
	updates <- &models.IngestionJob{ID: "job_a", Status: models.JobStatusRunning, Progress: 25}
	updates <- &models.IngestionJob{ID: "job_a", Status: models.JobStatusCompleted, Progress: 100, ProcessedItems: 4, TotalItems: 4}
	updates <- &models.IngestionJob{ID: "job_b", Status: models.JobStatusFailed, Error: "source unavailable"}

	err := waitForJobs(context.Background(), cmd, updates, map[string]bool{"job_a": true, "job_b": true})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 ingestion job(s) failed")
	assert.Contains(t, out.String(), "job_a running 25%")
	assert.Contains(t, out.String(), "job_a completed: 4/4 items")
	assert.Contains(t, out.String(), "job_b failed: source unavailable")
	assert.NotContains(t, out.String(), "other")
}

func TestWaitForJobs_StopsOnCancel(t *testing.T) {
	cmd, _ := testCommand()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := waitForJobs(ctx, cmd, make(chan *models.IngestionJob), map[string]bool{"job_a": true})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitForJobs_ThrottlesProgressLines(t *testing.T) {
	cmd, out := testCommand()
	updates := make(chan *models.IngestionJob, 8)
	for _, p := range []float64{21, 22, 29, 31} {
		updates <- &models.IngestionJob{ID: "job_a", Status: models.JobStatusRunning, Progress: p}
	}
	updates <- &models.IngestionJob{ID: "job_a", Status: models.JobStatusCompleted, Progress: 100}

	require.NoError(t, waitForJobs(context.Background(), cmd, updates, map[string]bool{"job_a": true}))
	assert.Contains(t, out.String(), "job_a running 21%")
	assert.NotContains(t, out.String(), "22%")
	assert.Contains(t, out.String(), "job_a running 31%")
}
