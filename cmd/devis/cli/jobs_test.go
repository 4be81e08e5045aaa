package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joulek/Backend-mtr/jobs"
)

type stubEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (s *stubEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{ID: "t-1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func (s *stubEnqueuer) Close() error { return nil }

type stubInspector struct {
	info      *asynq.QueueInfo
	scheduled []*asynq.TaskInfo
}

func (s *stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, nil }

func (s *stubInspector) ListScheduledTasks(string, ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	return s.scheduled, nil
}

func (s *stubInspector) Close() error { return nil }

func TestTriggerBuildsTasks(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		name    string
		args    []string
		payload string
	}{
		{name: jobs.TaskStorageCleanup},
		{name: jobs.TaskQuotationIssued, args: []string{id.String(), "--email"},
			payload: `{"quotation_id":"` + id.String() + `","send_email":true}`},
		{name: jobs.TaskSpecRequestSubmitted, args: []string{"torsion", id.String()},
			payload: `{"kind":"torsion","request_id":"` + id.String() + `"}`},
		{name: jobs.TaskReclamationFiled, args: []string{id.String()},
			payload: `{"reclamation_id":"` + id.String() + `"}`},
		{name: jobs.TaskOrderPlaced, args: []string{id.String()},
			payload: `{"order_id":"` + id.String() + `"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			queue := &stubEnqueuer{}
			c := &JobsCLI{client: queue}
			info, err := c.Trigger(context.Background(), tc.name, tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.name, info.Type)
			require.Len(t, queue.tasks, 1)
			if tc.payload == "" {
				assert.Empty(t, queue.tasks[0].Payload())
			} else {
				assert.JSONEq(t, tc.payload, string(queue.tasks[0].Payload()))
			}
		})
	}
}

func TestTriggerRejectsBadArguments(t *testing.T) {
	c := &JobsCLI{client: &stubEnqueuer{}}
	ctx := context.Background()

	_, err := c.Trigger(ctx, "ledger:close", nil)
	assert.ErrorContains(t, err, "unsupported job")
	_, err = c.Trigger(ctx, jobs.TaskOrderPlaced, nil)
	assert.ErrorContains(t, err, "needs a record id")
	_, err = c.Trigger(ctx, jobs.TaskOrderPlaced, []string{"42"})
	assert.ErrorContains(t, err, "invalid id")
	_, err = c.Trigger(ctx, jobs.TaskSpecRequestSubmitted, []string{"helical", uuid.NewString()})
	assert.Error(t, err)

	var nilCLI *JobsCLI
	_, err = nilCLI.Trigger(ctx, jobs.TaskStorageCleanup, nil)
	assert.Error(t, err)
}

func TestJobsCommand(t *testing.T) {
	next := time.Date(2025, 3, 15, 3, 0, 0, 0, time.UTC)
	c := &JobsCLI{
		client: &stubEnqueuer{},
		inspector: &stubInspector{
			info:      &asynq.QueueInfo{Queue: jobs.QueueDefault, Pending: 3, Retry: 1, Archived: 2},
			scheduled: []*asynq.TaskInfo{{ID: "s-1", Type: jobs.TaskStorageCleanup, NextProcessAt: next}},
		},
	}
	ctx := context.Background()

	t.Run("trigger", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := c.JobsCommand(ctx, []string{"trigger", jobs.TaskStorageCleanup}, JobsOptions{Stdout: &stdout, Stderr: &stderr})
		assert.Equal(t, 0, code)
		assert.Equal(t, "enqueued storage:cleanup id=t-1 queue=default\n", stdout.String())
	})

	t.Run("stats json", func(t *testing.T) {
		var stdout bytes.Buffer
		code := c.JobsCommand(ctx, []string{"stats", "--json"}, JobsOptions{Stdout: &stdout})
		require.Equal(t, 0, code)
		var stats QueueStats
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &stats))
		assert.Equal(t, QueueStats{Queue: "default", Pending: 3, Retry: 1, Archived: 2}, stats)
	})

	t.Run("scheduled", func(t *testing.T) {
		var stdout bytes.Buffer
		code := c.JobsCommand(ctx, []string{"scheduled", "--size", "5"}, JobsOptions{Stdout: &stdout})
		assert.Equal(t, 0, code)
		assert.Equal(t, "s-1\tstorage:cleanup\t2025-03-15T03:00:00Z\n", stdout.String())
	})

	t.Run("usage", func(t *testing.T) {
		var stderr bytes.Buffer
		assert.Equal(t, 2, c.JobsCommand(ctx, nil, JobsOptions{Stderr: &stderr}))
		assert.Equal(t, 2, c.JobsCommand(ctx, []string{"purge"}, JobsOptions{Stderr: &stderr}))
		assert.Equal(t, 2, c.JobsCommand(ctx, []string{"trigger"}, JobsOptions{Stderr: &stderr}))
	})

	t.Run("enqueue failure", func(t *testing.T) {
		failing := &JobsCLI{client: &stubEnqueuer{err: errors.New("redis down")}}
		var stderr bytes.Buffer
		code := failing.JobsCommand(ctx, []string{"trigger", jobs.TaskStorageCleanup}, JobsOptions{Stderr: &stderr})
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr.String(), "redis down")
	})
}
