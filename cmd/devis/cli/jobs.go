package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/joulek/Backend-mtr/internal/specrequests"
	"github.com/joulek/Backend-mtr/jobs"
)

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type queueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	ListScheduledTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	Close() error
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    taskEnqueuer
	inspector queueInspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	if redisAddr == "" {
		return nil, errors.New("jobs cli: redis address required")
	}
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: redisAddr})
	return &JobsCLI{client: client, inspector: inspector}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a job by name. Record jobs take the record id as first argument;
// specrequest:submitted takes the request kind then its id.
func (c *JobsCLI) Trigger(ctx context.Context, name string, args []string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	task, err := buildTask(name, args)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

func buildTask(name string, args []string) (*asynq.Task, error) {
	switch name {
	case jobs.TaskStorageCleanup:
		return jobs.NewStorageCleanupTask(), nil
	case jobs.TaskQuotationIssued:
		id, err := argID(name, args, 0)
		if err != nil {
			return nil, err
		}
		sendEmail := len(args) > 1 && args[1] == "--email"
		return jobs.NewQuotationIssuedTask(id, sendEmail)
	case jobs.TaskSpecRequestSubmitted:
		if len(args) < 1 {
			return nil, fmt.Errorf("jobs cli: %s needs <kind> <id>", name)
		}
		kind, err := specrequests.ParseKind(args[0])
		if err != nil {
			return nil, fmt.Errorf("jobs cli: %w", err)
		}
		id, err := argID(name, args, 1)
		if err != nil {
			return nil, err
		}
		return jobs.NewSpecRequestSubmittedTask(kind, id)
	case jobs.TaskReclamationFiled:
		id, err := argID(name, args, 0)
		if err != nil {
			return nil, err
		}
		return jobs.NewReclamationFiledTask(id)
	case jobs.TaskOrderPlaced:
		id, err := argID(name, args, 0)
		if err != nil {
			return nil, err
		}
		return jobs.NewOrderPlacedTask(id)
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

func argID(name string, args []string, pos int) (uuid.UUID, error) {
	if len(args) <= pos {
		return uuid.Nil, fmt.Errorf("jobs cli: %s needs a record id", name)
	}
	id, err := uuid.Parse(args[pos])
	if err != nil {
		return uuid.Nil, fmt.Errorf("jobs cli: invalid id %q", args[pos])
	}
	return id, nil
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
	}
	return stats, nil
}

// ListScheduled returns scheduled task infos for observability.
func (c *JobsCLI) ListScheduled(ctx context.Context, size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}
