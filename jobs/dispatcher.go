package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/joulek/Backend-mtr/internal/specrequests"
)

// Enqueuer submits tasks. *Client satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher turns domain events into queued tasks. It serves the dispatcher interfaces of the
// quotations, specrequests, reclamations and orders services.
type Dispatcher struct {
	queue  Enqueuer
	logger *slog.Logger
}

// NewDispatcher builds a dispatcher. A nil queue drops tasks with a warning.
func NewDispatcher(queue Enqueuer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{queue: queue, logger: logger}
}

// QuotationIssued queues rendering of a new quotation.
func (d *Dispatcher) QuotationIssued(ctx context.Context, id uuid.UUID, sendEmail bool) error {
	task, err := NewQuotationIssuedTask(id, sendEmail)
	if err != nil {
		return err
	}
	return d.enqueue(ctx, task)
}

// SpecRequestSubmitted queues rendering of a new request.
func (d *Dispatcher) SpecRequestSubmitted(ctx context.Context, kind specrequests.Kind, id uuid.UUID) error {
	task, err := NewSpecRequestSubmittedTask(kind, id)
	if err != nil {
		return err
	}
	return d.enqueue(ctx, task)
}

// ReclamationFiled queues rendering of a new claim.
func (d *Dispatcher) ReclamationFiled(ctx context.Context, id uuid.UUID) error {
	task, err := NewReclamationFiledTask(id)
	if err != nil {
		return err
	}
	return d.enqueue(ctx, task)
}

// OrderPlaced queues the order notification.
func (d *Dispatcher) OrderPlaced(ctx context.Context, id uuid.UUID) error {
	task, err := NewOrderPlacedTask(id)
	if err != nil {
		return err
	}
	return d.enqueue(ctx, task)
}

func (d *Dispatcher) enqueue(ctx context.Context, task *asynq.Task) error {
	if d.queue == nil {
		d.logger.Warn("job queue disabled, task dropped", slog.String("type", task.Type()))
		return nil
	}
	info, err := d.queue.Enqueue(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	d.logger.Debug("task enqueued", slog.String("type", task.Type()), slog.String("task_id", info.ID))
	return nil
}
