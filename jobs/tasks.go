package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/joulek/Backend-mtr/internal/specrequests"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskQuotationIssued renders a new quotation and optionally emails it to the client.
	TaskQuotationIssued = "quotation:issued"
	// TaskSpecRequestSubmitted renders a new request and notifies the office.
	TaskSpecRequestSubmitted = "specrequest:submitted"
	// TaskReclamationFiled renders a new claim and notifies the office.
	TaskReclamationFiled = "reclamation:filed"
	// TaskOrderPlaced notifies the office of a confirmed order.
	TaskOrderPlaced = "order:placed"
	// TaskStorageCleanup purges scratch files and expired idempotency keys.
	TaskStorageCleanup = "storage:cleanup"
)

// QuotationIssuedPayload identifies the quotation to render.
type QuotationIssuedPayload struct {
	QuotationID uuid.UUID `json:"quotation_id"`
	SendEmail   bool      `json:"send_email"`
}

// SpecRequestSubmittedPayload identifies the request to render.
type SpecRequestSubmittedPayload struct {
	Kind      specrequests.Kind `json:"kind"`
	RequestID uuid.UUID         `json:"request_id"`
}

// ReclamationFiledPayload identifies the claim to render.
type ReclamationFiledPayload struct {
	ReclamationID uuid.UUID `json:"reclamation_id"`
}

// OrderPlacedPayload identifies the confirmed order.
type OrderPlacedPayload struct {
	OrderID uuid.UUID `json:"order_id"`
}

// NewQuotationIssuedTask constructs an Asynq task.
func NewQuotationIssuedTask(id uuid.UUID, sendEmail bool) (*asynq.Task, error) {
	return newTask(TaskQuotationIssued, QuotationIssuedPayload{QuotationID: id, SendEmail: sendEmail})
}

// NewSpecRequestSubmittedTask constructs an Asynq task.
func NewSpecRequestSubmittedTask(kind specrequests.Kind, id uuid.UUID) (*asynq.Task, error) {
	return newTask(TaskSpecRequestSubmitted, SpecRequestSubmittedPayload{Kind: kind, RequestID: id})
}

// NewReclamationFiledTask constructs an Asynq task.
func NewReclamationFiledTask(id uuid.UUID) (*asynq.Task, error) {
	return newTask(TaskReclamationFiled, ReclamationFiledPayload{ReclamationID: id})
}

// NewOrderPlacedTask constructs an Asynq task.
func NewOrderPlacedTask(id uuid.UUID) (*asynq.Task, error) {
	return newTask(TaskOrderPlaced, OrderPlacedPayload{OrderID: id})
}

// NewStorageCleanupTask constructs the cron task. It carries no payload.
func NewStorageCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskStorageCleanup, nil, asynq.Queue(QueueDefault))
}

func newTask(typ string, payload any) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typ, body, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

func decode(t *asynq.Task, dest any) error {
	if err := json.Unmarshal(t.Payload(), dest); err != nil {
		return asynq.SkipRetry
	}
	return nil
}
