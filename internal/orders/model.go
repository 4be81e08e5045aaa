// Package orders records client confirmations of quoted requests.
package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/joulek/Backend-mtr/internal/specrequests"
)

// StatusConfirmed is the only status a client can set.
const StatusConfirmed = "confirmed"

// Order is a client's confirmation of one request, unique per (client, request).
type Order struct {
	ID              uuid.UUID         `json:"id"`
	ClientID        uuid.UUID         `json:"client_id"`
	RequestID       uuid.UUID         `json:"request_id"`
	RequestNumber   string            `json:"request_number,omitempty"`
	RequestKind     specrequests.Kind `json:"request_kind"`
	QuotationNumber string            `json:"quotation_number,omitempty"`
	Note            string            `json:"note,omitempty"`
	Status          string            `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// PlaceInput is the client's order confirmation.
type PlaceInput struct {
	RequestID       string `json:"request_id" validate:"required,uuid"`
	QuotationNumber string `json:"quotation_number" validate:"max=64"`
	Note            string `json:"note" validate:"max=1000"`
}
