// Package specrequests stores client specification requests of the six supported kinds and
// resolves them across kinds.
package specrequests

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joulek/Backend-mtr/internal/platform/storage"
)

// SpecRequest is the shared shape of every request kind. Spec holds the kind payload.
type SpecRequest struct {
	ID                uuid.UUID            `json:"id"`
	Number            string               `json:"number"`
	OwnerID           uuid.UUID            `json:"owner_id"`
	Kind              Kind                 `json:"kind"`
	Spec              json.RawMessage      `json:"spec"`
	Attachments       []storage.Attachment `json:"attachments"`
	GeneratedDocument *storage.Document    `json:"generated_document,omitempty"`
	Requirements      string               `json:"requirements,omitempty"`
	Remarks           string               `json:"remarks,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// Ref is the projection used by listings and aggregation.
type Ref struct {
	ID     uuid.UUID `json:"id"`
	Number string    `json:"number"`
	Kind   Kind      `json:"kind"`
}

// Ref projects the request.
func (r SpecRequest) Ref() Ref {
	return Ref{ID: r.ID, Number: r.Number, Kind: r.Kind}
}

// CreateInput is the decoded submission.
type CreateInput struct {
	Kind         Kind             `json:"-"`
	Spec         json.RawMessage  `json:"spec"`
	Requirements string           `json:"requirements" validate:"max=4000"`
	Remarks      string           `json:"remarks" validate:"max=4000"`
	Files        []storage.Upload `json:"-"`
}

// ListRequest filters a kind listing.
type ListRequest struct {
	Search  string
	OwnerID *uuid.UUID
	Page    int
	PerPage int
}
