package quotations

import "time"

// CreateQuotationRequest is the staff payload converting requests into a quotation.
type CreateQuotationRequest struct {
	RequestIDs []string         `json:"request_ids"`
	Lines      []LineDescriptor `json:"lines"`
	ValidUntil *time.Time       `json:"valid_until,omitempty"`
	Status     Status           `json:"status,omitempty"`
	SendEmail  *bool            `json:"send_email,omitempty"`
}

// ShouldEmail reports whether the client gets the quotation by email. Absent means yes.
func (r CreateQuotationRequest) ShouldEmail() bool {
	return r.SendEmail == nil || *r.SendEmail
}

// ListRequest filters the quotation listing.
type ListRequest struct {
	Search  string
	Page    int
	PerPage int
}
