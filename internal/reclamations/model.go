// Package reclamations records client claims against delivered documents.
package reclamations

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joulek/Backend-mtr/internal/platform/storage"
)

// Upload limits for claim attachments. The email carries at most AttachmentBudget bytes.
const (
	MaxFiles         = 10
	MaxFileSize      = 5 << 20
	AttachmentBudget = 15 << 20
)

// DocumentType names the document the claim is about.
type DocumentType string

// Supported document types.
const (
	DocumentQuotation DocumentType = "devis"
	DocumentOrder     DocumentType = "bon_commande"
	DocumentDelivery  DocumentType = "bon_livraison"
	DocumentInvoice   DocumentType = "facture"
)

// Label is the French caption printed on documents.
func (d DocumentType) Label() string {
	switch d {
	case DocumentQuotation:
		return "Devis"
	case DocumentOrder:
		return "Bon de commande"
	case DocumentDelivery:
		return "Bon de livraison"
	case DocumentInvoice:
		return "Facture"
	}
	return string(d)
}

// Claim natures and expectations. NatureOther and ExpectationOther take a free-text precision.
const (
	NatureNonConformity = "non_conformite"
	NatureQuantity      = "erreur_quantite"
	NaturePackaging     = "emballage"
	NatureDelay         = "retard_livraison"
	NatureOther         = "autre"

	ExpectationReplacement = "remplacement"
	ExpectationRepair      = "reparation"
	ExpectationRefund      = "remboursement"
	ExpectationCredit      = "avoir"
	ExpectationOther       = "autre"
)

// OrderRef identifies the delivered goods.
type OrderRef struct {
	DocumentType     DocumentType `json:"document_type" validate:"required,oneof=devis bon_commande bon_livraison facture"`
	Number           string       `json:"number" validate:"required,max=64"`
	DeliveryDate     string       `json:"delivery_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ProductReference string       `json:"product_reference,omitempty" validate:"max=128"`
	Quantity         *int         `json:"quantity,omitempty" validate:"omitempty,gte=0"`
}

// Reclamation is a stored claim.
type Reclamation struct {
	ID                uuid.UUID            `json:"id"`
	Number            string               `json:"number"`
	OwnerID           uuid.UUID            `json:"owner_id"`
	OwnerName         string               `json:"owner_name,omitempty"`
	Order             OrderRef             `json:"order"`
	Nature            string               `json:"nature"`
	Expectation       string               `json:"expectation"`
	Description       string               `json:"description,omitempty"`
	Attachments       []storage.Attachment `json:"attachments"`
	GeneratedDocument *storage.Document    `json:"generated_document,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// CreateInput is the decoded submission. NaturePrecision and ExpectationPrecision replace an
// "autre" choice.
type CreateInput struct {
	Order                OrderRef         `json:"order"`
	Nature               string           `json:"nature" validate:"required,oneof=non_conformite erreur_quantite emballage retard_livraison autre"`
	NaturePrecision      string           `json:"nature_precision" validate:"max=200"`
	Expectation          string           `json:"expectation" validate:"required,oneof=remplacement reparation remboursement avoir autre"`
	ExpectationPrecision string           `json:"expectation_precision" validate:"max=200"`
	Description          string           `json:"description" validate:"max=4000"`
	Files                []storage.Upload `json:"-"`
}

// ListRequest filters the admin listing.
type ListRequest struct {
	Search  string
	OwnerID *uuid.UUID
	Page    int
	PerPage int
}

var (
	otherPattern       = regexp.MustCompile(`(?i)^(autres?|other)$`)
	naturePattern      = regexp.MustCompile(`(?i)Précisez\s+la\s+nature\s*:\s*([^|]+?)(?:\||$)`)
	expectationPattern = regexp.MustCompile(`(?i)Précisez\s+votre\s+attente\s*:\s*([^|]+?)(?:\||$)`)
)

// IsOther reports whether a choice is the free-text "autre" option.
func IsOther(v string) bool {
	return otherPattern.MatchString(strings.TrimSpace(v))
}

// resolveChoices substitutes precision texts for "autre" choices. When no precision field is
// given, a "Précisez ...: text" fragment of the description is used instead.
func resolveChoices(in *CreateInput) {
	in.Nature = resolveChoice(in.Nature, in.NaturePrecision, naturePattern, in.Description)
	in.Expectation = resolveChoice(in.Expectation, in.ExpectationPrecision, expectationPattern, in.Description)
}

func resolveChoice(choice, precision string, fallback *regexp.Regexp, description string) string {
	choice = strings.TrimSpace(choice)
	if !IsOther(choice) {
		return choice
	}
	if p := strings.TrimSpace(precision); p != "" {
		return p
	}
	if m := fallback.FindStringSubmatch(description); m != nil {
		if text := strings.TrimSpace(m[1]); text != "" {
			return text
		}
	}
	return choice
}
