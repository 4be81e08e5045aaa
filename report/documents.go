package report

import (
	"fmt"
	"strings"

	"github.com/joulek/Backend-mtr/internal/clients"
	"github.com/joulek/Backend-mtr/internal/quotations"
	"github.com/joulek/Backend-mtr/internal/reclamations"
	"github.com/joulek/Backend-mtr/internal/specrequests"
)

// QuotationDocument lays out a priced quotation.
func QuotationDocument(q *quotations.Quotation) Document {
	refs := make([]string, 0, len(q.Links))
	for _, l := range q.Links {
		refs = append(refs, l.RequestNumber)
	}
	doc := Document{
		Slug:   "devis",
		Title:  "DEVIS",
		Number: q.Number,
		Date:   q.CreatedAt,
		Party: Section{Title: "Client", Fields: []Field{
			{Label: "Nom", Value: orDash(q.Client.Name)},
			{Label: "Email", Value: orDash(q.Client.Email)},
			{Label: "Adresse", Value: orDash(q.Client.Address)},
			{Label: "Téléphone", Value: orDash(q.Client.Phone)},
			{Label: "Matricule fiscal", Value: orDash(q.Client.TaxID)},
		}},
		Sections: []Section{{Title: "Références", Fields: []Field{
			{Label: "Demandes", Value: orDash(strings.Join(refs, ", "))},
		}}},
		Table: &Table{Columns: []Column{
			{Header: "Demande", Width: 0.13},
			{Header: "Référence", Width: 0.12},
			{Header: "Désignation", Width: 0.27},
			{Header: "Qté", Width: 0.08, Align: "R"},
			{Header: "P.U. HT", Width: 0.11, Align: "R"},
			{Header: "Remise", Width: 0.08, Align: "R"},
			{Header: "TVA", Width: 0.08, Align: "R"},
			{Header: "Total HT", Width: 0.13, Align: "R"},
		}},
		Totals: []Field{
			{Label: "Total HT brut", Value: Money(q.Totals.TotalExclTaxBeforeDiscount)},
			{Label: "Total HT net", Value: Money(q.Totals.TotalExclTaxNet)},
			{Label: "Total TVA", Value: Money(q.Totals.TotalTax)},
			{Label: fmt.Sprintf("Majoration (%s)", Percent(q.Totals.SurchargePercent)), Value: Money(q.Totals.SurchargeAmount)},
			{Label: "Timbre fiscal", Value: Money(q.Totals.StampDuty)},
			{Label: "Total TTC", Value: Money(q.Totals.TotalInclTax)},
		},
	}
	for _, l := range q.Lines {
		doc.Table.Rows = append(doc.Table.Rows, []string{
			l.SourceRequestNumber,
			l.ArticleReference,
			l.Description,
			Quantity(l.Quantity) + " " + l.Unit,
			Money(l.UnitPriceExclTax),
			Percent(l.DiscountPercent),
			Percent(l.TaxRatePercent),
			Money(l.LineTotalExclTax),
		})
	}
	if q.ValidUntil != nil {
		doc.Notes = append(doc.Notes, "Offre valable jusqu'au "+q.ValidUntil.Format("02/01/2006")+".")
	}
	return doc
}

func clientSection(c *clients.Client) Section {
	if c == nil {
		return Section{Title: "Client", Fields: []Field{{Label: "Nom", Value: "-"}}}
	}
	return Section{Title: "Client", Fields: []Field{
		{Label: "Nom", Value: orDash(c.DisplayName())},
		{Label: "Email", Value: orDash(c.Email)},
		{Label: "Téléphone", Value: orDash(c.Phone)},
		{Label: "Adresse", Value: orDash(c.Address)},
	}}
}

// RequestDocument lays out a specification request with its labelled fields.
func RequestDocument(req *specrequests.SpecRequest, client *clients.Client) (Document, error) {
	fields, err := specrequests.Describe(req.Kind, req.Spec)
	if err != nil {
		return Document{}, err
	}
	spec := Section{Title: req.Kind.Label(), Fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		spec.Fields = append(spec.Fields, Field{Label: f.Label, Value: orDash(f.Value)})
	}
	doc := Document{
		Slug:     "demande",
		Title:    "DEMANDE DE DEVIS",
		Number:   req.Number,
		Date:     req.CreatedAt,
		Party:    clientSection(client),
		Sections: []Section{spec},
	}
	if req.Requirements != "" || req.Remarks != "" {
		doc.Sections = append(doc.Sections, Section{Title: "Compléments", Fields: []Field{
			{Label: "Exigences particulières", Value: orDash(req.Requirements)},
			{Label: "Remarques", Value: orDash(req.Remarks)},
		}})
	}
	if len(req.Attachments) > 0 {
		names := make([]string, 0, len(req.Attachments))
		for _, a := range req.Attachments {
			names = append(names, a.Filename)
		}
		doc.Notes = append(doc.Notes, "Pièces jointes : "+strings.Join(names, ", "))
	}
	return doc, nil
}

// ReclamationDocument lays out a client claim.
func ReclamationDocument(rec *reclamations.Reclamation, client *clients.Client) Document {
	quantity := "-"
	if rec.Order.Quantity != nil {
		quantity = fmt.Sprint(*rec.Order.Quantity)
	}
	doc := Document{
		Slug:   "reclamation",
		Title:  "RÉCLAMATION",
		Number: rec.Number,
		Date:   rec.CreatedAt,
		Party:  clientSection(client),
		Sections: []Section{
			{Title: "Document concerné", Fields: []Field{
				{Label: "Type", Value: rec.Order.DocumentType.Label()},
				{Label: "Numéro", Value: orDash(rec.Order.Number)},
				{Label: "Date de livraison", Value: orDash(rec.Order.DeliveryDate)},
				{Label: "Référence produit", Value: orDash(rec.Order.ProductReference)},
				{Label: "Quantité", Value: quantity},
			}},
			{Title: "Réclamation", Fields: []Field{
				{Label: "Nature", Value: choiceLabel(rec.Nature)},
				{Label: "Attente", Value: choiceLabel(rec.Expectation)},
				{Label: "Description", Value: orDash(rec.Description)},
			}},
		},
	}
	if len(rec.Attachments) > 0 {
		names := make([]string, 0, len(rec.Attachments))
		for _, a := range rec.Attachments {
			names = append(names, a.Filename)
		}
		doc.Notes = append(doc.Notes, "Pièces jointes : "+strings.Join(names, ", "))
	}
	return doc
}

var choiceLabels = map[string]string{
	reclamations.NatureNonConformity:    "Produit non conforme",
	reclamations.NatureQuantity:         "Erreur de quantité",
	reclamations.NaturePackaging:        "Emballage endommagé",
	reclamations.NatureDelay:            "Retard de livraison",
	reclamations.ExpectationReplacement: "Remplacement",
	reclamations.ExpectationRepair:      "Réparation",
	reclamations.ExpectationRefund:      "Remboursement",
	reclamations.ExpectationCredit:      "Avoir",
	"autre":                             "Autre",
}

func choiceLabel(v string) string {
	if l, ok := choiceLabels[v]; ok {
		return l
	}
	return orDash(v)
}
