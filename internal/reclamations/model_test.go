package reclamations

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joulek/Backend-mtr/internal/platform/storage"
)

func TestIsOther(t *testing.T) {
	for _, v := range []string{"autre", "Autres", " AUTRE ", "other", "Other"} {
		assert.True(t, IsOther(v), v)
	}
	for _, v := range []string{"", "autrement", "non_conformite", "others"} {
		assert.False(t, IsOther(v), v)
	}
}

func TestResolveChoices(t *testing.T) {
	t.Run("known choices are kept", func(t *testing.T) {
		in := CreateInput{Nature: NatureDelay, NaturePrecision: "ignored", Expectation: ExpectationRefund}
		resolveChoices(&in)
		assert.Equal(t, NatureDelay, in.Nature)
		assert.Equal(t, ExpectationRefund, in.Expectation)
	})

	t.Run("precision wins over description", func(t *testing.T) {
		in := CreateInput{
			Nature:          NatureOther,
			NaturePrecision: "Rouille",
			Expectation:     ExpectationCredit,
			Description:     "Précisez la nature : Oxydation",
		}
		resolveChoices(&in)
		assert.Equal(t, "Rouille", in.Nature)
	})

	t.Run("description fragment as fallback", func(t *testing.T) {
		in := CreateInput{
			Nature:      NatureOther,
			Expectation: ExpectationOther,
			Description: "Précisez la nature : Oxydation | Précisez votre attente : Reprise du lot",
		}
		resolveChoices(&in)
		assert.Equal(t, "Oxydation", in.Nature)
		assert.Equal(t, "Reprise du lot", in.Expectation)
	})

	t.Run("autre kept without any precision", func(t *testing.T) {
		in := CreateInput{Nature: NatureOther, Expectation: ExpectationOther, Description: "rien"}
		resolveChoices(&in)
		assert.Equal(t, NatureOther, in.Nature)
		assert.Equal(t, ExpectationOther, in.Expectation)
	})
}

func TestEmailAttachmentsStopsAtBudget(t *testing.T) {
	const mb = 1 << 20
	attachments := []storage.Attachment{
		{Filename: "a.jpg", Size: 5 * mb},
		{Filename: "empty.txt", Size: 0},
		{Filename: "b.jpg", Size: 5 * mb},
		{Filename: "c.jpg", Size: 5 * mb},
		{Filename: "d.jpg", Size: 1},
	}

	got := EmailAttachments(attachments, 100*1024)
	names := make([]string, 0, len(got))
	for _, a := range got {
		names = append(names, a.Filename)
	}
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, names)

	assert.Len(t, EmailAttachments(attachments, 0), 3)
	assert.Empty(t, EmailAttachments(attachments, AttachmentBudget))
}

func TestDocumentTypeLabel(t *testing.T) {
	assert.Equal(t, "Bon de livraison", DocumentDelivery.Label())
	assert.Equal(t, "Facture", DocumentInvoice.Label())
	assert.Equal(t, "ticket", DocumentType("ticket").Label())
}
