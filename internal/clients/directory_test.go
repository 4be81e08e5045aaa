package clients

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Amine BEN SALAH", Client{FirstName: "amine", LastName: "ben salah", Email: "a@b.tn"}.DisplayName())
	assert.Equal(t, "a@b.tn", Client{Email: "a@b.tn"}.DisplayName())
	assert.Equal(t, "Sarra", Client{FirstName: " sarra "}.DisplayName())
}
