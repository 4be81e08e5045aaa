package shared

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexDecimalAcceptsCommaStrings(t *testing.T) {
	var payload struct {
		Qty   FlexDecimal `json:"qty"`
		Price FlexDecimal `json:"price"`
		Tax   FlexDecimal `json:"tax"`
		Miss  FlexDecimal `json:"miss"`
		Blank FlexDecimal `json:"blank"`
	}
	err := json.Unmarshal([]byte(`{"qty":3,"price":"12,500","tax":"19","blank":""}`), &payload)
	require.NoError(t, err)

	assert.True(t, payload.Qty.Value.Equal(decimal.NewFromInt(3)))
	assert.True(t, payload.Price.Value.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, payload.Tax.Valid)
	assert.False(t, payload.Miss.Valid)
	assert.False(t, payload.Blank.Valid)
	assert.True(t, payload.Miss.Or(decimal.NewFromInt(1)).Equal(decimal.NewFromInt(1)))
}

func TestFlexDecimalRejectsGarbage(t *testing.T) {
	var f FlexDecimal
	require.Error(t, json.Unmarshal([]byte(`"12,5,3"`), &f))
	require.Error(t, json.Unmarshal([]byte(`true`), &f))
}

func TestPaginationBounds(t *testing.T) {
	p := NewPagination(0, 1000, 250)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPerPage, p.PerPage)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, p.Offset())
	assert.Equal(t, 40, NewPagination(3, 20, 100).Offset())
}
