package specrequests

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joulek/Backend-mtr/internal/platform/httpx"
)

func TestParseKindAcceptsLegacySlugs(t *testing.T) {
	cases := map[string]Kind{
		"compression": KindCompression,
		" Traction ":  KindTraction,
		"fil":         KindWire,
		"grille":      KindGrid,
		"autre":       KindOther,
	}
	for raw, want := range cases {
		got, err := ParseKind(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	_, err := ParseKind("helical")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestKindTables(t *testing.T) {
	assert.Equal(t, "requests_grid", KindGrid.Table())
	assert.Equal(t, "Fil dressé", KindWire.Label())
}

func TestDecodeSpecPerKind(t *testing.T) {
	v := NewValidator()
	cases := []struct {
		kind Kind
		raw  string
		ok   bool
	}{
		{KindCompression, compressionJSON, true},
		{KindCompression, `{"wire_diameter":"abc"}`, false},
		{KindTraction, `{"wire_diameter":1,"outer_diameter":10,"free_length":30,"total_coils":12,"quantity":50,"material":"spring_steel_sh","winding_direction":"left","ring_position":"90","hook_type":"german_loop"}`, true},
		{KindTraction, `{"wire_diameter":1,"outer_diameter":10,"free_length":30,"total_coils":12,"quantity":50,"material":"spring_steel_sh","winding_direction":"up","ring_position":"90","hook_type":"german_loop"}`, false},
		{KindTorsion, `{"wire_diameter":"0,8","outer_diameter":6,"body_length":10,"angle":90,"total_coils":5,"leg1_length":20,"leg2_length":20,"quantity":200,"material":"stainless_spring_steel","winding_direction":"right"}`, true},
		{KindWire, `{"length":2,"length_unit":"m","diameter":3,"quantity":"12,5","quantity_unit":"kg","material":"black_steel"}`, true},
		{KindWire, `{"length":2,"length_unit":"cm","diameter":3,"quantity":1,"quantity_unit":"kg","material":"black_steel"}`, false},
		{KindGrid, `{"length":1000,"width":500,"long_wires":10,"cross_wires":20,"pitch1":50,"pitch2":50,"d1":4,"d2":4,"quantity":3,"material":"galvanized_steel","finish":"paint"}`, true},
		{KindGrid, `{"length":1000,"width":500}`, false},
		{KindOther, `{"designation":"Clip","quantity":2,"material":"laiton"}`, true},
		{KindOther, `{"designation":"Clip","quantity":0,"material":"laiton"}`, false},
		{KindOther, `{"designation":"Clip","quantity":1}`, false},
	}
	for _, tc := range cases {
		_, canonical, err := DecodeSpec(v, tc.kind, json.RawMessage(tc.raw))
		if tc.ok {
			require.NoError(t, err, "%s %s", tc.kind, tc.raw)
			assert.True(t, json.Valid(canonical))
			continue
		}
		require.ErrorIs(t, err, httpx.ErrValidation, "%s %s", tc.kind, tc.raw)
	}
}

func TestDecodeSpecOtherMaterialFallback(t *testing.T) {
	payload, _, err := DecodeSpec(NewValidator(), KindOther, json.RawMessage(`{"designation":" Agrafe ","quantity":"3","material":"autre","material_other":"Cuivre"}`))
	require.NoError(t, err)
	spec := payload.(*OtherSpec)
	assert.Equal(t, "Cuivre", spec.Material)
	assert.Equal(t, "Agrafe", spec.Title)
}

func TestDescribeLabelsFields(t *testing.T) {
	fields, err := Describe(KindCompression, json.RawMessage(compressionJSON))
	require.NoError(t, err)
	byLabel := make(map[string]string, len(fields))
	for _, f := range fields {
		byLabel[f.Label] = f.Value
	}
	assert.Equal(t, "1.5 mm", byLabel["Diamètre du fil (d)"])
	assert.Equal(t, "Fil ressort noir SM", byLabel["Matière"])
	assert.Equal(t, "-", byLabel["Pas"])
}
