package specrequests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/shared"
)

type num = shared.FlexDecimal

// Field is one labelled value printed on request documents.
type Field struct {
	Label string
	Value string
}

// Payload is implemented by every kind-specific specification.
type Payload interface {
	Fields() []Field
}

var materialLabels = map[string]string{
	"spring_steel_sm":         "Fil ressort noir SM",
	"spring_steel_sh":         "Fil ressort noir SH",
	"galvanized_spring_steel": "Fil ressort galvanisé",
	"stainless_spring_steel":  "Fil ressort inox",
	"galvanized_steel":        "Acier galvanisé",
	"black_steel":             "Acier noir",
	"spring_steel":            "Acier ressort",
	"stainless_steel":         "Acier inoxydable",
}

var optionLabels = map[string]string{
	"left":               "Enroulement gauche",
	"right":              "Enroulement droite",
	"german_loop":        "Anneau allemand",
	"double_german_loop": "Double anneau allemand",
	"tangent_loop":       "Anneau tangent",
	"extended_loop":      "Anneau allongé",
	"english_loop":       "Boucle anglaise",
	"swivel_loop":        "Anneau tournant",
	"cone_with_screw":    "Conification avec vis",
	"paint":              "Peinture",
	"chrome":             "Chromage",
	"galvanizing":        "Galvanisation",
	"other":              "Autre",
	"pieces":             "pièces",
	"ground_closed":      "ERM",
	"open":               "EL",
	"ground_open":        "ELM",
	"closed_not_ground":  "ERNM",
}

func label(code string) string {
	if l, ok := materialLabels[code]; ok {
		return l
	}
	if l, ok := optionLabels[code]; ok {
		return l
	}
	return code
}

func numField(name string, v num, unit string) Field {
	if !v.Valid {
		return Field{Label: name, Value: "-"}
	}
	s := v.Value.String()
	if unit != "" {
		s += " " + unit
	}
	return Field{Label: name, Value: s}
}

// CompressionSpec describes a compression spring.
type CompressionSpec struct {
	WireDiameter     num    `json:"wire_diameter" validate:"required,gt=0"`
	OuterDiameter    num    `json:"outer_diameter" validate:"required,gt=0"`
	InnerDiameter    num    `json:"inner_diameter" validate:"required,gt=0"`
	Height           num    `json:"height" validate:"omitempty,gt=0"`
	Stroke           num    `json:"stroke" validate:"omitempty,gt=0"`
	FreeLength       num    `json:"free_length" validate:"required,gt=0"`
	TotalCoils       num    `json:"total_coils" validate:"required,gt=0"`
	Pitch            num    `json:"pitch" validate:"omitempty,gt=0"`
	Quantity         num    `json:"quantity" validate:"required,gt=0"`
	Material         string `json:"material" validate:"required,oneof=spring_steel_sm spring_steel_sh galvanized_spring_steel stainless_spring_steel"`
	WindingDirection string `json:"winding_direction" validate:"omitempty,oneof=left right"`
	EndType          string `json:"end_type" validate:"omitempty,oneof=ground_closed open ground_open closed_not_ground"`
}

func (s CompressionSpec) Fields() []Field {
	return []Field{
		numField("Diamètre du fil (d)", s.WireDiameter, "mm"),
		numField("Diamètre extérieur (DE)", s.OuterDiameter, "mm"),
		numField("Diamètre intérieur (DI)", s.InnerDiameter, "mm"),
		numField("Hauteur (H)", s.Height, "mm"),
		numField("Course (S)", s.Stroke, "mm"),
		numField("Longueur libre (Lo)", s.FreeLength, "mm"),
		numField("Nombre total de spires", s.TotalCoils, ""),
		numField("Pas", s.Pitch, "mm"),
		numField("Quantité", s.Quantity, ""),
		{Label: "Matière", Value: label(s.Material)},
		{Label: "Enroulement", Value: label(s.WindingDirection)},
		{Label: "Extrémité", Value: label(s.EndType)},
	}
}

// TractionSpec describes a traction (extension) spring.
type TractionSpec struct {
	WireDiameter     num    `json:"wire_diameter" validate:"required,gt=0"`
	OuterDiameter    num    `json:"outer_diameter" validate:"required,gt=0"`
	FreeLength       num    `json:"free_length" validate:"required,gt=0"`
	TotalCoils       num    `json:"total_coils" validate:"required,gt=0"`
	Quantity         num    `json:"quantity" validate:"required,gt=0"`
	Material         string `json:"material" validate:"required,oneof=spring_steel_sm spring_steel_sh galvanized_spring_steel stainless_spring_steel"`
	WindingDirection string `json:"winding_direction" validate:"required,oneof=left right"`
	RingPosition     string `json:"ring_position" validate:"required,oneof=0 90 180 270"`
	HookType         string `json:"hook_type" validate:"required,oneof=german_loop double_german_loop tangent_loop extended_loop english_loop swivel_loop cone_with_screw"`
}

func (s TractionSpec) Fields() []Field {
	return []Field{
		numField("Diamètre du fil (d)", s.WireDiameter, "mm"),
		numField("Diamètre extérieur (De)", s.OuterDiameter, "mm"),
		numField("Longueur libre (Lo)", s.FreeLength, "mm"),
		numField("Nombre total de spires", s.TotalCoils, ""),
		numField("Quantité", s.Quantity, ""),
		{Label: "Matière", Value: label(s.Material)},
		{Label: "Enroulement", Value: label(s.WindingDirection)},
		{Label: "Position des anneaux", Value: s.RingPosition + "°"},
		{Label: "Type d'accrochage", Value: label(s.HookType)},
	}
}

// TorsionSpec describes a torsion spring.
type TorsionSpec struct {
	WireDiameter     num    `json:"wire_diameter" validate:"required,gt=0"`
	OuterDiameter    num    `json:"outer_diameter" validate:"required,gt=0"`
	BodyLength       num    `json:"body_length" validate:"required,gt=0"`
	Angle            num    `json:"angle" validate:"required,gte=0,lte=360"`
	TotalCoils       num    `json:"total_coils" validate:"required,gt=0"`
	Leg1Length       num    `json:"leg1_length" validate:"required,gt=0"`
	Leg2Length       num    `json:"leg2_length" validate:"required,gt=0"`
	Quantity         num    `json:"quantity" validate:"required,gt=0"`
	Material         string `json:"material" validate:"required,oneof=spring_steel_sm spring_steel_sh galvanized_spring_steel stainless_spring_steel"`
	WindingDirection string `json:"winding_direction" validate:"required,oneof=left right"`
}

func (s TorsionSpec) Fields() []Field {
	return []Field{
		numField("Diamètre du fil (d)", s.WireDiameter, "mm"),
		numField("Diamètre extérieur (De)", s.OuterDiameter, "mm"),
		numField("Longueur du corps (Lc)", s.BodyLength, "mm"),
		numField("Angle", s.Angle, "°"),
		numField("Nombre total de spires", s.TotalCoils, ""),
		numField("Longueur branche 1 (L1)", s.Leg1Length, "mm"),
		numField("Longueur branche 2 (L2)", s.Leg2Length, "mm"),
		numField("Quantité", s.Quantity, ""),
		{Label: "Matière", Value: label(s.Material)},
		{Label: "Enroulement", Value: label(s.WindingDirection)},
	}
}

// WireSpec describes straightened wire cut to length.
type WireSpec struct {
	Length       num    `json:"length" validate:"required,gt=0"`
	LengthUnit   string `json:"length_unit" validate:"required,oneof=mm m"`
	Diameter     num    `json:"diameter" validate:"required,gt=0"`
	Quantity     num    `json:"quantity" validate:"required,gt=0"`
	QuantityUnit string `json:"quantity_unit" validate:"required,oneof=pieces kg"`
	Material     string `json:"material" validate:"required,oneof=galvanized_steel black_steel spring_steel stainless_steel"`
}

func (s WireSpec) Fields() []Field {
	return []Field{
		numField("Longueur", s.Length, s.LengthUnit),
		numField("Diamètre", s.Diameter, "mm"),
		numField("Quantité", s.Quantity, label(s.QuantityUnit)),
		{Label: "Matière", Value: label(s.Material)},
	}
}

// GridSpec describes a welded wire grid.
type GridSpec struct {
	Length     num    `json:"length" validate:"required,gt=0"`
	Width      num    `json:"width" validate:"required,gt=0"`
	LongWires  num    `json:"long_wires" validate:"required,gt=0"`
	CrossWires num    `json:"cross_wires" validate:"required,gt=0"`
	Pitch1     num    `json:"pitch1" validate:"required,gt=0"`
	Pitch2     num    `json:"pitch2" validate:"required,gt=0"`
	D1         num    `json:"d1" validate:"required,gt=0"`
	D2         num    `json:"d2" validate:"required,gt=0"`
	Quantity   num    `json:"quantity" validate:"required,gt=0"`
	Material   string `json:"material" validate:"required,oneof=galvanized_steel black_steel"`
	Finish     string `json:"finish" validate:"required,oneof=paint chrome galvanizing other"`
}

func (s GridSpec) Fields() []Field {
	return []Field{
		numField("Longueur (L)", s.Length, "mm"),
		numField("Largeur (l)", s.Width, "mm"),
		numField("Nombre de fils longitudinaux", s.LongWires, ""),
		numField("Nombre de fils transversaux", s.CrossWires, ""),
		numField("Pas 1", s.Pitch1, "mm"),
		numField("Pas 2", s.Pitch2, "mm"),
		numField("Diamètre D1", s.D1, "mm"),
		numField("Diamètre D2", s.D2, "mm"),
		numField("Quantité", s.Quantity, ""),
		{Label: "Matière", Value: label(s.Material)},
		{Label: "Finition", Value: label(s.Finish)},
	}
}

// OtherSpec describes a free-form article request.
type OtherSpec struct {
	Title         string `json:"title" validate:"max=200"`
	Designation   string `json:"designation" validate:"required,max=200"`
	Dimensions    string `json:"dimensions" validate:"max=200"`
	Quantity      num    `json:"quantity" validate:"required,gte=1"`
	Material      string `json:"material" validate:"required_without=MaterialOther,max=120"`
	MaterialOther string `json:"material_other" validate:"max=120"`
	Description   string `json:"description" validate:"max=4000"`
}

func (s *OtherSpec) normalize() {
	s.Designation = strings.TrimSpace(s.Designation)
	other := strings.TrimSpace(s.MaterialOther)
	if (s.Material == "" || strings.EqualFold(s.Material, "other") || strings.EqualFold(s.Material, "autre")) && other != "" {
		s.Material = other
	}
	if strings.TrimSpace(s.Title) == "" {
		switch {
		case s.Designation != "":
			s.Title = s.Designation
		case s.Material != "":
			s.Title = fmt.Sprintf("Article (%s)", s.Material)
		default:
			s.Title = "Article"
		}
	}
}

func (s OtherSpec) Fields() []Field {
	return []Field{
		{Label: "Titre", Value: s.Title},
		{Label: "Désignation", Value: s.Designation},
		{Label: "Dimensions", Value: s.Dimensions},
		numField("Quantité", s.Quantity, ""),
		{Label: "Matière", Value: s.Material},
		{Label: "Description", Value: s.Description},
	}
}

func newPayload(kind Kind) (Payload, error) {
	switch kind {
	case KindCompression:
		return &CompressionSpec{}, nil
	case KindTraction:
		return &TractionSpec{}, nil
	case KindTorsion:
		return &TorsionSpec{}, nil
	case KindWire:
		return &WireSpec{}, nil
	case KindGrid:
		return &GridSpec{}, nil
	case KindOther:
		return &OtherSpec{}, nil
	}
	return nil, fmt.Errorf("%w: unknown request kind %q", httpx.ErrValidation, kind)
}

// NewValidator returns a validator that understands flexible decimals.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		f, ok := field.Interface().(shared.FlexDecimal)
		if !ok || !f.Valid {
			return nil
		}
		return f.Value.InexactFloat64()
	}, shared.FlexDecimal{})
	return v
}

// DecodeSpec parses, normalises and validates a kind payload. It returns the typed payload
// and its canonical JSON encoding.
func DecodeSpec(v *validator.Validate, kind Kind, raw json.RawMessage) (Payload, json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, fmt.Errorf("%w: spec is required", httpx.ErrValidation)
	}
	payload, err := newPayload(kind)
	if err != nil {
		return nil, nil, err
	}
	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, nil, fmt.Errorf("%w: spec: %v", httpx.ErrValidation, err)
	}
	if o, ok := payload.(*OtherSpec); ok {
		o.normalize()
	}
	if err := v.Struct(payload); err != nil {
		return nil, nil, fmt.Errorf("%w: spec: %v", httpx.ErrValidation, err)
	}
	canonical, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	return payload, canonical, nil
}

// Describe renders stored spec JSON into labelled fields.
func Describe(kind Kind, raw json.RawMessage) ([]Field, error) {
	payload, err := newPayload(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("decode %s spec: %w", kind, err)
	}
	return payload.Fields(), nil
}
