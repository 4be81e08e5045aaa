package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FlexDecimal accepts a JSON number or a string that may use a comma as the decimal separator.
// Valid is false when the field was absent, null or an empty string.
type FlexDecimal struct {
	Value decimal.Decimal
	Valid bool
}

// NewFlexDecimal wraps a present value.
func NewFlexDecimal(v decimal.Decimal) FlexDecimal {
	return FlexDecimal{Value: v, Valid: true}
}

// ParseDecimal reads "12,5", "12.5" or " 12 " into a decimal.
func ParseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty number")
	}
	return decimal.NewFromString(s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = FlexDecimal{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*f = FlexDecimal{}
			return nil
		}
		v, err := ParseDecimal(s)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*f = NewFlexDecimal(v)
		return nil
	}
	v, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid number %s", data)
	}
	*f = NewFlexDecimal(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexDecimal) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return []byte(f.Value.String()), nil
}

// Or returns the value when present, otherwise def.
func (f FlexDecimal) Or(def decimal.Decimal) decimal.Decimal {
	if !f.Valid {
		return def
	}
	return f.Value
}
