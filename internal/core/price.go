package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is an optional per-unit price: either a known decimal value or
// unknown. Backends historically sent this field as a plain number, null,
// or a wrapper object {"value": n}; Price absorbs all three shapes into a
// tagged value so the rest of the code never does runtime shape checks.
type Price struct {
	value decimal.Decimal
	known bool
}

// KnownPrice wraps a decimal value.
func KnownPrice(v decimal.Decimal) Price {
	return Price{value: v, known: true}
}

// UnknownPrice is the absent price.
func UnknownPrice() Price {
	return Price{}
}

// IsKnown reports whether a value is present.
func (p Price) IsKnown() bool { return p.known }

// Value returns the decimal value and whether it is present.
func (p Price) Value() (decimal.Decimal, bool) {
	return p.value, p.known
}

func (p Price) String() string {
	if !p.known {
		return "unknown"
	}
	return p.value.String()
}

// MarshalJSON encodes a known price as a bare number and an unknown one
// as null.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.known {
		return []byte("null"), nil
	}
	return []byte(p.value.String()), nil
}

// UnmarshalJSON accepts a number, null, or the legacy wrapper {"value": n}
// where value itself may be null.
func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = UnknownPrice()
		return nil
	}
	if b[0] == '{' {
		var wrapper struct {
			Value *decimal.Decimal `json:"value"`
		}
		if err := json.Unmarshal(b, &wrapper); err != nil {
			return fmt.Errorf("price wrapper: %w", err)
		}
		if wrapper.Value == nil {
			*p = UnknownPrice()
			return nil
		}
		*p = KnownPrice(*wrapper.Value)
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("price string: %w", err)
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("price string: %w", err)
		}
		*p = KnownPrice(v)
		return nil
	}
	v, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("price number: %w", err)
	}
	*p = KnownPrice(v)
	return nil
}
