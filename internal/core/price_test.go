package core

import (
	"encoding/json"
	"testing"
)

func TestPriceUnmarshalShapes(t *testing.T) {
	cases := []struct {
		in    string
		known bool
		value string
	}{
		{"12.34", true, "12.34"},
		{`"12.34"`, true, "12.34"},
		{"null", false, ""},
		{`{"value": 7.5}`, true, "7.5"},
		{`{"value": null}`, false, ""},
	}
	for _, tc := range cases {
		var p Price
		if err := json.Unmarshal([]byte(tc.in), &p); err != nil {
			t.Fatalf("%s unmarshal: %v", tc.in, err)
		}
		if p.IsKnown() != tc.known {
			t.Fatalf("%s expected known=%v", tc.in, tc.known)
		}
		if tc.known {
			v, _ := p.Value()
			if v.String() != tc.value {
				t.Fatalf("%s expected %s, got %s", tc.in, tc.value, v.String())
			}
		}
	}

	var p Price
	if err := json.Unmarshal([]byte(`"not a number"`), &p); err == nil {
		t.Fatal("expected error for non-numeric string")
	}
}

func TestPriceMarshal(t *testing.T) {
	b, err := json.Marshal(UnknownPrice())
	if err != nil {
		t.Fatalf("marshal unknown: %v", err)
	}
	if string(b) != "null" {
		t.Fatalf("expected null, got %s", b)
	}

	var in Price
	if err := json.Unmarshal([]byte("3.25"), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b, err = json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal known: %v", err)
	}
	if string(b) != "3.25" {
		t.Fatalf("expected 3.25, got %s", b)
	}
}
