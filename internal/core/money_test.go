package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"0", 0, true}, // zero allowed here; callers enforce positivity
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"10.50", 1050, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyDecimalString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{1050, "10.50"},
		{123456, "1234.56"},
		{-250, "-2.50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).DecimalString(); got != tc.want {
			t.Fatalf("cents=%d expected %q, got %q", tc.cents, tc.want, got)
		}
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	b, err := Money{Cents: 1050}.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "10.50" {
		t.Fatalf("expected 10.50, got %s", b)
	}

	var m Money
	if err := m.UnmarshalJSON([]byte("10.50")); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if m.Cents != 1050 {
		t.Fatalf("expected 1050 cents, got %d", m.Cents)
	}
	if err := m.UnmarshalJSON([]byte(`"3.99"`)); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if m.Cents != 399 {
		t.Fatalf("expected 399 cents, got %d", m.Cents)
	}
}
