package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out Money
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
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

func TestMoneyValidate(t *testing.T) {
	if err := Money(1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Money(0).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := Money(-100).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		in   Money
		want string
	}{
		{1234, "12.34"},
		{100, "1.00"},
		{5, "0.05"},
		{-7000, "-70.00"},
		{0, "0.00"},
	}
	for _, tc := range cases {
		if got := tc.in.String(); got != tc.want {
			t.Fatalf("Money(%d).String() = %q, want %q", int64(tc.in), got, tc.want)
		}
	}
}
