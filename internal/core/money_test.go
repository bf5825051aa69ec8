package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"0.004", "", false}, // rounds to zero
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(amt(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error, got %s", tc.in, got)
			}
		}
	}
}

func TestCentsRoundTrip(t *testing.T) {
	cases := []string{"0.01", "1", "25.50", "1234.56"}
	for _, s := range cases {
		d := amt(s)
		if got := FromCents(Cents(d)); !got.Equal(d) {
			t.Fatalf("%s: round trip gave %s", s, got)
		}
	}
	if Cents(amt("25.50")) != 2550 {
		t.Fatalf("Cents(25.50) = %d, want 2550", Cents(amt("25.50")))
	}
}
