package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"0.01", 1, false},
		{"100", 10000, false},
		{"-7.50", -750, false},
		{"0", 0, false},
		{"12.345", 0, true},
		{"0.001", 0, true},
	}

	for _, tt := range tests {
		d, err := decimal.NewFromString(tt.in)
		if err != nil {
			t.Fatalf("bad fixture %q: %v", tt.in, err)
		}
		got, err := ToCents(d)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ToCents(%s): expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ToCents(%s) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ToCents(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFromCentsRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, -1, 1234, -99999, 10000} {
		d := FromCents(cents)
		back, err := ToCents(d)
		if err != nil {
			t.Fatalf("ToCents(FromCents(%d)) failed: %v", cents, err)
		}
		if back != cents {
			t.Errorf("round trip %d -> %s -> %d", cents, d, back)
		}
	}
}
