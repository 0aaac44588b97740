package payroll

import (
	"math"
	"testing"
)

func TestComputePay(t *testing.T) {
	cases := []struct {
		name                        string
		base, allowances, ded, tax  float64
		wantGross, wantNet          float64
	}{
		{"zeros", 0, 0, 0, 0, 0, 0},
		{"base only", 5000, 0, 0, 0, 5000, 5000},
		{"full stack", 5000, 250.50, 120.25, 830.10, 5250.50, 4300.15},
		{"net can go negative", 100, 0, 150, 0, 100, -50},
		{"float noise rounds away", 1000.10, 0.2, 0, 0, 1000.30, 1000.30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gross, net := ComputePay(tc.base, tc.allowances, tc.ded, tc.tax)
			if gross != tc.wantGross || net != tc.wantNet {
				t.Fatalf("got gross=%v net=%v, want gross=%v net=%v", gross, net, tc.wantGross, tc.wantNet)
			}
		})
	}
}

func TestValidAmount(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -0.01} {
		if ValidAmount(bad) {
			t.Fatalf("%v must be invalid", bad)
		}
	}
	for _, good := range []float64{0, 0.01, 123456.78} {
		if !ValidAmount(good) {
			t.Fatalf("%v must be valid", good)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(1234.5); got != "1234.50" {
		t.Fatalf("got %q", got)
	}
	if got := FormatAmount(0); got != "0.00" {
		t.Fatalf("got %q", got)
	}
}
