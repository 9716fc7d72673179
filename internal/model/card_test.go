package model

import "testing"

func TestLastFourOf(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   string
	}{
		{"plain", "4111111111111111", "1111"},
		{"spaced", "4111 1111 1111 1234", "1234"},
		{"short", "123", "123"},
		{"empty", "", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := LastFourOf(test.number); got != test.want {
				t.Fatalf("LastFourOf(%q) = %q, want %q", test.number, got, test.want)
			}
		})
	}
}

func TestDetectBrand(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   string
	}{
		{"visa", "4111 1111 1111 1111", BrandVisa},
		{"mastercard", "5500005555555559", BrandMastercard},
		{"amex", "371449635398431", BrandAmex},
		{"mada_visa_range", "4462 0300 0000 0000", BrandMada},
		{"mada_mc_range", "5888000000000000", BrandMada},
		{"unknown", "6011000990139424", BrandUnknown},
		{"too_short", "4", BrandUnknown},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := DetectBrand(test.number); got != test.want {
				t.Fatalf("DetectBrand(%q) = %q, want %q", test.number, got, test.want)
			}
		})
	}
}
