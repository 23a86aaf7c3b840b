package models

import "testing"

func TestIsValidStatus(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusInStock, true},
		{StatusIncoming, true},
		{Status(""), false},
		{Status("Sold Out"), false},
		{Status("in-stock"), false}, // sheet values are case-sensitive
	}

	for _, tt := range tests {
		if got := IsValidStatus(tt.status); got != tt.want {
			t.Errorf("IsValidStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
