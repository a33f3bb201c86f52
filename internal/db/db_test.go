package db

import "testing"

func TestSetTimezone_EmptyIsNoop(t *testing.T) {
	if err := SetTimezone(&DB{}, ""); err != nil {
		t.Fatalf("empty timezone: %v", err)
	}
}

func TestSetTimezone_RejectsUnknownName(t *testing.T) {
	cases := []string{
		"Not/AZone",
		"UTC'; DROP TABLE users; --",
	}
	for _, tz := range cases {
		if err := SetTimezone(&DB{}, tz); err == nil {
			t.Fatalf("timezone %q accepted, want error", tz)
		}
	}
}

func TestSetTimezone_AcceptsKnownNameWithoutPool(t *testing.T) {
	if err := SetTimezone(&DB{}, "UTC"); err != nil {
		t.Fatalf("UTC rejected: %v", err)
	}
}

func TestPing_MissingPoolNotReady(t *testing.T) {
	if err := Ping(nil); err == nil {
		t.Fatal("nil db reported ready")
	}
	if err := Ping(&DB{}); err == nil {
		t.Fatal("empty pool reported ready")
	}
}
