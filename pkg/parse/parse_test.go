package parse

import (
	"math"
	"testing"
)

func TestInt(t *testing.T) {
	if v, ok := Int(" 42 "); !ok || v != 42 {
		t.Errorf("Expected 42, got %d (ok=%v)", v, ok)
	}
	if v, ok := Int("0x1A"); !ok || v != 26 {
		t.Errorf("Expected 26 for hex input, got %d (ok=%v)", v, ok)
	}
	if v, ok := Int("0XFF"); !ok || v != 255 {
		t.Errorf("Expected 255 for upper-case hex prefix, got %d (ok=%v)", v, ok)
	}
	for _, bad := range []string{"", "   ", "abc", "0xZZ", "12.5", "1e3"} {
		if _, ok := Int(bad); ok {
			t.Errorf("Expected %q to parse as absent", bad)
		}
	}
}

func TestFloat(t *testing.T) {
	if v, ok := Float("1695205007.123"); !ok || math.Abs(v-1695205007.123) > 1e-6 {
		t.Errorf("Expected 1695205007.123, got %v (ok=%v)", v, ok)
	}
	if _, ok := Float("not-a-time"); ok {
		t.Error("Expected malformed float to parse as absent")
	}
	if _, ok := Float(""); ok {
		t.Error("Expected empty float to parse as absent")
	}
}

func TestTime(t *testing.T) {
	if v, err := Time("100.5"); err != nil || v != 100.5 {
		t.Errorf("Expected epoch passthrough, got %v err=%v", v, err)
	}

	// 2025-09-17T18:50:00Z
	const want = 1758135000.0
	for _, s := range []string{
		"2025-09-17T18:50:00Z",
		"2025-09-17T18:50:00+00:00",
		"2025-09-17T18:50:00",
	} {
		v, err := Time(s)
		if err != nil {
			t.Fatalf("Time(%q) failed: %v", s, err)
		}
		if math.Abs(v-want) > 1e-6 {
			t.Errorf("Time(%q) = %v, want %v", s, v, want)
		}
	}

	if v, err := Time("2025-09-17T20:50:00+02:00"); err != nil || math.Abs(v-want) > 1e-6 {
		t.Errorf("Expected offset form to normalize to UTC, got %v err=%v", v, err)
	}

	if _, err := Time("yesterday"); err == nil {
		t.Error("Expected error for unparseable time bound")
	}
}

func TestISOMillis(t *testing.T) {
	if got := ISOMillis(1758135000.123); got != "2025-09-17T18:50:00.123Z" {
		t.Errorf("ISOMillis = %q", got)
	}
	if got := ISOMillis(0); got != "1970-01-01T00:00:00.000Z" {
		t.Errorf("ISOMillis(0) = %q", got)
	}
}
