package handler

import "testing"

func TestSeatLabels(t *testing.T) {
	labels := seatLabels(25)
	if len(labels) != 25 {
		t.Fatalf("len = %d, want 25", len(labels))
	}
	cases := map[int]string{0: "A1", 9: "A10", 10: "B1", 24: "C5"}
	for idx, want := range cases {
		if labels[idx] != want {
			t.Errorf("labels[%d] = %q, want %q", idx, labels[idx], want)
		}
	}
}

func TestIndexToRowLabel(t *testing.T) {
	cases := map[int]string{0: "A", 25: "Z", 26: "AA", 51: "AZ", 52: "BA"}
	for idx, want := range cases {
		if got := indexToRowLabel(idx); got != want {
			t.Errorf("indexToRowLabel(%d) = %q, want %q", idx, got, want)
		}
	}
	if got := indexToRowLabel(-1); got != "" {
		t.Errorf("indexToRowLabel(-1) = %q, want empty", got)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := normalizeEmail("  Ana@Example.COM "); got != "ana@example.com" {
		t.Fatalf("normalizeEmail = %q", got)
	}
}
