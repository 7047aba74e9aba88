package model

import "testing"

func TestSavings(t *testing.T) {
	cases := []struct {
		original, compressed int64
		want                 int
	}{
		{1000, 400, 60},
		{1000, 1000, 0},
		{1000, 1500, 0}, // larger output never reports negative
		{0, 10, 0},
		{3, 2, 33},
		{3, 1, 67},
	}

	for _, tc := range cases {
		if got := Savings(tc.original, tc.compressed); got != tc.want {
			t.Errorf("Savings(%d, %d) = %d, want %d", tc.original, tc.compressed, got, tc.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{512, "512 Bytes"},
		{1536, "1.50 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
	}

	for _, tc := range cases {
		if got := FormatBytes(tc.in); got != tc.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []TaskState{StateSkipped, StateDone, StateFailed} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []TaskState{StateQueued, StateProcessing} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
