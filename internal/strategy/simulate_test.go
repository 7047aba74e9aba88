package strategy

import (
	"bytes"
	"context"
	"testing"
)

func TestSimulateOutcome(t *testing.T) {
	s := NewSimulator(1, 0, 0)
	in := []byte("original file content")

	rec := &progressRecorder{}
	out, err := s.Compress(context.Background(), "file.doc", in, rec.report)
	if err != nil {
		t.Fatalf("simulation must never fail: %v", err)
	}

	if !bytes.Equal(out.Data, in) {
		t.Error("simulation must not transform the original bytes")
	}
	if out.Real {
		t.Error("simulated outcome must not claim real compression")
	}
	if out.Savings < 20 || out.Savings >= 50 {
		t.Errorf("fabricated savings %d outside [20,50)", out.Savings)
	}

	values := rec.snapshot()
	if len(values) == 0 || values[len(values)-1] != 100 {
		t.Fatalf("progress must end at 100, got %v", values)
	}
	prev := 0
	for _, p := range values {
		if p < prev {
			t.Fatalf("progress regressed: %v", values)
		}
		prev = p
	}
}

func TestSimulateDeterministicWithSeed(t *testing.T) {
	run := func() (int, []int) {
		s := NewSimulator(42, 0, 0)
		rec := &progressRecorder{}
		out, err := s.Compress(context.Background(), "file.ppt", []byte("data"), rec.report)
		if err != nil {
			t.Fatalf("Compress: %v", err)
		}
		return out.Savings, rec.snapshot()
	}

	savingsA, progressA := run()
	savingsB, progressB := run()

	if savingsA != savingsB {
		t.Errorf("same seed produced different savings: %d vs %d", savingsA, savingsB)
	}
	if len(progressA) != len(progressB) {
		t.Fatalf("same seed produced different timelines: %v vs %v", progressA, progressB)
	}
	for i := range progressA {
		if progressA[i] != progressB[i] {
			t.Fatalf("same seed produced different timelines: %v vs %v", progressA, progressB)
		}
	}
}

func TestSimulateEmptyInput(t *testing.T) {
	s := NewSimulator(3, 0, 0)
	out, err := s.Compress(context.Background(), "empty.xyz", nil, func(int) {})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(out.Data) != 0 {
		t.Error("expected empty data back")
	}
}
