package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/wesleyorama2/settle/bench/clock"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNewRecorder(t *testing.T) {
	r := NewRecorder(clock.NewManual(epoch))
	if r == nil {
		t.Fatal("NewRecorder() returned nil")
	}

	if h := r.PhaseHistory(); len(h) != 0 {
		t.Errorf("Initial history = %+v, want empty", h)
	}
	summary := r.Summary()
	if summary.Count != 0 {
		t.Errorf("Initial Count = %d, want 0", summary.Count)
	}
	if summary.P99 != 0 {
		t.Errorf("Initial P99 = %v, want 0", summary.P99)
	}
}

func TestRecorder_Percentiles(t *testing.T) {
	r := NewRecorder(clock.NewManual(epoch))

	for i := 1; i <= 100; i++ {
		r.RecordSample(int64(i) * int64(time.Microsecond))
	}

	s := r.Summary()
	if s.Count != 100 {
		t.Fatalf("Count = %d, want 100", s.Count)
	}
	if s.Min != time.Microsecond {
		t.Errorf("Min = %v, want 1µs", s.Min)
	}
	// HDR histogram buckets round to 3 significant figures.
	within := func(got, want time.Duration) bool {
		diff := got - want
		if diff < 0 {
			diff = -diff
		}
		return diff <= want/100
	}
	if !within(s.Max, 100*time.Microsecond) {
		t.Errorf("Max = %v, want ~100µs", s.Max)
	}
	if !within(s.P50, 50*time.Microsecond) {
		t.Errorf("P50 = %v, want ~50µs", s.P50)
	}
	if !within(s.P99, 99*time.Microsecond) {
		t.Errorf("P99 = %v, want ~99µs", s.P99)
	}
	if !within(s.Mean, 50500*time.Nanosecond) {
		t.Errorf("Mean = %v, want ~50.5µs", s.Mean)
	}
}

func TestRecorder_WarmupNotInHistogram(t *testing.T) {
	r := NewRecorder(clock.NewManual(epoch))

	r.SetPhase(PhaseWarmup)
	for i := 0; i < 7; i++ {
		r.RecordWarmup()
	}
	r.SetPhase(PhaseMeasuring)
	r.RecordSample(1000)
	r.RecordSample(1000)

	s := r.Summary()
	if s.Count != 2 {
		t.Errorf("Count = %d, want 2", s.Count)
	}
	if s.WarmupRuns != 7 {
		t.Errorf("WarmupRuns = %d, want 7", s.WarmupRuns)
	}
}

func TestRecorder_Clamping(t *testing.T) {
	r := NewRecorder(clock.NewManual(epoch))

	r.RecordSample(0)
	r.RecordSample(-5)
	r.RecordSample(int64(2 * time.Hour))
	r.RecordSample(500)

	s := r.Summary()
	if s.Count != 4 {
		t.Errorf("Count = %d, want 4", s.Count)
	}
	if s.Clamped != 3 {
		t.Errorf("Clamped = %d, want 3", s.Clamped)
	}
	if s.Min != 1 {
		t.Errorf("Min = %v, want 1ns", s.Min)
	}
}

func TestRecorder_PhaseHistory(t *testing.T) {
	clk := clock.NewManual(epoch)
	r := NewRecorder(clk)

	r.SetPhase(PhaseWarmup)
	r.RecordWarmup()
	clk.Advance(time.Second)
	r.SetPhase(PhaseMeasuring)
	r.SetPhase(PhaseMeasuring) // no change
	r.RecordSample(10)
	r.RecordSample(20)
	clk.Advance(time.Second)
	r.SetPhase(PhaseDone)

	history := r.PhaseHistory()
	if len(history) != 3 {
		t.Fatalf("PhaseHistory length = %d, want 3", len(history))
	}

	want := []PhaseChange{
		{Phase: PhaseWarmup, Timestamp: epoch, WarmupRuns: 0, Runs: 0},
		{Phase: PhaseMeasuring, Timestamp: epoch.Add(time.Second), WarmupRuns: 1, Runs: 0},
		{Phase: PhaseDone, Timestamp: epoch.Add(2 * time.Second), WarmupRuns: 1, Runs: 2},
	}
	for i, w := range want {
		if !history[i].Timestamp.Equal(w.Timestamp) || history[i].Phase != w.Phase ||
			history[i].WarmupRuns != w.WarmupRuns || history[i].Runs != w.Runs {
			t.Errorf("history[%d] = %+v, want %+v", i, history[i], w)
		}
	}

	// Returned slice is a copy.
	history[0].Phase = PhaseDone
	if r.PhaseHistory()[0].Phase != PhaseWarmup {
		t.Error("PhaseHistory() exposed internal state")
	}
}

func TestRecorder_ConcurrentReads(t *testing.T) {
	r := NewRecorder(clock.NewManual(epoch))
	r.SetPhase(PhaseMeasuring)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			r.RecordSample(int64(i + 1))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = r.Summary()
			_ = r.PhaseHistory()
		}
	}()
	wg.Wait()

	if got := r.Summary().Count; got != 1000 {
		t.Errorf("Count = %d, want 1000", got)
	}
}
