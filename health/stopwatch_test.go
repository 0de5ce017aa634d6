package health

import (
	"testing"
	"time"
)

func TestStopwatch(t *testing.T) {
	sw := StartStopwatch()
	if !sw.IsRunning() {
		t.Fatal("new stopwatch should be running")
	}

	time.Sleep(5 * time.Millisecond)
	stopped := sw.Stop()
	if stopped.IsRunning() {
		t.Error("stopped stopwatch should not be running")
	}
	if !sw.IsRunning() {
		t.Error("Stop should not change the receiver")
	}

	frozen := stopped.Elapsed()
	if frozen < 5*time.Millisecond {
		t.Errorf("Elapsed() = %v, want >= 5ms", frozen)
	}
	time.Sleep(2 * time.Millisecond)
	if stopped.Elapsed() != frozen {
		t.Error("stopped stopwatch should not advance")
	}
	if sw.Elapsed() <= frozen {
		t.Error("running stopwatch should keep advancing")
	}
	if stopped.Stop() != stopped {
		t.Error("stopping twice should be a no-op")
	}
}

func TestStopwatch_NoAllocations(t *testing.T) {
	allocs := testing.AllocsPerRun(100, func() {
		sw := StartStopwatch()
		_ = sw.Stop().Elapsed()
	})
	if allocs != 0 {
		t.Errorf("allocations = %v, want 0", allocs)
	}
}
