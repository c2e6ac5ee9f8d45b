package reactor

import (
	"runtime"
	"testing"
	"time"
)

// waitForLoopRunning spins until loop reaches StateRunning, failing the
// test if it doesn't within 5 seconds.
func waitForLoopRunning(t *testing.T, loop *Loop) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for loop.State() != StateRunning {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for loop to start running")
		default:
			runtime.Gosched()
		}
	}
}
