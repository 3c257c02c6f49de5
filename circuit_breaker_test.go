package webtoolkit

import (
	"sync"
	"testing"
	"time"
)

func TestCircuitBreakerClosedByDefault(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	if cb.IsOpen("example.com") {
		t.Error("Expected unseen key to be closed")
	}
}

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	cb.RecordFailure("example.com")
	cb.RecordFailure("example.com")
	if cb.IsOpen("example.com") {
		t.Error("Expected circuit closed below threshold")
	}

	cb.RecordFailure("example.com")
	if !cb.IsOpen("example.com") {
		t.Error("Expected circuit open at threshold")
	}
}

func TestCircuitBreakerKeyIsolation(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute)

	cb.RecordFailure("failing.example")
	if !cb.IsOpen("failing.example") {
		t.Fatal("Expected failing.example to be open")
	}
	if cb.IsOpen("healthy.example") {
		t.Error("Expected healthy.example to be unaffected")
	}
}

func TestCircuitBreakerSuccessResets(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		cb.RecordFailure("example.com")
	}
	if !cb.IsOpen("example.com") {
		t.Fatal("Expected circuit open")
	}

	cb.RecordSuccess("example.com")
	if cb.IsOpen("example.com") {
		t.Error("Expected circuit closed immediately after success")
	}
	if got := cb.Failures("example.com"); got != 0 {
		t.Errorf("Expected failure count reset to 0, got %d", got)
	}
}

func TestCircuitBreakerLazyRecovery(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)

	cb.RecordFailure("example.com")
	cb.RecordFailure("example.com")
	if !cb.IsOpen("example.com") {
		t.Fatal("Expected circuit open")
	}

	time.Sleep(70 * time.Millisecond)

	if cb.IsOpen("example.com") {
		t.Error("Expected circuit closed after recovery timeout")
	}
	if got := cb.Failures("example.com"); got != 0 {
		t.Errorf("Expected failure count reset after recovery, got %d", got)
	}
}

func TestCircuitBreakerFailureDuringRecoveryReopens(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)

	cb.RecordFailure("example.com")
	cb.RecordFailure("example.com")
	time.Sleep(70 * time.Millisecond)

	// Recovery resets the count; two fresh failures are needed to reopen.
	if cb.IsOpen("example.com") {
		t.Fatal("Expected recovery to close the circuit")
	}
	cb.RecordFailure("example.com")
	if cb.IsOpen("example.com") {
		t.Error("Expected one post-recovery failure to keep the circuit closed")
	}
	cb.RecordFailure("example.com")
	if !cb.IsOpen("example.com") {
		t.Error("Expected threshold failures to reopen the circuit")
	}
}

func TestCircuitBreakerDefaults(t *testing.T) {
	cb := NewCircuitBreaker(0, 0)

	if cb.failureThreshold != 5 {
		t.Errorf("Expected default threshold 5, got %d", cb.failureThreshold)
	}
	if cb.recoveryTimeout != 60*time.Second {
		t.Errorf("Expected default recovery timeout 60s, got %v", cb.recoveryTimeout)
	}
}

func TestCircuitBreakerConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker(100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				cb.RecordFailure("example.com")
				cb.IsOpen("example.com")
			}
		}()
	}
	wg.Wait()

	if got := cb.Failures("example.com"); got != 100 {
		t.Errorf("Expected 100 recorded failures, got %d", got)
	}
}
