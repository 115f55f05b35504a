package telemetry

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestRecord_GracefulShutdown tests that the sample channel closes when the
// context is cancelled and that the closure propagates through converters
// and the recorder.
func TestRecord_GracefulShutdown(t *testing.T) {
	var n atomic.Int64
	probe := ProbeFunc(func() Sample {
		i := n.Add(1)
		return Sample{Timestamp: t0.Add(time.Duration(i) * time.Millisecond), Distance: float64(i)}
	})

	ctx, cancel := context.WithCancel(context.Background())
	samples := NewAveragingConverter(3, 10)(Record(ctx, probe, 5*time.Millisecond, 10))

	r := NewRecorder(testWindow())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Process(samples)
	}()

	assert.Eventually(t, func() bool {
		return len(r.Samples()) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("recorder did not stop within timeout")
	}

	_, ok := <-samples
	assert.False(t, ok, "channel should be closed")
}
