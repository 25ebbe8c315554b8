package stopper

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopperWaitsForRunningJobs(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		require.True(t, s.Add())
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(time.Millisecond)
			s.Done()
		}()
	}

	assert.False(t, s.Stopping())

	s.Stop()
	assert.True(t, s.Stopping())

	s.Wait()
	wg.Wait()

	assert.Equal(t, 0, s.Running())
}

func TestStopperRefusesJobsAfterStop(t *testing.T) {
	s := New()
	s.Stop()

	assert.False(t, s.Add())
	assert.Equal(t, 0, s.Running())

	select {
	case <-s.Stopped():
	default:
		t.Fatal("stopper with no jobs should be stopped right away")
	}
}

func TestStopperExtraDoneIsIgnored(t *testing.T) {
	s := New()

	s.Done()
	assert.Equal(t, 0, s.Running())

	require.True(t, s.Add())
	s.Done()
	s.Done()
	assert.Equal(t, 0, s.Running())
}

func TestStopperStopIsIdempotent(t *testing.T) {
	s := New()
	require.True(t, s.Add())

	s.Stop()
	s.Stop()

	select {
	case <-s.Stopped():
		t.Fatal("stopped while a job is still running")
	default:
	}

	s.Done()
	s.Wait()
}
