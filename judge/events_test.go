package judge

import (
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterDeliversToSubscribers(t *testing.T) {
	restore := nowFunc
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return fixed }
	defer func() { nowFunc = restore }()

	b := NewBroadcaster(hclog.NewNullLogger())
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Emit("job-1", "primed", "/tmp/ws")

	select {
	case ev := <-ch:
		require.Equal(t, "job-1", ev.JobID)
		require.Equal(t, "primed", ev.Type)
		require.Equal(t, fixed, ev.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBroadcasterCancelStopsDelivery(t *testing.T) {
	b := NewBroadcaster(hclog.NewNullLogger())
	ch, cancel := b.Subscribe()
	cancel()

	b.Emit("job-1", "primed", "")

	_, ok := <-ch
	require.False(t, ok, "channel should be closed after cancel")
}

func TestBroadcasterDropsOnFullChannel(t *testing.T) {
	b := NewBroadcaster(hclog.NewNullLogger())
	_, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < 64; i++ {
		b.Emit("job-1", "run", "")
	}
}
