package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/goje-timer/goje-go/pkg/timer"
)

func TestStateZeroValueIsPending(t *testing.T) {
	var st State
	assert.Equal(t, Pending(), st)
	assert.Equal(t, KindPending, st.Kind())
	assert.False(t, st.IsConnected())
}

func TestStateSnapshotOnlyWhenConnected(t *testing.T) {
	snap := timer.Initial(timer.DefaultConfig())

	for _, st := range []State{Pending(), Disconnected()} {
		got, ok := st.Snapshot()
		assert.False(t, ok, st.String())
		assert.Equal(t, timer.Snapshot{}, got)
	}

	got, ok := Connected(snap).Snapshot()
	assert.True(t, ok)
	assert.Equal(t, snap, got)
}

func TestStateEquality(t *testing.T) {
	a := timer.Initial(timer.DefaultConfig())
	b := a.WithDuration(time.Minute)

	assert.Equal(t, Connected(a), Connected(a))
	assert.NotEqual(t, Connected(a), Connected(b))
	assert.NotEqual(t, Disconnected(), Pending())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "PENDING", Pending().String())
	assert.Equal(t, "DISCONNECTED", Disconnected().String())

	snap := timer.Initial(timer.DefaultConfig()).WithMode(timer.ShortBreak).WithDuration(90 * time.Second)
	assert.Equal(t, "CONNECTED(Short Break 1m30s)", Connected(snap).String())
	assert.Equal(t, "UNKNOWN", Kind(7).String())
}
