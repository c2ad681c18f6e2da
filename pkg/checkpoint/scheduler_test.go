package checkpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduledGCRunsOnSchedule(t *testing.T) {
	m := newManager(t)

	state, err := m.Create("/src", "/dst", map[string]*FileTransferState{}, 0)
	require.NoError(t, err)
	require.NoError(t, m.Transition(state, StatusCompleted))
	require.NoError(t, m.Save(state))

	gc, err := NewScheduledGC("@every 100ms", m, 0, nil)
	require.NoError(t, err)
	defer gc.Stop()

	require.Eventually(t, func() bool {
		states, err := m.List()
		return err == nil && len(states) == 0
	}, 2*time.Second, 50*time.Millisecond, "scheduled gc never removed the terminal transfer state")
}

func TestScheduledGCRejectsInvalidSpec(t *testing.T) {
	m := newManager(t)
	_, err := NewScheduledGC("not a cron spec", m, 0, nil)
	require.Error(t, err)
}

func TestScheduledGCStopWaitsForRun(t *testing.T) {
	m := newManager(t)
	gc, err := NewScheduledGC("@every 1h", m, 0, nil)
	require.NoError(t, err)
	gc.Stop()
}
