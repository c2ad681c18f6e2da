package progress

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTerminalEmitWritesLine(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, 1000)
	term.Emit(Event{
		CurrentFile: "a.txt",
		BytesDone:   50,
		TotalBytes:  100,
		FilesDone:   1,
		TotalFiles:  2,
		Throughput:  2048,
		ETA:         5 * time.Second,
	})
	require.Contains(t, buf.String(), "a.txt")
	require.Contains(t, buf.String(), "50.0%")
}

func TestTerminalEmitDropsUpdatesFasterThanLimit(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, 1) // 1/sec
	term.Emit(Event{CurrentFile: "first"})
	before := buf.Len()
	term.Emit(Event{CurrentFile: "second"})
	require.Equal(t, before, buf.Len(), "second immediate emit should be rate-limited away")
}

func TestHumanRateFormatsUnits(t *testing.T) {
	require.Equal(t, "512B", humanRate(512))
	require.Equal(t, "1.0KiB", humanRate(1024))
}

func TestNopSinkDoesNotPanic(t *testing.T) {
	var s Sink = NopSink{}
	s.Emit(Event{})
}
