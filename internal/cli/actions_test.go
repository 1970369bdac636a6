package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goje-timer/goje-go/pkg/duration"
	"github.com/goje-timer/goje-go/pkg/stream"
	"github.com/goje-timer/goje-go/pkg/timer"
)

func TestSeekTarget(t *testing.T) {
	cur := timer.Initial(timer.DefaultConfig()).WithDuration(10 * time.Minute)

	tests := []struct {
		arg  string
		want time.Duration
	}{
		{"5m", 5 * time.Minute},
		{"1h30m", 90 * time.Minute},
		{"+30s", 10*time.Minute + 30*time.Second},
		{"-1m", 9 * time.Minute},
		{"-1h", 0},
		{"0s", 0},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := seekTarget(cur, tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Duration)
		})
	}

	_, err := seekTarget(cur, "later")
	assert.ErrorIs(t, err, duration.ErrNoUnits)
	_, err = seekTarget(cur, "-")
	assert.Error(t, err)
}

func TestSessionsTarget(t *testing.T) {
	cur := timer.Initial(timer.DefaultConfig()).WithFinishedSessions(2)

	tests := []struct {
		arg  string
		want uint
	}{
		{"3", 3},
		{"+1", 3},
		{"-1", 1},
		{"-5", 0},
	}
	for _, tt := range tests {
		got, err := sessionsTarget(cur, tt.arg)
		require.NoError(t, err, tt.arg)
		assert.Equal(t, tt.want, got.FinishedSessions, tt.arg)
	}

	_, err := sessionsTarget(cur, "many")
	assert.Error(t, err)
}

func TestApplySettings(t *testing.T) {
	base := timer.DefaultConfig()

	got, err := applySettings(base, []string{
		"pomodoro=50m",
		"Short Break=10m",
		"long_break=45m",
		"sessions=3",
		"paused=on",
		"tick=10ms",
	})
	require.NoError(t, err)
	assert.Equal(t, 50*time.Minute, got.Duration[timer.Pomodoro])
	assert.Equal(t, 10*time.Minute, got.Duration[timer.ShortBreak])
	assert.Equal(t, 45*time.Minute, got.Duration[timer.LongBreak])
	assert.Equal(t, uint(3), got.Sessions)
	assert.True(t, got.Paused)
	assert.Equal(t, 10*time.Millisecond, got.DurationPerTick)
	assert.Equal(t, timer.DefaultConfig(), base, "input is not modified")

	for _, bad := range []string{
		"pomodoro",
		"lunch=1h",
		"sessions=0",
		"sessions=-1",
		"paused=sometimes",
		"tick=0s",
		"pomodoro=long",
	} {
		_, err := applySettings(base, []string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParseOnOff(t *testing.T) {
	for _, s := range []string{"on", "ON", "true", "yes", "1"} {
		v, err := parseOnOff(s)
		require.NoError(t, err, s)
		assert.True(t, v, s)
	}
	for _, s := range []string{"off", "false", "no", "0", "resume"} {
		v, err := parseOnOff(s)
		require.NoError(t, err, s)
		assert.False(t, v, s)
	}
	_, err := parseOnOff("toggle")
	assert.Error(t, err)
}

func TestFindAction(t *testing.T) {
	act, ok := findAction("n")
	require.True(t, ok)
	assert.Equal(t, "next", act.name)

	act, ok = findAction("seek")
	require.True(t, ok)
	assert.Equal(t, "seek <dur>|+<dur>|-<dur>", act.usage())
	assert.Error(t, act.checkArgs(nil))
	assert.Error(t, act.checkArgs([]string{"1m", "2m"}))
	assert.NoError(t, act.checkArgs([]string{"1m"}))

	act, ok = findAction("set")
	require.True(t, ok)
	assert.NoError(t, act.checkArgs([]string{"a=1", "b=2", "c=3"}))

	_, ok = findAction("rewind")
	assert.False(t, ok)
}

func TestStatusLine(t *testing.T) {
	s := timer.Initial(timer.DefaultConfig()).WithMode(timer.ShortBreak).WithDuration(4*time.Minute + 59*time.Second)

	assert.Equal(t, "Connecting...", statusLine(stream.Pending()))
	assert.Equal(t, stream.OfflineMessage, statusLine(stream.Disconnected()))
	assert.Equal(t, "Short Break 04:59  0/4", statusLine(stream.Connected(s)))
	assert.Equal(t, "Short Break 04:59  0/4  (paused)", statusLine(stream.Connected(s.WithPaused(true))))

	long := s.WithDuration(time.Hour + time.Minute + 500*time.Millisecond)
	long.Config.DurationPerTick = 100 * time.Millisecond
	assert.Equal(t, "Short Break 01:01:00.05  0/4", snapshotLine(long))
}

func TestPrompt(t *testing.T) {
	s := timer.Initial(timer.DefaultConfig())

	assert.Equal(t, "[Connecting...] goje> ", prompt(stream.Pending()))
	assert.Equal(t, "["+stream.OfflineMessage+"] goje> ", prompt(stream.Disconnected()))
	assert.Equal(t, "[Pomodoro 25:00  0/4  0%] goje> ", prompt(stream.Connected(s)))
	assert.Equal(t, "[Pomodoro 20:00  0/4  20%] goje> ", prompt(stream.Connected(s.WithDuration(20*time.Minute))))
	assert.Equal(t, "[Pomodoro 00:00  0/4  100%] goje> ", prompt(stream.Connected(s.WithDuration(0))))
}
