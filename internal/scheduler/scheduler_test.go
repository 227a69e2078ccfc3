package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/progress/internal/clock"
	"github.com/example/progress/internal/engine"
)

type recordingNotifier struct {
	mu   sync.Mutex
	seen []engine.Due
}

func (r *recordingNotifier) Remind(_ context.Context, due engine.Due) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, due)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func staticSource(due engine.Due) DueSource {
	return func(context.Context) (engine.Due, error) { return due, nil }
}

func sampleDue() engine.Due {
	return engine.Due{
		Date:    clock.MustParse("2025-01-05"),
		Habits:  []string{"read", "walk"},
		Reviews: []string{"card1"},
	}
}

func atHour(h int) func() time.Time {
	return func() time.Time { return time.Date(2025, 1, 5, h, 30, 0, 0, time.UTC) }
}

func TestInWindow(t *testing.T) {
	s := New(nil, nil, Config{StartHour: 8, EndHour: 22, Location: time.UTC}, nil)
	assert.False(t, s.InWindow(7))
	assert.True(t, s.InWindow(8))
	assert.True(t, s.InWindow(22))
	assert.False(t, s.InWindow(23))

	wrap := New(nil, nil, Config{StartHour: 22, EndHour: 2, Location: time.UTC}, nil)
	assert.True(t, wrap.InWindow(23))
	assert.True(t, wrap.InWindow(1))
	assert.False(t, wrap.InWindow(12))
}

func TestTick_NotifiesInsideWindow(t *testing.T) {
	n := &recordingNotifier{}
	s := New(staticSource(sampleDue()), n, Config{StartHour: 8, EndHour: 22, Location: time.UTC}, nil)
	s.now = atHour(9)

	s.tick(context.Background())
	require.Equal(t, 1, n.count())
	assert.Equal(t, sampleDue(), n.seen[0])
}

func TestTick_SkipsOutsideWindow(t *testing.T) {
	n := &recordingNotifier{}
	called := false
	src := func(context.Context) (engine.Due, error) {
		called = true
		return sampleDue(), nil
	}
	s := New(src, n, Config{StartHour: 8, EndHour: 22, Location: time.UTC}, nil)
	s.now = atHour(3)

	s.tick(context.Background())
	assert.False(t, called, "store is not opened outside notification hours")
	assert.Zero(t, n.count())
}

func TestTick_LogsSourceFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	src := func(context.Context) (engine.Due, error) { return engine.Due{}, errors.New("store busy") }
	s := New(src, &recordingNotifier{}, Config{StartHour: 0, EndHour: 23, Location: time.UTC}, zap.New(core))
	s.now = atHour(12)

	s.tick(context.Background())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "reminder run failed", logs.All()[0].Message)
}

func TestRunOnce_NothingDueDoesNotNotify(t *testing.T) {
	n := &recordingNotifier{}
	empty := engine.Due{Date: clock.MustParse("2025-01-05"), Habits: []string{}, Reviews: []string{}}
	s := New(staticSource(empty), n, DefaultConfig(), nil)

	due, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, due.Empty())
	assert.Zero(t, n.count())
}

func TestRunOnce_NoSource(t *testing.T) {
	s := New(nil, &recordingNotifier{}, DefaultConfig(), nil)
	_, err := s.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	n := &recordingNotifier{}
	s := New(staticSource(sampleDue()), n, Config{Every: time.Hour, StartHour: 0, EndHour: 23, Location: time.UTC}, nil)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	assert.Eventually(t, func() bool { return n.count() >= 1 }, 2*time.Second, 10*time.Millisecond,
		"first run happens immediately")
}

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriterNotifier{W: &buf}.Remind(context.Background(), sampleDue()))
	assert.Equal(t, "2025-01-05: 2 habits due (read, walk); 1 review due (card1)\n", buf.String())
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	require.NoError(t, LogNotifier{Logger: zap.New(core)}.Remind(context.Background(), sampleDue()))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "reminder", entry.Message)
	assert.Equal(t, "2025-01-05", entry.ContextMap()["date"])
}

func TestFormatReminder_NothingDue(t *testing.T) {
	due := engine.Due{Date: clock.MustParse("2025-01-05")}
	assert.Equal(t, "2025-01-05: nothing due", FormatReminder(due))
}
