package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Debug(t *testing.T) {
	tests := []struct {
		name      string
		envValue  string
		expectLog bool
	}{
		{"logs when G2_DEBUG is set", "1", true},
		{"logs when G2_DEBUG is any value", "true", true},
		{"does not log when G2_DEBUG is empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(DebugEnv, tt.envValue)

			var buf bytes.Buffer
			l := New(&buf, "test")
			l.Debug("test message %s", "arg")

			if tt.expectLog {
				assert.Contains(t, buf.String(), "test message arg")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestNew_Levels(t *testing.T) {
	t.Setenv(DebugEnv, "")

	var buf bytes.Buffer
	l := New(&buf, "feed")
	l.Info("opened %s", "datamon.fifo")
	l.Warn("slow reader")
	l.Error("read failed: %v", "EOF")

	out := buf.String()
	assert.Contains(t, out, "opened datamon.fifo")
	assert.Contains(t, out, "slow reader")
	assert.Contains(t, out, "read failed: EOF")
	assert.Contains(t, out, "feed")
	assert.Equal(t, 3, strings.Count(out, "\n"))
}

func TestNoop(t *testing.T) {
	l := Noop()
	assert.NotPanics(t, func() {
		l.Debug("x")
		l.Info("x")
		l.Warn("x")
		l.Error("x")
	})
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()
	l.Info("hello %d", 1)
	l.Error("boom")

	msgs := l.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, LogMessage{Level: "info", Message: "hello 1"}, msgs[0])
	assert.True(t, l.HasLevel("error"))
	assert.False(t, l.HasLevel("warn"))
	assert.True(t, l.Contains("boom"))

	l.Clear()
	assert.Empty(t, l.Messages())
}

func TestBufferLogger_Concurrent(t *testing.T) {
	l := NewBufferLogger()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Debug("msg %d", j)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, l.Messages(), 400)
}

func TestDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	buf := NewBufferLogger()
	SetDefault(buf)
	Default().Warn("swapped")
	assert.True(t, buf.Contains("swapped"))
}

func TestOpenFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Slogs")
	f, err := OpenFile(dir, "console.log")
	require.NoError(t, err)
	_, err = f.WriteString("first\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = OpenFile(dir, "console.log")
	require.NoError(t, err)
	_, err = f.WriteString("second\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(filepath.Join(dir, "console.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestDiagnosticLog_Record(t *testing.T) {
	var buf bytes.Buffer
	d := NewDiagnosticLog(&buf)
	d.now = func() time.Time { return time.Date(2024, 3, 7, 9, 5, 1, 0, time.UTC) }

	d.Record(KindFeed, errors.New("unexpected end of JSON input"), "{\"ts\":\"X2024\n")

	want := "BEGIN datar exception\n" +
		"03/07/2024 09:05:01\n" +
		"unexpected end of JSON input\n" +
		"{\"ts\":\"X2024\n" +
		"END datar exception\n"
	assert.Equal(t, want, buf.String())
}

func TestDiagnosticLog_RepairBlock(t *testing.T) {
	var buf bytes.Buffer
	d := NewDiagnosticLog(&buf)

	d.Record(KindRepair, nil, "before: {\"x\":nan}", "after: {\"x\":0.0}")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "BEGIN jsonparser exception\n"))
	assert.Contains(t, out, "before: {\"x\":nan}\nafter: {\"x\":0.0}\n")
	assert.True(t, strings.HasSuffix(out, "END jsonparser exception\n"))
}

func TestDiagnosticLog_NilSafe(t *testing.T) {
	var d *DiagnosticLog
	assert.NotPanics(t, func() { d.Record(KindGPS, errors.New("x")) })
	assert.NotPanics(t, func() { NewDiagnosticLog(nil).Record(KindGPS, errors.New("x")) })
}

func TestDiagnosticLog_NoInterleaving(t *testing.T) {
	var buf bytes.Buffer
	d := NewDiagnosticLog(&buf)

	var wg sync.WaitGroup
	for _, kind := range []string{KindFeed, KindGPS} {
		wg.Add(1)
		go func(kind string) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				d.Record(kind, errors.New("bad"), "line")
			}
		}(kind)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 200*5)
	for i := 0; i < len(lines); i += 5 {
		begin := strings.TrimPrefix(lines[i], "BEGIN ")
		end := strings.TrimPrefix(lines[i+4], "END ")
		assert.Equal(t, begin, end)
	}
}
