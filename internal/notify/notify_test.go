package notify

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	var r Recorder
	Warn(&r, "live data unavailable")
	Info(&r, "refreshed")
	Warn(&r, "again")

	assert.Equal(t, 2, r.Count(LevelWarn))
	assert.Equal(t, 1, r.Count(LevelInfo))
	assert.Equal(t, 0, r.Count(LevelError))
	assert.Len(t, r.Notices(), 3)
	assert.Equal(t, "live data unavailable", r.Notices()[0].Message)
}

func TestLoggerNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	Warn(n, "nothing to export")
	Success(n, "exported")

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "nothing to export")
	assert.Contains(t, out, "kind=success")
}
