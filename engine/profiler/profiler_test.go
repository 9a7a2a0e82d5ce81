package profiler

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/voxels/common"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestTickReportsOncePerInterval(t *testing.T) {
	var buf bytes.Buffer
	common.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { common.SetLogger(nil) })

	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithInterval(time.Second), WithNow(clock.now))

	for range 29 {
		clock.t = clock.t.Add(time.Second / 60)
		if p.Tick(36) {
			t.Fatal("reported before the interval elapsed")
		}
	}
	clock.t = clock.t.Add(time.Second/2 + time.Second/50)
	if !p.Tick(36) {
		t.Fatal("expected a report after the interval elapsed")
	}

	s := p.Last()
	if s.Frames != 30 || s.VertexCount != 36 {
		t.Errorf("stats = %+v", s)
	}
	if s.FPS < 29 || s.FPS > 31 {
		t.Errorf("fps = %.2f, want about 30", s.FPS)
	}
	if !strings.Contains(buf.String(), "msg=profiler") || !strings.Contains(buf.String(), "vertices=36") {
		t.Errorf("log output = %q", buf.String())
	}

	clock.t = clock.t.Add(time.Millisecond)
	if p.Tick(36) {
		t.Error("counter was not reset after the report")
	}
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	if p.updateInterval != time.Second {
		t.Errorf("interval = %v, want 1s", p.updateInterval)
	}
}
