package uniform

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestUpdaterStartsAtZero(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	u := NewUpdater(WithClock(clock))
	if got := u.Advance().Elapsed; got != 0 {
		t.Errorf("first Advance() = %v, want 0", got)
	}
}

func TestUpdaterNonDecreasing(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	u := NewUpdater(WithClock(clock))

	steps := []time.Duration{16 * time.Millisecond, 0, 33 * time.Millisecond, -10 * time.Millisecond, time.Second}
	prev := u.Advance().Elapsed
	for i, d := range steps {
		clock.advance(d)
		got := u.Advance().Elapsed
		if got < prev {
			t.Fatalf("step %d: Advance() = %v, previous %v", i, got, prev)
		}
		prev = got
	}
	if want := 1.039; math.Abs(u.Elapsed()-want) > 1e-9 {
		t.Errorf("Elapsed() = %v, want %v", u.Elapsed(), want)
	}
}

func TestUpdaterReset(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	u := NewUpdater(WithClock(clock))
	clock.advance(5 * time.Second)
	u.Advance()
	u.Reset()
	if got := u.Advance().Elapsed; got != 0 {
		t.Errorf("Advance() after Reset = %v, want 0", got)
	}
}

func TestUpdaterSystemClock(t *testing.T) {
	u := NewUpdater()
	first := u.Advance().Elapsed
	if first < 0 || first > 1 {
		t.Errorf("elapsed right after creation = %v, want ~0", first)
	}
	time.Sleep(time.Millisecond)
	if second := u.Advance().Elapsed; second < first {
		t.Errorf("second sample %v < first %v", second, first)
	}
}

func TestTimeUniformMarshal(t *testing.T) {
	b := TimeUniform{Elapsed: 2.5}.Marshal()
	if len(b) != TimeUniformSize {
		t.Fatalf("len = %d, want %d", len(b), TimeUniformSize)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b)); got != 2.5 {
		t.Errorf("decoded %v, want 2.5", got)
	}
}
