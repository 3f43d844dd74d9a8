package clock

import (
	"sync"
	"time"

	"github.com/shekified/life-tracker/internal/model"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FakeClock is deterministic and test-friendly.
type FakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

// NewFakeClockOn starts a FakeClock at noon local time on a YYYY-MM-DD date.
// It panics on a malformed date, which only happens in tests.
func NewFakeClockOn(date string) *FakeClock {
	d, err := time.ParseInLocation(model.DateLayout, date, time.Local)
	if err != nil {
		panic(err)
	}
	return NewFakeClock(d.Add(12 * time.Hour))
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// AdvanceDays moves the clock by whole calendar days.
func (c *FakeClock) AdvanceDays(n int) {
	c.mu.Lock()
	c.t = c.t.AddDate(0, 0, n)
	c.mu.Unlock()
}
