package model

import (
	"testing"
	"time"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time { return f.t }

func TestClock(t *testing.T) {
	now := &fakeNow{t: time.Unix(0, 0)}
	c := NewClock(TimeControl{Initial: time.Minute, Increment: 2 * time.Second})
	c.now = now.now

	c.Start()
	now.t = now.t.Add(10 * time.Second)
	if got := c.GetTimeLeft(); got != 50*time.Second {
		t.Errorf("running: %s left, want 50s", got)
	}
	c.Stop()
	if got := c.GetTimeLeft(); got != 52*time.Second {
		t.Errorf("after stop: %s left, want 52s with increment", got)
	}
	now.t = now.t.Add(time.Hour)
	if got := c.GetTimeLeft(); got != 52*time.Second {
		t.Errorf("stopped clock moved: %s", got)
	}

	c.Start()
	now.t = now.t.Add(53 * time.Second)
	if !c.Expired() {
		t.Error("clock should have run out")
	}
	c.Stop()
	if got := c.GetTimeLeft(); got != -time.Second {
		t.Errorf("no increment after flag fall: %s", got)
	}
}

func TestUntimedClockNeverExpires(t *testing.T) {
	now := &fakeNow{t: time.Unix(0, 0)}
	c := NewClock(TimeControl{})
	c.now = now.now
	c.Start()
	now.t = now.t.Add(24 * time.Hour)
	if c.Expired() {
		t.Error("untimed clock expired")
	}
}
