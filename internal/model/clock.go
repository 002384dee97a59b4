package model

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// TimeControl is the starting time per side plus the increment added after
// each completed move.
type TimeControl struct {
	Initial   time.Duration
	Increment time.Duration
}

type Clock struct {
	mu          sync.Mutex
	timeLeft    time.Duration
	increment   time.Duration
	lastStarted time.Time // When the clock was last started
	isRunning   bool
	untimed     bool
	now         func() time.Time
}

func NewClock(tc TimeControl) *Clock {
	return &Clock{
		timeLeft:  tc.Initial,
		increment: tc.Increment,
		untimed:   tc.Initial <= 0,
		now:       time.Now,
	}
}

func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning {
		c.lastStarted = c.now()
		c.isRunning = true
	}
}

// Stop halts the clock and, if it was running, credits the increment.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		c.timeLeft -= c.now().Sub(c.lastStarted)
		if c.timeLeft > 0 {
			c.timeLeft += c.increment
		}
		c.isRunning = false
		log.Debugf("clock stopped with %s left", c.timeLeft)
	}
}

func (c *Clock) GetTimeLeft() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		return c.timeLeft - c.now().Sub(c.lastStarted)
	}
	return c.timeLeft
}

// Expired reports whether the flag has fallen. An untimed clock never
// expires.
func (c *Clock) Expired() bool {
	return !c.untimed && c.GetTimeLeft() <= 0
}
