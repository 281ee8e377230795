package practice

import "time"

// Ticker is the subset of time.Ticker the loop depends on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers and reports the current time.
type Clock interface {
	Now() time.Time
	NewTicker(time.Duration) Ticker
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) NewTicker(d time.Duration) Ticker {
	return wallTicker{time.NewTicker(d)}
}

type wallTicker struct {
	*time.Ticker
}

func (t wallTicker) C() <-chan time.Time { return t.Ticker.C }
