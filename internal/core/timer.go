package core

import "time"

// DefaultTurnTimeout is how long a turn holder has to name a city.
const DefaultTurnTimeout = 15 * time.Second

// TurnTimer is a cancelable one-shot callback.
type TurnTimer struct {
	t *time.Timer
}

// StartTurnTimer runs fire on its own goroutine after d unless stopped first.
func StartTurnTimer(d time.Duration, fire func()) *TurnTimer {
	return &TurnTimer{t: time.AfterFunc(d, fire)}
}

// Stop cancels the timer. It reports false if the callback already started.
func (t *TurnTimer) Stop() bool {
	if t == nil || t.t == nil {
		return false
	}
	return t.t.Stop()
}
