package ports

import "time"

// DelayedTaskScheduler arms a one-shot deferred task per key. The shipped
// implementation is an in-process timer table; pair it with a periodic sweep
// when the task must survive restarts.
type DelayedTaskScheduler interface {
	// Schedule arms fn to run after delay. Re-scheduling the same key replaces
	// the pending timer.
	Schedule(key string, delay time.Duration, fn func())
	// Cancel disarms a pending task. Unknown keys are a no-op.
	Cancel(key string)
}
