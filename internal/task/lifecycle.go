package task

import "time"

// The overdue boundary is not the due instant itself: a task only turns
// Overdue at 00:01 on the day after its due date. The extra day absorbs
// clock skew between viewers and gives assignees a courtesy window. This
// is a product rule, not an implementation detail.
//
// OverdueBoundary returns that instant in the due time's location.
func OverdueBoundary(due time.Time) time.Time {
	year, month, day := due.Date()
	return time.Date(year, month, day+1, 0, 1, 0, 0, due.Location())
}

// Evaluate computes the canonical status of a task at the given instant.
// It is a pure function of the task's persisted fields and now: callers
// may apply it repeatedly and concurrently, and whichever result is
// written back last encodes the same value. Completed is sticky; a task
// that has any submission is Completed no matter what the clock says.
func Evaluate(t *Task, now time.Time) Status {
	if t.Status == StatusCompleted || len(t.Submissions) > 0 {
		return StatusCompleted
	}
	if !now.Before(OverdueBoundary(t.DueTime)) {
		return StatusOverdue
	}
	switch t.Status {
	case StatusExtended, StatusExtendedOverdue:
		// Edit-derived states hold as long as the boundary is ahead.
		return t.Status
	}
	if !now.Before(t.StartTime) {
		return StatusInProgress
	}
	return StatusStarted
}

// EvaluateEdit computes the status after the task's dates were edited,
// given the status the task held before the edit. Unlike the time-driven
// derivation in Evaluate, an edit that drags the due date behind now is
// an explicit statement that the task is late, so the raw due time is
// compared without the grace window.
func EvaluateEdit(prev Status, t *Task, now time.Time) Status {
	if prev == StatusCompleted || len(t.Submissions) > 0 {
		return StatusCompleted
	}
	if t.DueTime.Before(now) {
		return StatusOverdue
	}
	if prev == StatusOverdue || prev == StatusExtendedOverdue {
		return StatusExtendedOverdue
	}
	return StatusExtended
}
