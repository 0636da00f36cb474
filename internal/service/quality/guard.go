package quality

import (
	"fmt"
	"time"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
)

// DefaultEditWindow is how long an entry stays editable when nothing else is configured.
const DefaultEditWindow = time.Hour

const (
	msgNotFound = "entry not found"
	msgExpired  = "this entry can no longer be edited, the edit window has closed"
)

// Guard decides whether an entry may still be mutated. An entry is Editable until
// CreatedAt+window (inclusive) and Locked afterwards; the transition never reverses.
type Guard struct {
	window time.Duration
	now    func() time.Time
}

// NewGuard builds a guard. A non-positive window falls back to DefaultEditWindow and a nil clock
// to time.Now.
func NewGuard(window time.Duration, now func() time.Time) *Guard {
	if window <= 0 {
		window = DefaultEditWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Guard{window: window, now: now}
}

// Window returns the configured edit window.
func (g *Guard) Window() time.Duration {
	return g.window
}

// Deadline returns the last instant at which the entry may be edited.
func (g *Guard) Deadline(e *models.Entry) time.Time {
	return e.CreatedAt.Add(g.window)
}

// CanEdit reports whether the entry is editable at now. The deadline instant itself still counts.
func (g *Guard) CanEdit(e *models.Entry, now time.Time) bool {
	if e == nil {
		return false
	}
	return !now.After(g.Deadline(e))
}

// Check evaluates the entry against the guard clock. A nil entry yields the not-found verdict.
func (g *Guard) Check(e *models.Entry) models.EditabilityCheck {
	if e == nil {
		return models.EditabilityCheck{CanEdit: false, Message: msgNotFound}
	}

	now := g.now()
	deadline := g.Deadline(e)
	check := models.EditabilityCheck{
		CreatedAt:    e.CreatedAt,
		EditDeadline: deadline,
	}

	if !g.CanEdit(e, now) {
		check.Message = msgExpired
		return check
	}

	remaining := deadline.Sub(now)
	check.CanEdit = true
	check.TimeRemaining = &remaining
	check.RemainingText = FormatRemaining(remaining)
	check.Message = fmt.Sprintf("this entry can be edited for another %s", check.RemainingText)
	return check
}

// Authorize returns an EditWindowExpiredError when the entry is locked. Callers resolve
// existence first; a nil entry is never authorized.
func (g *Guard) Authorize(e *models.Entry) error {
	if e == nil {
		return ErrEditWindowExpired
	}
	now := g.now()
	if g.CanEdit(e, now) {
		return nil
	}
	deadline := g.Deadline(e)
	return &EditWindowExpiredError{Deadline: deadline, Elapsed: now.Sub(deadline)}
}

// FormatRemaining renders a duration as h:mm:ss.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
