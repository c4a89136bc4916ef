package domain

import "time"

// SLAStatus is the derived, never persisted SLA health of a ticket.
type SLAStatus string

const (
	SLAStatusWithin      SLAStatus = "Within SLA"
	SLAStatusApproaching SLAStatus = "Approaching Breach"
	SLAStatusBreached    SLAStatus = "Breached"
)

// DefaultApproachingWindow is the lead time before the resolution deadline that counts as approaching.
const DefaultApproachingWindow = 4 * time.Hour

// SLADueDates derives the response and resolution deadlines for a ticket created at createdAt.
// A window of zero hours leaves the matching deadline unset.
func SLADueDates(createdAt time.Time, category *TicketCategory) (responseDue, resolutionDue *time.Time) {
	if category == nil {
		return nil, nil
	}
	if category.SLAResponseHours > 0 {
		due := createdAt.Add(category.ResponseWindow())
		responseDue = &due
	}
	if category.SLAResolutionHours > 0 {
		due := createdAt.Add(category.ResolutionWindow())
		resolutionDue = &due
	}
	return responseDue, resolutionDue
}

// SLAStatusAt evaluates the ticket's resolution SLA at now. The stored breach flag wins over the
// clock; otherwise a passed deadline is a breach and a deadline within window is approaching.
func (t *Ticket) SLAStatusAt(now time.Time, window time.Duration) SLAStatus {
	if t.SLAResolutionBreached {
		return SLAStatusBreached
	}
	if t.SLAResolutionDue == nil {
		return SLAStatusWithin
	}
	due := *t.SLAResolutionDue
	if now.After(due) {
		return SLAStatusBreached
	}
	if window <= 0 {
		window = DefaultApproachingWindow
	}
	if due.Sub(now) <= window {
		return SLAStatusApproaching
	}
	return SLAStatusWithin
}
