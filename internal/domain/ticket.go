package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusPending    TicketStatus = "Pending"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
	TicketStatusCancelled  TicketStatus = "Cancelled"
)

// TicketStatuses lists every valid status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusPending,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusCancelled,
}

// Valid reports whether s is one of the six known statuses.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether leaving s needs an administrative reopen.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed || s == TicketStatusCancelled
}

// IsActive reports whether work on the ticket is still outstanding.
func (s TicketStatus) IsActive() bool {
	return s == TicketStatusOpen || s == TicketStatusInProgress || s == TicketStatusPending
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

// TicketPriorities lists every valid priority from lowest to highest.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityCritical,
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	for _, candidate := range TicketPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// Field limits for ticket content.
const (
	TicketTitleMinLen       = 5
	TicketTitleMaxLen       = 150
	TicketDescriptionMinLen = 10
	TicketDescriptionMaxLen = 5000
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                    string
	TicketNumber          string
	Title                 string
	Description           string
	Status                TicketStatus
	Priority              TicketPriority
	CategoryID            *string
	CreatedByID           *string
	AssignedToID          *string
	IsDeleted             bool
	ResolutionNotes       string
	EstimatedHours        *float64
	ActualHours           *float64
	CreatedAt             time.Time
	UpdatedAt             time.Time
	ResolvedAt            *time.Time
	ClosedAt              *time.Time
	SLAResponseDue        *time.Time
	SLAResolutionDue      *time.Time
	SLAResponseBreached   bool
	SLAResolutionBreached bool
	FirstResponseAt       *time.Time
}

// IsCreator reports whether userID filed the ticket.
func (t *Ticket) IsCreator(userID string) bool {
	return t.CreatedByID != nil && *t.CreatedByID == userID
}

// IsAssignee reports whether userID is the current assignee.
func (t *Ticket) IsAssignee(userID string) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}

// IsStaffFor reports whether user is an administrator or the ticket's current assignee.
func (t *Ticket) IsStaffFor(user *User) bool {
	if user == nil {
		return false
	}
	return user.IsAdmin || t.IsAssignee(user.ID)
}

// CanBeViewedBy reports whether user is related to the ticket as admin, creator or assignee.
func (t *Ticket) CanBeViewedBy(user *User) bool {
	if user == nil {
		return false
	}
	return user.IsAdmin || t.IsCreator(user.ID) || t.IsAssignee(user.ID)
}

// ApplyCategory points the ticket at category and recomputes both SLA deadlines from CreatedAt.
// A nil category clears the deadlines. Breach flags are sticky and left untouched.
func (t *Ticket) ApplyCategory(category *TicketCategory) {
	if category == nil {
		t.CategoryID = nil
		t.SLAResponseDue = nil
		t.SLAResolutionDue = nil
		return
	}
	id := category.ID
	t.CategoryID = &id
	t.SLAResponseDue, t.SLAResolutionDue = SLADueDates(t.CreatedAt, category)
}

// TransitionTo moves the ticket into next and stamps resolution/closure times the first time
// those states are entered. It returns false when next equals the current status.
func (t *Ticket) TransitionTo(next TicketStatus, at time.Time) bool {
	if t.Status == next {
		return false
	}
	t.Status = next
	switch next {
	case TicketStatusResolved:
		if t.ResolvedAt == nil {
			stamp := at
			t.ResolvedAt = &stamp
		}
		if t.SLAResolutionDue != nil && t.ResolvedAt.After(*t.SLAResolutionDue) {
			t.SLAResolutionBreached = true
		}
	case TicketStatusClosed:
		if t.ClosedAt == nil {
			stamp := at
			t.ClosedAt = &stamp
		}
	}
	return true
}

// RecordFirstResponse stamps the first staff response and flags a response breach when it
// lands after the response deadline. It returns true when the stamp was applied.
func (t *Ticket) RecordFirstResponse(responderIsStaff bool, at time.Time) bool {
	if t.FirstResponseAt != nil || !responderIsStaff {
		return false
	}
	stamp := at
	t.FirstResponseAt = &stamp
	if t.SLAResponseDue != nil && at.After(*t.SLAResponseDue) {
		t.SLAResponseBreached = true
	}
	return true
}

// MarkResolutionBreachIfOverdue sets the sticky resolution breach flag for active tickets past
// their deadline. It returns true when the flag changed.
func (t *Ticket) MarkResolutionBreachIfOverdue(now time.Time) bool {
	if t.SLAResolutionBreached || t.SLAResolutionDue == nil || !t.Status.IsActive() {
		return false
	}
	if !now.After(*t.SLAResolutionDue) {
		return false
	}
	t.SLAResolutionBreached = true
	return true
}
