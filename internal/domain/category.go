package domain

import "time"

// Category defaults applied when a window or color is not supplied.
const (
	DefaultCategoryColor      = "#3B82F6"
	DefaultSLAResponseHours   = 24
	DefaultSLAResolutionHours = 72
	MaxSLAHours               = 8760
)

// TicketCategory is a triage bucket carrying SLA windows.
type TicketCategory struct {
	ID                 string
	Name               string
	Description        string
	Color              string
	IsActive           bool
	SLAResponseHours   int
	SLAResolutionHours int
	CreatedAt          time.Time
}

// ResponseWindow returns the first-response SLA window.
func (c *TicketCategory) ResponseWindow() time.Duration {
	return time.Duration(c.SLAResponseHours) * time.Hour
}

// ResolutionWindow returns the resolution SLA window.
func (c *TicketCategory) ResolutionWindow() time.Duration {
	return time.Duration(c.SLAResolutionHours) * time.Hour
}
