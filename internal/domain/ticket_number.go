package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicketNumberGenerator produces candidate ticket numbers. Uniqueness is checked by the caller.
type TicketNumberGenerator func(now time.Time) string

// NewTicketNumberGenerator returns a generator of PREFIX-YYYYMMDD-XXXXXX numbers where the
// suffix is six random hex characters.
func NewTicketNumberGenerator(prefix string) TicketNumberGenerator {
	if prefix == "" {
		prefix = "TKT"
	}
	return func(now time.Time) string {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
		return prefix + "-" + now.UTC().Format("20060102") + "-" + suffix
	}
}
