package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ReferencePrefix starts every public client reference number.
const ReferencePrefix = "CT"

// ErrInvalidReference is returned for malformed client reference numbers.
var ErrInvalidReference = errors.New("invalid reference number format")

// ClientTicket is a public submission linked one-to-one with an internal ticket.
type ClientTicket struct {
	ID              string
	Sequence        int64
	ReferenceNumber string
	TicketID        string
	Name            string
	Surname         string
	Phone           string
	Email           string
	Company         string
	Description     string
	FileRefs        []string
	CreatedAt       time.Time
}

// FormatReferenceNumber renders seq as CT followed by a six digit, zero padded number.
func FormatReferenceNumber(seq int64) string {
	return fmt.Sprintf("%s%06d", ReferencePrefix, seq)
}

// ParseReferenceNumber extracts the sequence from a reference such as CT000042.
func ParseReferenceNumber(ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, ReferencePrefix) {
		return 0, ErrInvalidReference
	}
	digits := ref[len(ReferencePrefix):]
	if len(digits) < 6 {
		return 0, ErrInvalidReference
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || seq <= 0 {
		return 0, ErrInvalidReference
	}
	return seq, nil
}
