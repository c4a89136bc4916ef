package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Actor identifies who performs an operation and where the request came from.
// A nil User means an anonymous client or the system itself.
type Actor struct {
	User      *domain.User
	IP        string
	UserAgent string
}

// SystemActor is used by background jobs.
func SystemActor() Actor {
	return Actor{UserAgent: "system"}
}

// UserID returns the acting user's id, or nil for anonymous and system actors.
func (a Actor) UserID() *string {
	if a.User == nil {
		return nil
	}
	id := a.User.ID
	return &id
}

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool {
	return a.User != nil && a.User.IsAdmin
}

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

func defaultClock(c Clock) Clock {
	if c != nil {
		return c
	}
	return func() time.Time { return time.Now().UTC() }
}

// Metrics receives business counters.
type Metrics interface {
	TicketCreated(source string)
	StatusChanged(from, to domain.TicketStatus)
	SLABreached(kind string)
}

type nopMetrics struct{}

func (nopMetrics) TicketCreated(string) {}

func (nopMetrics) StatusChanged(domain.TicketStatus, domain.TicketStatus) {}

func (nopMetrics) SLABreached(string) {}

func defaultMetrics(m Metrics) Metrics {
	if m != nil {
		return m
	}
	return nopMetrics{}
}

func defaultLogger(l *zap.Logger) *zap.Logger {
	if l != nil {
		return l
	}
	return zap.NewNop()
}

// lookupErr converts a repository read failure into NOT_FOUND or INTERNAL.
func lookupErr(err error, resource string, details map[string]any) error {
	if isNotFound(err) {
		return apperrors.NewNotFound(resource, details)
	}
	return apperrors.MapError(err)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// persistErr logs the cause of a store failure and hides it behind a generic error.
// Domain errors raised inside a transaction pass through untouched.
func persistErr(logger *zap.Logger, op string, err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		if domainErr.Code == apperrors.CodeInternal {
			logger.Error("persistence failure", zap.String("op", op), zap.Error(domainErr.Err))
		}
		return domainErr
	}
	logger.Error("persistence failure", zap.String("op", op), zap.Error(err))
	return apperrors.NewInternalError(err)
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = dispatcher.Publish(ctx, event)
}

func eventActor(actor Actor) events.Actor {
	if actor.User == nil {
		return events.Actor{System: actor.UserAgent == "system"}
	}
	return events.Actor{UserID: actor.UserID(), IsAdmin: actor.User.IsAdmin}
}

func requireUser(actor Actor) error {
	if actor.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return nil
}

func requireAdmin(actor Actor) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if !actor.User.IsAdmin {
		return apperrors.NewForbidden("administrator role required")
	}
	return nil
}

func checkLength(errs apperrors.FieldErrors, field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n < min:
		errs.Add(field, "must be at least "+strconv.Itoa(min)+" characters")
	case n > max:
		errs.Add(field, "must be at most "+strconv.Itoa(max)+" characters")
	}
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= max {
		return body
	}
	runes := []rune(body)
	return string(runes[:max]) + "..."
}

func strOrNone(v *string) string {
	if v == nil || *v == "" {
		return "none"
	}
	return *v
}

const maxSearchLen = 100

// clampPage forces page to at least 1 and perPage into [1, max].
func clampPage(page, perPage, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	if perPage > max {
		perPage = max
	}
	return page, perPage
}

func totalPages(total, perPage int) int {
	return (total + perPage - 1) / perPage
}

func truncateSearch(search string) string {
	search = strings.TrimSpace(search)
	if runes := []rune(search); len(runes) > maxSearchLen {
		search = string(runes[:maxSearchLen])
	}
	return search
}
