package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Export kinds.
const (
	ExportTickets = "tickets"
	ExportAudit   = "audit"
)

const (
	defaultDashboardDays = 30
	maxDashboardDays     = 365
	exportSheet          = "Report"
)

// ReportService builds administrator dashboards and exports.
type ReportService struct {
	uow    repository.UnitOfWork
	logger *zap.Logger
	window time.Duration
	clock  Clock
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	UnitOfWork        repository.UnitOfWork
	Logger            *zap.Logger
	ApproachingWindow time.Duration
	Clock             Clock
}

// Distribution is one bucket of a breakdown.
type Distribution struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Color      string  `json:"color,omitempty"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Dashboard summarizes the ticket base.
type Dashboard struct {
	TotalTickets      int            `json:"total_tickets"`
	OpenTickets       int            `json:"open_tickets"`
	InProgressTickets int            `json:"in_progress_tickets"`
	ResolvedTickets   int            `json:"resolved_tickets"`
	RecentTickets     int            `json:"recent_tickets"`
	ResolutionRate    float64        `json:"resolution_rate"`
	SLABreached       int            `json:"sla_breached"`
	SLAApproaching    int            `json:"sla_approaching"`
	SLAComplianceRate float64        `json:"sla_compliance_rate"`
	ActiveUsers       int            `json:"active_users"`
	RecentlySeenUsers int            `json:"recently_seen_users"`
	RecentComments    int            `json:"recent_comments"`
	ByCategory        []Distribution `json:"category_distribution"`
	ByPriority        []Distribution `json:"priority_distribution"`
	ByStatus          []Distribution `json:"status_distribution"`
	DateRangeDays     int            `json:"date_range_days"`
}

// ExportQuery selects rows for an export. Zero times default to the last 30 days.
type ExportQuery struct {
	Type  string
	Start time.Time
	End   time.Time
}

// Export is a tabular report.
type Export struct {
	Type    string           `json:"report_type"`
	Start   time.Time        `json:"start_date"`
	End     time.Time        `json:"end_date"`
	Total   int              `json:"total_records"`
	Columns []string         `json:"-"`
	Rows    []map[string]any `json:"data"`
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	window := deps.ApproachingWindow
	if window <= 0 {
		window = domain.DefaultApproachingWindow
	}
	return &ReportService{
		uow:    deps.UnitOfWork,
		logger: defaultLogger(deps.Logger),
		window: window,
		clock:  defaultClock(deps.Clock),
	}
}

// Dashboard computes statistics over live tickets. days bounds the "recent" counters.
func (s *ReportService) Dashboard(ctx context.Context, actor Actor, days int) (*Dashboard, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = defaultDashboardDays
	}
	if days > maxDashboardDays {
		days = maxDashboardDays
	}

	now := s.clock()
	since := now.AddDate(0, 0, -days)
	repos := s.uow.Repos()

	stats, err := repos.Reports.TicketStats(ctx, since, now.Add(s.window))
	if err != nil {
		return nil, persistErr(s.logger, "report.tickets", err)
	}
	users, err := repos.Reports.UserStats(ctx, since)
	if err != nil {
		return nil, persistErr(s.logger, "report.users", err)
	}
	comments, err := repos.Reports.CountCommentsSince(ctx, since)
	if err != nil {
		return nil, persistErr(s.logger, "report.comments", err)
	}
	categories, err := repos.Categories.ListActive(ctx)
	if err != nil {
		return nil, persistErr(s.logger, "report.categories", err)
	}

	resolved := stats.ByStatus[domain.TicketStatusResolved] + stats.ByStatus[domain.TicketStatusClosed]
	dashboard := &Dashboard{
		TotalTickets:      stats.Total,
		OpenTickets:       stats.ByStatus[domain.TicketStatusOpen],
		InProgressTickets: stats.ByStatus[domain.TicketStatusInProgress],
		ResolvedTickets:   resolved,
		RecentTickets:     stats.CreatedSince,
		ResolutionRate:    percent(resolved, stats.Total, 0),
		SLABreached:       stats.Breached,
		SLAApproaching:    stats.Approaching,
		SLAComplianceRate: percent(stats.Total-stats.Breached, stats.Total, 100),
		ActiveUsers:       users.Active,
		RecentlySeenUsers: users.SeenSince,
		RecentComments:    comments,
		DateRangeDays:     days,
	}
	for _, category := range categories {
		n := stats.ByCategory[category.ID]
		dashboard.ByCategory = append(dashboard.ByCategory, Distribution{
			Key: category.ID, Label: category.Name, Color: category.Color,
			Count: n, Percentage: percent(n, stats.Total, 0),
		})
	}
	for _, priority := range domain.TicketPriorities {
		n := stats.ByPriority[priority]
		dashboard.ByPriority = append(dashboard.ByPriority, Distribution{
			Key: string(priority), Label: string(priority),
			Count: n, Percentage: percent(n, stats.Total, 0),
		})
	}
	for _, status := range domain.TicketStatuses {
		n := stats.ByStatus[status]
		dashboard.ByStatus = append(dashboard.ByStatus, Distribution{
			Key: string(status), Label: string(status),
			Count: n, Percentage: percent(n, stats.Total, 0),
		})
	}
	return dashboard, nil
}

// Export collects ticket or audit rows created within the query range, newest first.
func (s *ReportService) Export(ctx context.Context, actor Actor, query ExportQuery) (*Export, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if query.Type == "" {
		query.Type = ExportTickets
	}
	if query.End.IsZero() {
		query.End = s.clock()
	}
	if query.Start.IsZero() {
		query.Start = query.End.AddDate(0, 0, -defaultDashboardDays)
	}
	if query.Start.After(query.End) {
		errs := apperrors.FieldErrors{}
		errs.Add("start_date", "must not be after end_date")
		return nil, errs.Err()
	}

	var (
		export *Export
		err    error
	)
	switch query.Type {
	case ExportTickets:
		export, err = s.exportTickets(ctx, query)
	case ExportAudit:
		export, err = s.exportAudit(ctx, query)
	default:
		errs := apperrors.FieldErrors{}
		errs.Add("type", "must be tickets or audit")
		return nil, errs.Err()
	}
	if err != nil {
		return nil, persistErr(s.logger, "report.export", err)
	}
	export.Type = query.Type
	export.Start = query.Start
	export.End = query.End
	export.Total = len(export.Rows)
	return export, nil
}

func (s *ReportService) exportTickets(ctx context.Context, query ExportQuery) (*Export, error) {
	repos := s.uow.Repos()
	tickets, err := repos.Tickets.ListCreatedBetween(ctx, query.Start, query.End)
	if err != nil {
		return nil, err
	}
	names := newNameCache(repos)
	export := &Export{
		Columns: []string{"id", "ticket_number", "title", "status", "priority", "category", "created_by",
			"assigned_to", "created_at", "resolved_at", "sla_breached"},
		Rows: make([]map[string]any, 0, len(tickets)),
	}
	for _, t := range tickets {
		category, err := names.category(ctx, t.CategoryID)
		if err != nil {
			return nil, err
		}
		creator, err := names.user(ctx, t.CreatedByID, "Client")
		if err != nil {
			return nil, err
		}
		assignee, err := names.user(ctx, t.AssignedToID, "Unassigned")
		if err != nil {
			return nil, err
		}
		var resolvedAt any
		if t.ResolvedAt != nil {
			resolvedAt = *t.ResolvedAt
		}
		export.Rows = append(export.Rows, map[string]any{
			"id":            t.ID,
			"ticket_number": t.TicketNumber,
			"title":         t.Title,
			"status":        string(t.Status),
			"priority":      string(t.Priority),
			"category":      category,
			"created_by":    creator,
			"assigned_to":   assignee,
			"created_at":    t.CreatedAt,
			"resolved_at":   resolvedAt,
			"sla_breached":  t.SLAResolutionBreached,
		})
	}
	return export, nil
}

func (s *ReportService) exportAudit(ctx context.Context, query ExportQuery) (*Export, error) {
	repos := s.uow.Repos()
	entries, err := repos.Audit.ListBetween(ctx, query.Start, query.End)
	if err != nil {
		return nil, err
	}
	names := newNameCache(repos)
	export := &Export{
		Columns: []string{"id", "action", "details", "user", "ticket_id", "ip_address", "created_at"},
		Rows:    make([]map[string]any, 0, len(entries)),
	}
	for _, entry := range entries {
		user, err := names.user(ctx, entry.UserID, "System")
		if err != nil {
			return nil, err
		}
		var ticketID any
		if entry.TicketID != nil {
			ticketID = *entry.TicketID
		}
		export.Rows = append(export.Rows, map[string]any{
			"id":         entry.ID,
			"action":     string(entry.Action),
			"details":    entry.Details,
			"user":       user,
			"ticket_id":  ticketID,
			"ip_address": entry.IPAddress,
			"created_at": entry.CreatedAt,
		})
	}
	return export, nil
}

// ExportXLSX renders an export as a single sheet workbook.
func (s *ReportService) ExportXLSX(export *Export) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	for i, col := range export.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, col); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for rowIdx, row := range export.Rows {
		for colIdx, col := range export.Columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			var value any
			switch v := row[col].(type) {
			case time.Time:
				value = v.UTC().Format(time.RFC3339)
			case nil:
				value = ""
			default:
				value = v
			}
			if err := f.SetCellValue(exportSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	for i := range export.Columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(exportSheet, col, col, 20)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("xlsx export failed", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	return buffer.Bytes(), nil
}

// ExportFilename suggests a download name such as tickets_20240101_20240131.xlsx.
func ExportFilename(export *Export, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", export.Type, export.Start.Format("20060102"), export.End.Format("20060102"), ext)
}

func percent(part, total int, empty float64) float64 {
	if total <= 0 {
		return empty
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

// nameCache memoizes user and category display names for one export.
type nameCache struct {
	repos      repository.Repositories
	users      map[string]string
	categories map[string]string
}

func newNameCache(repos repository.Repositories) *nameCache {
	return &nameCache{repos: repos, users: map[string]string{}, categories: map[string]string{}}
}

func (c *nameCache) user(ctx context.Context, id *string, fallback string) (string, error) {
	if id == nil {
		return fallback, nil
	}
	if name, ok := c.users[*id]; ok {
		return name, nil
	}
	user, err := c.repos.Users.GetByID(ctx, *id)
	switch {
	case err == nil:
		c.users[*id] = user.Username
	case isNotFound(err):
		c.users[*id] = fallback
	default:
		return "", err
	}
	return c.users[*id], nil
}

func (c *nameCache) category(ctx context.Context, id *string) (string, error) {
	if id == nil {
		return "Uncategorized", nil
	}
	if name, ok := c.categories[*id]; ok {
		return name, nil
	}
	category, err := c.repos.Categories.GetByID(ctx, *id)
	switch {
	case err == nil:
		c.categories[*id] = category.Name
	case isNotFound(err):
		c.categories[*id] = "Uncategorized"
	default:
		return "", err
	}
	return c.categories[*id], nil
}
