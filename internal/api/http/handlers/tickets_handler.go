package handlers

import (
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service     *service.TicketService
	attachments *service.AttachmentService
	validate    *validator.Validate
	perPage     int
}

// NewTicketsHandler constructs handler. defaultPerPage applies when the caller omits per_page.
func NewTicketsHandler(ticketService *service.TicketService, attachments *service.AttachmentService, validate *validator.Validate, defaultPerPage int) *TicketsHandler {
	if validate == nil {
		validate = NewValidator()
	}
	if defaultPerPage <= 0 {
		defaultPerPage = 20
	}
	return &TicketsHandler{service: ticketService, attachments: attachments, validate: validate, perPage: defaultPerPage}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), actor(c), service.TicketCreateInput{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		CategoryID:     req.CategoryID,
		AssignedToID:   req.AssignedToID,
		EstimatedHours: req.EstimatedHours,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	query, err := parseTicketQuery(c, h.perPage)
	if err != nil {
		return err
	}
	page, err := h.service.ListTickets(c.UserContext(), actor(c), query)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, h.ticketResponse(&page.Items[i]))
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Items: items,
		Pagination: dto.Pagination{
			Page:       page.Page,
			PerPage:    page.PerPage,
			TotalCount: page.TotalCount,
			TotalPages: page.TotalPages,
			HasPrev:    page.HasPrev,
			HasNext:    page.HasNext,
		},
	}})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), actor(c), c.Params("id"), service.TicketPatch{
		Title:           req.Title,
		Description:     req.Description,
		ResolutionNotes: req.ResolutionNotes,
		EstimatedHours:  req.EstimatedHours,
		ActualHours:     req.ActualHours,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.SoftDeleteTicket(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UpdateStatus POST /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	ticket, err := h.service.UpdateStatus(c.UserContext(), actor(c), c.Params("id"), req.Status, req.ConfirmReopen)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// UpdatePriority POST /tickets/:id/priority.
func (h *TicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	var req dto.UpdatePriorityRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	ticket, err := h.service.UpdatePriority(c.UserContext(), actor(c), c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// Assign POST /tickets/:id/assign. A null assignee clears the assignment.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	ticket, err := h.service.Reassign(c.UserContext(), actor(c), c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// ChangeCategory POST /tickets/:id/category.
func (h *TicketsHandler) ChangeCategory(c *fiber.Ctx) error {
	var req dto.ChangeCategoryRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	ticket, err := h.service.ChangeCategory(c.UserContext(), actor(c), c.Params("id"), req.CategoryID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// ListAudit GET /tickets/:id/audit.
func (h *TicketsHandler) ListAudit(c *fiber.Ctx) error {
	logs, err := h.service.ListTicketAudit(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AuditLogResponse, 0, len(logs))
	for _, entry := range logs {
		items = append(items, dto.NewAuditLogResponse(entry))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UploadAttachment POST /tickets/:id/attachments (multipart field "file").
func (h *TicketsHandler) UploadAttachment(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		fields := apperrors.FieldErrors{}
		fields.Add("file", "is required")
		return fields.Err()
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable upload", nil)
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, domain.MaxAttachmentSize+1))
	if err != nil {
		return apperrors.NewValidationError("unreadable upload", nil)
	}
	attachment, err := h.attachments.UploadAttachment(c.UserContext(), actor(c), c.Params("id"), header.Filename, content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAttachmentResponse(*attachment)})
}

// ListAttachments GET /tickets/:id/attachments.
func (h *TicketsHandler) ListAttachments(c *fiber.Ctx) error {
	attachments, err := h.attachments.ListAttachments(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		items = append(items, dto.NewAttachmentResponse(a))
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *TicketsHandler) ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.NewTicketResponse(ticket, h.service.SLAStatus(ticket))
}

func parseTicketQuery(c *fiber.Ctx, defaultPerPage int) (service.TicketListQuery, error) {
	query := service.TicketListQuery{
		CategoryID:   queryString(c, "category_id"),
		AssignedToID: queryString(c, "assigned_to_id"),
		Search:       c.Query("search"),
		Page:         queryInt(c, "page", 1),
		PerPage:      queryInt(c, "per_page", defaultPerPage),
	}
	fields := apperrors.FieldErrors{}
	if raw := queryString(c, "status"); raw != nil {
		status := domain.TicketStatus(*raw)
		if !status.Valid() {
			fields.Add("status", "unknown status")
		}
		query.Status = &status
	}
	if raw := queryString(c, "priority"); raw != nil {
		priority := domain.TicketPriority(*raw)
		if !priority.Valid() {
			fields.Add("priority", "unknown priority")
		}
		query.Priority = &priority
	}
	return query, fields.Err()
}
