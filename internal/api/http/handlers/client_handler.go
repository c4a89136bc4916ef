package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// ClientHandler serves the unauthenticated client portal.
type ClientHandler struct {
	service  *service.ClientService
	validate *validator.Validate
}

// NewClientHandler constructs handler.
func NewClientHandler(clientService *service.ClientService, validate *validator.Validate) *ClientHandler {
	if validate == nil {
		validate = NewValidator()
	}
	return &ClientHandler{service: clientService, validate: validate}
}

// Submit POST /client/submit-ticket.
func (h *ClientHandler) Submit(c *fiber.Ctx) error {
	var req dto.ClientSubmitRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	result, err := h.service.SubmitClientTicket(c.UserContext(), actor(c), service.ClientSubmission{
		Name:        req.Name,
		Surname:     req.Surname,
		Email:       req.Email,
		Phone:       req.Phone,
		Company:     req.Company,
		Description: req.Description,
		FileRefs:    req.FileRefs,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ClientSubmitResponse{
		ReferenceNumber: result.ReferenceNumber,
		TicketNumber:    result.TicketNumber,
		Message:         "Your request has been received. Keep the reference number to check its status.",
	}})
}

// Status GET /client/ticket-status/:reference.
func (h *ClientHandler) Status(c *fiber.Ctx) error {
	status, err := h.service.GetClientTicketStatus(c.UserContext(), c.Params("reference"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ClientTicketStatusResponse{
		ReferenceNumber: status.ReferenceNumber,
		Status:          status.Status,
		SubmittedAt:     status.SubmittedAt,
		Description:     status.Description,
	}})
}
