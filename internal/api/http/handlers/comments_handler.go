package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// CommentsHandler exposes ticket comment endpoints.
type CommentsHandler struct {
	service  *service.CommentService
	validate *validator.Validate
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService, validate *validator.Validate) *CommentsHandler {
	if validate == nil {
		validate = NewValidator()
	}
	return &CommentsHandler{service: commentService, validate: validate}
}

// AddComment POST /tickets/:id/comments.
func (h *CommentsHandler) AddComment(c *fiber.Ctx) error {
	var req dto.AddCommentRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	comment, err := h.service.AddComment(c.UserContext(), actor(c), c.Params("id"), req.Content, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(*comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *CommentsHandler) ListComments(c *fiber.Ctx) error {
	comments, err := h.service.ListComments(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		items = append(items, dto.NewCommentResponse(comment))
	}
	return c.JSON(fiber.Map{"data": items})
}

// EditComment PUT /comments/:id.
func (h *CommentsHandler) EditComment(c *fiber.Ctx) error {
	var req dto.EditCommentRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	comment, err := h.service.EditComment(c.UserContext(), actor(c), c.Params("id"), req.Content, req.IsInternal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentResponse(*comment)})
}

// DeleteComment DELETE /comments/:id.
func (h *CommentsHandler) DeleteComment(c *fiber.Ctx) error {
	if err := h.service.SoftDeleteComment(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RestoreComment POST /comments/:id/restore.
func (h *CommentsHandler) RestoreComment(c *fiber.Ctx) error {
	comment, err := h.service.RestoreComment(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentResponse(*comment)})
}
