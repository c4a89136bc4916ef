package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// CategoriesHandler exposes ticket category endpoints.
type CategoriesHandler struct {
	service  *service.CategoryService
	validate *validator.Validate
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categoryService *service.CategoryService, validate *validator.Validate) *CategoriesHandler {
	if validate == nil {
		validate = NewValidator()
	}
	return &CategoriesHandler{service: categoryService, validate: validate}
}

// List GET /categories.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	summaries, err := h.service.ListCategories(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(summaries))
	for i := range summaries {
		items = append(items, categorySummary(&summaries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /categories/:id.
func (h *CategoriesHandler) Get(c *fiber.Ctx) error {
	summary, err := h.service.GetCategory(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categorySummary(summary)})
}

// Create POST /categories.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateCategoryRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	category, err := h.service.CreateCategory(c.UserContext(), actor(c), service.CategoryInput{
		Name:               req.Name,
		Description:        req.Description,
		Color:              req.Color,
		SLAResponseHours:   req.SLAResponseHours,
		SLAResolutionHours: req.SLAResolutionHours,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCategoryResponse(category)})
}

// Update PUT /categories/:id.
func (h *CategoriesHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateCategoryRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	category, err := h.service.UpdateCategory(c.UserContext(), actor(c), c.Params("id"), service.CategoryPatch{
		Name:               req.Name,
		Description:        req.Description,
		Color:              req.Color,
		SLAResponseHours:   req.SLAResponseHours,
		SLAResolutionHours: req.SLAResolutionHours,
		IsActive:           req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCategoryResponse(category)})
}

// Deactivate DELETE /categories/:id.
func (h *CategoriesHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.service.DeactivateCategory(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func categorySummary(summary *service.CategorySummary) dto.CategoryResponse {
	return dto.NewCategoryResponse(&summary.Category).WithCounts(summary.StatusCounts, summary.TotalTickets)
}
