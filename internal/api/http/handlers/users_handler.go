package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// UsersHandler exposes account and authentication endpoints.
type UsersHandler struct {
	auth     *service.AuthService
	users    *service.UserService
	validate *validator.Validate
	perPage  int
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService, validate *validator.Validate, defaultPerPage int) *UsersHandler {
	if validate == nil {
		validate = NewValidator()
	}
	if defaultPerPage <= 0 {
		defaultPerPage = 20
	}
	return &UsersHandler{auth: authService, users: userService, validate: validate, perPage: defaultPerPage}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	result, err := h.auth.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authPayload(result)})
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	result, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authPayload(result)})
}

// Me handles GET /auth/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(principal.User)})
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	page, err := h.users.ListUsers(c.UserContext(), actor(c), service.UserListQuery{
		IsAdmin:  queryBool(c, "is_admin"),
		IsActive: queryBool(c, "is_active"),
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		PerPage:  queryInt(c, "per_page", h.perPage),
	})
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.NewUserResponse(&page.Items[i]))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"items": items,
		"pagination": dto.Pagination{
			Page:       page.Page,
			PerPage:    page.PerPage,
			TotalCount: page.TotalCount,
			TotalPages: page.TotalPages,
			HasPrev:    page.Page > 1,
			HasNext:    page.Page < page.TotalPages,
		},
	}})
}

// Get handles GET /users/:username.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.GetUserByUsername(c.UserContext(), actor(c), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateProfile handles PUT /users/me.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.UserContext(), actor(c), service.ProfilePatch{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// SetAccess handles PUT /users/:id/access.
func (h *UsersHandler) SetAccess(c *fiber.Ctx) error {
	var req dto.UpdateUserAccessRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	user, err := h.users.SetAccess(c.UserContext(), actor(c), c.Params("id"), service.AccessPatch{
		IsAdmin:  req.IsAdmin,
		IsActive: req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

func authPayload(result *service.AuthResult) fiber.Map {
	return fiber.Map{
		"user": dto.NewUserResponse(result.User),
		"auth": dto.AuthResponse{Token: result.Token, TokenType: "Bearer", ExpiresAt: result.ExpiresAt},
	}
}
