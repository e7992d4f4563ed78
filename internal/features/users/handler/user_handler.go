package handler

import (
	"strings"

	"zapshift/internal/core/apperror"
	"zapshift/internal/core/server"
	"zapshift/internal/features/auth/middleware"
	"zapshift/internal/features/users/domain"
	"zapshift/internal/features/users/ports"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for account operations.
type UserHandler struct {
	userService ports.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRequest is the body of POST /users.
type RegisterRequest struct {
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

// UpdateRoleRequest is the body of PATCH /users/:id/role.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// Validate checks the requested role name.
func (r UpdateRoleRequest) Validate() (domain.Role, error) {
	return domain.ParseRole(r.Role)
}

// RoleResponse is the body of GET /users/:email/role.
type RoleResponse struct {
	Role domain.Role `json:"role"`
}

// SignIn godoc
// @Summary Register the signed-in user
// @Description Stores the caller on first sign-in and returns the existing account afterwards
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RegisterRequest false "Profile"
// @Success 200 {object} domain.User
// @Success 201 {object} domain.User
// @Failure 401 {object} server.ErrorResponse
// @Router /users [post]
func (h *UserHandler) SignIn(c *fiber.Ctx) error {
	var req RegisterRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return server.Fail(c, apperror.Invalid("invalid request body"))
		}
	}

	user, created, err := h.userService.Register(c.UserContext(), middleware.Email(c), req.Name, req.PhotoURL)
	if err != nil {
		return server.Fail(c, err)
	}
	if created {
		return c.Status(fiber.StatusCreated).JSON(user)
	}
	return c.JSON(user)
}

// List godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param email query string false "Email fragment"
// @Success 200 {array} domain.User
// @Failure 403 {object} server.ErrorResponse
// @Router /users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.userService.List(c.UserContext(), c.Query("email"))
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(users)
}

// GetRole godoc
// @Summary Get the role of a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param email path string true "User email"
// @Success 200 {object} RoleResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /users/{email}/role [get]
func (h *UserHandler) GetRole(c *fiber.Ctx) error {
	role, err := h.userService.RoleOf(c.UserContext(), strings.TrimSpace(c.Params("email")))
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(RoleResponse{Role: role})
}

// UpdateRole godoc
// @Summary Change the role of a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User id"
// @Param request body UpdateRoleRequest true "New role"
// @Success 200 {object} domain.User
// @Failure 400 {object} server.ErrorResponse
// @Failure 401 {object} server.ErrorResponse
// @Failure 403 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /users/{id}/role [patch]
func (h *UserHandler) UpdateRole(c *fiber.Ctx) error {
	var req UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Fail(c, apperror.Invalid("invalid request body"))
	}
	role, err := req.Validate()
	if err != nil {
		return server.Fail(c, err)
	}

	user, err := h.userService.UpdateRole(c.UserContext(), c.Params("id"), role)
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(user)
}

// Register mounts the user routes behind gate.
func (h *UserHandler) Register(r fiber.Router, gate *middleware.Gate) {
	users := r.Group("/users", gate.RequireAuth)
	users.Post("/", h.SignIn)
	users.Get("/", gate.RequireAdmin, h.List)
	users.Get("/:email/role", h.GetRole)
	users.Patch("/:id/role", gate.RequireAdmin, h.UpdateRole)
}
