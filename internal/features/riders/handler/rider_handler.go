package handler

import (
	"zapshift/internal/core/apperror"
	"zapshift/internal/core/server"
	"zapshift/internal/features/auth/middleware"
	"zapshift/internal/features/riders/domain"
	"zapshift/internal/features/riders/ports"

	"github.com/gofiber/fiber/v2"
)

// RiderHandler handles HTTP requests for rider management.
type RiderHandler struct {
	riderService ports.RiderService
}

// NewRiderHandler creates a new RiderHandler.
func NewRiderHandler(riderService ports.RiderService) *RiderHandler {
	return &RiderHandler{riderService: riderService}
}

// Apply godoc
// @Summary Apply to become a rider
// @Description Submits a pending rider application for the signed-in user
// @Tags riders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body domain.Application true "Application"
// @Success 201 {object} domain.Rider
// @Failure 400 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Router /riders [post]
func (h *RiderHandler) Apply(c *fiber.Ctx) error {
	var req domain.Application
	if err := c.BodyParser(&req); err != nil {
		return server.Fail(c, apperror.Invalid("invalid request body"))
	}
	if err := req.Validate(); err != nil {
		return server.Fail(c, err)
	}

	rider, err := h.riderService.Apply(c.UserContext(), middleware.Email(c), req)
	if err != nil {
		return server.Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rider)
}

// List godoc
// @Summary List riders
// @Tags riders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Approval status (pending, approved)"
// @Param workStatus query string false "Working status (available, in_delivery)"
// @Param region query string false "Region"
// @Param district query string false "District"
// @Success 200 {array} domain.Rider
// @Failure 400 {object} server.ErrorResponse
// @Router /riders [get]
func (h *RiderHandler) List(c *fiber.Ctx) error {
	riders, err := h.riderService.List(c.UserContext(), domain.Filter{
		ApprovalStatus: c.Query("status"),
		WorkingStatus:  c.Query("workStatus"),
		Region:         c.Query("region"),
		District:       c.Query("district"),
	})
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(riders)
}

// Get godoc
// @Summary Get a rider
// @Tags riders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rider id"
// @Success 200 {object} domain.Rider
// @Failure 404 {object} server.ErrorResponse
// @Router /riders/{id} [get]
func (h *RiderHandler) Get(c *fiber.Ctx) error {
	rider, err := h.riderService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(rider)
}

// Approve godoc
// @Summary Approve a rider application
// @Description Approves the rider and promotes the matching account to the rider role
// @Tags riders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rider id"
// @Success 200 {object} domain.Rider
// @Failure 403 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /riders/{id}/approve [patch]
func (h *RiderHandler) Approve(c *fiber.Ctx) error {
	rider, err := h.riderService.Approve(c.UserContext(), c.Params("id"))
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(rider)
}

// Delete godoc
// @Summary Remove a rider
// @Tags riders
// @Security BearerAuth
// @Param id path string true "Rider id"
// @Success 204
// @Failure 404 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Router /riders/{id} [delete]
func (h *RiderHandler) Delete(c *fiber.Ctx) error {
	if err := h.riderService.Delete(c.UserContext(), c.Params("id")); err != nil {
		return server.Fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Register mounts the rider routes behind gate.
func (h *RiderHandler) Register(r fiber.Router, gate *middleware.Gate) {
	riders := r.Group("/riders", gate.RequireAuth)
	riders.Post("/", h.Apply)
	riders.Get("/", h.List)
	riders.Get("/:id", h.Get)
	riders.Patch("/:id/approve", gate.RequireAdmin, h.Approve)
	riders.Delete("/:id", gate.RequireAdmin, h.Delete)
}
