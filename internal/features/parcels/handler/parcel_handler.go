package handler

import (
	"fmt"

	"zapshift/internal/core/apperror"
	"zapshift/internal/core/server"
	"zapshift/internal/features/auth/middleware"
	authports "zapshift/internal/features/auth/ports"
	"zapshift/internal/features/parcels/domain"
	"zapshift/internal/features/parcels/ports"

	"github.com/gofiber/fiber/v2"
)

// ParcelHandler handles HTTP requests for the parcel lifecycle.
type ParcelHandler struct {
	parcelService ports.ParcelService
	roles         authports.RoleChecker
}

// NewParcelHandler creates a new ParcelHandler.
func NewParcelHandler(parcelService ports.ParcelService, roles authports.RoleChecker) *ParcelHandler {
	return &ParcelHandler{parcelService: parcelService, roles: roles}
}

// Create godoc
// @Summary Book a parcel
// @Description Creates an unpaid parcel for the signed-in sender and assigns its tracking id
// @Tags parcels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body domain.CreateInput true "Parcel"
// @Success 201 {object} domain.Parcel
// @Failure 400 {object} server.ErrorResponse
// @Router /parcel [post]
func (h *ParcelHandler) Create(c *fiber.Ctx) error {
	var req domain.CreateInput
	if err := c.BodyParser(&req); err != nil {
		return server.Fail(c, apperror.Invalid("invalid request body"))
	}
	req.SenderEmail = middleware.Email(c)
	if err := req.Validate(); err != nil {
		return server.Fail(c, err)
	}

	parcel, err := h.parcelService.Create(c.UserContext(), req)
	if err != nil {
		return server.Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(parcel)
}

// List godoc
// @Summary List parcels
// @Description Admins list every parcel or filter by sender. Other callers see their own.
// @Tags parcels
// @Produce json
// @Security BearerAuth
// @Param email query string false "Sender email"
// @Param delevaryStatus query string false "Delivery status"
// @Param PaymentStatus query string false "Payment status"
// @Success 200 {array} domain.Parcel
// @Failure 400 {object} server.ErrorResponse
// @Failure 403 {object} server.ErrorResponse
// @Router /parcel [get]
func (h *ParcelHandler) List(c *fiber.Ctx) error {
	email, err := middleware.ScopeEmail(c, h.roles, c.Query("email"))
	if err != nil {
		return server.Fail(c, err)
	}

	parcels, err := h.parcelService.List(c.UserContext(), domain.Filter{
		SenderEmail:    email,
		DeliveryStatus: c.Query("delevaryStatus"),
		PaymentStatus:  c.Query("PaymentStatus"),
	})
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(parcels)
}

// Get godoc
// @Summary Get a parcel
// @Description Readable by its sender, its assigned rider and admins
// @Tags parcels
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parcel id"
// @Success 200 {object} domain.Parcel
// @Failure 400 {object} server.ErrorResponse
// @Failure 403 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /parcel/{id} [get]
func (h *ParcelHandler) Get(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c, h.roles)
	if err != nil {
		return server.Fail(c, err)
	}

	parcel, err := h.parcelService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return server.Fail(c, err)
	}
	if !parcel.VisibleTo(caller) {
		return server.Fail(c, fmt.Errorf("%w: parcel %s belongs to another sender", apperror.ErrForbidden, parcel.ID))
	}
	return c.JSON(parcel)
}

// Delete godoc
// @Summary Cancel an unpaid parcel
// @Tags parcels
// @Security BearerAuth
// @Param id path string true "Parcel id"
// @Success 204
// @Failure 404 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Router /parcel/{id} [delete]
func (h *ParcelHandler) Delete(c *fiber.Ctx) error {
	if err := h.parcelService.Delete(c.UserContext(), c.Params("id"), middleware.Email(c)); err != nil {
		return server.Fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AssignRider godoc
// @Summary Assign a rider to a paid parcel
// @Description Moves the parcel to assigned-to-rider and the rider to in_delivery atomically
// @Tags parcels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parcel id"
// @Param request body domain.AssignInput true "Rider"
// @Success 200 {object} domain.Parcel
// @Failure 400 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Router /parcels/{id}/assign-rider [patch]
func (h *ParcelHandler) AssignRider(c *fiber.Ctx) error {
	var req domain.AssignInput
	if err := c.BodyParser(&req); err != nil {
		return server.Fail(c, apperror.Invalid("invalid request body"))
	}
	req.ParcelID = c.Params("id")
	if err := req.Validate(); err != nil {
		return server.Fail(c, err)
	}

	parcel, err := h.parcelService.AssignRider(c.UserContext(), req)
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(parcel)
}

// SetStatus godoc
// @Summary Update the delivery status of a parcel
// @Description Reported by the assigned rider or an admin. Delivering the parcel releases its rider.
// @Tags parcels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parcel id"
// @Param request body domain.StatusInput true "Status"
// @Success 200 {object} domain.Parcel
// @Failure 400 {object} server.ErrorResponse
// @Failure 403 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Router /parcels/{id}/status [patch]
func (h *ParcelHandler) SetStatus(c *fiber.Ctx) error {
	var req domain.StatusInput
	if err := c.BodyParser(&req); err != nil {
		return server.Fail(c, apperror.Invalid("invalid request body"))
	}
	req.ParcelID = c.Params("id")
	if err := req.Validate(); err != nil {
		return server.Fail(c, err)
	}
	caller, err := middleware.Caller(c, h.roles)
	if err != nil {
		return server.Fail(c, err)
	}
	req.Caller = caller

	parcel, err := h.parcelService.SetStatus(c.UserContext(), req)
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(parcel)
}

// RiderParcels godoc
// @Summary List the signed-in rider's parcels
// @Tags parcels
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only parcels still in delivery"
// @Success 200 {array} domain.Parcel
// @Router /parcels/rider [get]
func (h *ParcelHandler) RiderParcels(c *fiber.Ctx) error {
	parcels, err := h.parcelService.ListForRider(c.UserContext(), middleware.Email(c), c.QueryBool("active"))
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(parcels)
}

// StatusDistribution godoc
// @Summary Count parcels per delivery status
// @Tags parcels
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.StatusCount
// @Failure 403 {object} server.ErrorResponse
// @Router /parcels/status-distribution [get]
func (h *ParcelHandler) StatusDistribution(c *fiber.Ctx) error {
	counts, err := h.parcelService.StatusDistribution(c.UserContext())
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(counts)
}

// DeliveriesPerDay godoc
// @Summary Count a rider's deliveries per day
// @Tags riders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rider id"
// @Success 200 {array} domain.DayCount
// @Failure 400 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /riders/{id}/deliveries-per-day [get]
func (h *ParcelHandler) DeliveriesPerDay(c *fiber.Ctx) error {
	days, err := h.parcelService.DeliveriesPerDay(c.UserContext(), c.Params("id"))
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(days)
}

// Register mounts the parcel routes behind gate.
func (h *ParcelHandler) Register(r fiber.Router, gate *middleware.Gate) {
	parcel := r.Group("/parcel", gate.RequireAuth)
	parcel.Get("/", h.List)
	parcel.Post("/", h.Create)
	parcel.Get("/:id", h.Get)
	parcel.Delete("/:id", h.Delete)

	parcels := r.Group("/parcels", gate.RequireAuth)
	parcels.Get("/rider", h.RiderParcels)
	parcels.Get("/status-distribution", gate.RequireAdmin, h.StatusDistribution)
	parcels.Patch("/:id/assign-rider", gate.RequireAdmin, h.AssignRider)
	parcels.Patch("/:id/status", h.SetStatus)

	// Passes through when the rider group gate already verified the token.
	r.Get("/riders/:id/deliveries-per-day", gate.RequireAuth, h.DeliveriesPerDay)
}
