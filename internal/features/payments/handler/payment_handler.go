package handler

import (
	"strings"

	"zapshift/internal/core/apperror"
	"zapshift/internal/core/server"
	"zapshift/internal/features/auth/middleware"
	authports "zapshift/internal/features/auth/ports"
	"zapshift/internal/features/payments/domain"
	"zapshift/internal/features/payments/ports"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles HTTP requests for checkout and payment confirmation.
type PaymentHandler struct {
	paymentService ports.PaymentService
	roles          authports.RoleChecker
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService ports.PaymentService, roles authports.RoleChecker) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, roles: roles}
}

// CreateSession godoc
// @Summary Open a checkout session
// @Description Opens a hosted checkout charging the stored cost of an unpaid parcel
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body domain.CheckoutRequest true "Checkout"
// @Success 200 {object} domain.CheckoutResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 403 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Failure 502 {object} server.ErrorResponse
// @Router /payment-checkout-session [post]
func (h *PaymentHandler) CreateSession(c *fiber.Ctx) error {
	var req domain.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Fail(c, apperror.Invalid("invalid request body"))
	}
	caller, err := middleware.Caller(c, h.roles)
	if err != nil {
		return server.Fail(c, err)
	}
	req.Caller = caller
	if err := req.Validate(); err != nil {
		return server.Fail(c, err)
	}

	resp, err := h.paymentService.CreateSession(c.UserContext(), req)
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(resp)
}

// Reconcile godoc
// @Summary Confirm a payment
// @Description Reconciles a checkout session with its parcel. Repeated calls report already processed.
// @Tags payments
// @Produce json
// @Param session_id query string true "Checkout session id"
// @Success 200 {object} domain.ReconcileResult
// @Failure 400 {object} server.ErrorResponse
// @Failure 502 {object} server.ErrorResponse
// @Router /payment-success [patch]
func (h *PaymentHandler) Reconcile(c *fiber.Ctx) error {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		return server.Fail(c, apperror.Invalid("session_id is required"))
	}

	res, err := h.paymentService.Reconcile(c.UserContext(), sessionID)
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(res)
}

// List godoc
// @Summary List payments
// @Description Admins list every payment or filter by email. Other callers see their own.
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param email query string false "Customer email"
// @Success 200 {array} domain.Payment
// @Failure 403 {object} server.ErrorResponse
// @Router /payments [get]
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	email, err := middleware.ScopeEmail(c, h.roles, c.Query("email"))
	if err != nil {
		return server.Fail(c, err)
	}

	payments, err := h.paymentService.List(c.UserContext(), email)
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(payments)
}

// Register mounts the payment routes. The confirmation callback stays public
// since the provider session id is its credential.
func (h *PaymentHandler) Register(r fiber.Router, gate *middleware.Gate) {
	r.Post("/payment-checkout-session", gate.RequireAuth, h.CreateSession)
	r.Patch("/payment-success", h.Reconcile)
	r.Get("/payments", gate.RequireAuth, h.List)
}
