package handler

import (
	"zapshift/internal/core/server"
	"zapshift/internal/features/tracking/ports"

	"github.com/gofiber/fiber/v2"
)

// TrackingHandler handles HTTP requests for tracking operations.
type TrackingHandler struct {
	trackingService ports.TrackingService
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(trackingService ports.TrackingService) *TrackingHandler {
	return &TrackingHandler{
		trackingService: trackingService,
	}
}

// GetTimeline godoc
// @Summary Get the tracking timeline of a parcel
// @Description Returns every lifecycle event recorded for the tracking identifier, oldest first
// @Tags tracking
// @Produce json
// @Param trackingId path string true "Tracking identifier"
// @Success 200 {object} domain.Timeline
// @Failure 400 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /track-parcel/{trackingId} [get]
func (h *TrackingHandler) GetTimeline(c *fiber.Ctx) error {
	timeline, err := h.trackingService.Timeline(c.UserContext(), c.Params("trackingId"))
	if err != nil {
		return server.Fail(c, err)
	}
	return c.JSON(timeline)
}

// Register mounts the public tracking routes.
func (h *TrackingHandler) Register(r fiber.Router) {
	r.Get("/track-parcel/:trackingId", h.GetTimeline)
}
