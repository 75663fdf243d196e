package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicaid/intake-service/internal/service"
	apperrors "github.com/civicaid/intake-service/pkg/util"
)

// TimelineHandler serves the token-scoped single-ticket surface.
type TimelineHandler struct {
	timeline *service.TimelineService
}

// NewTimelineHandler constructs handler.
func NewTimelineHandler(timeline *service.TimelineService) *TimelineHandler {
	return &TimelineHandler{timeline: timeline}
}

// GetTimeline GET /timeline/:token.
func (h *TimelineHandler) GetTimeline(c *fiber.Ctx) error {
	timeline, err := h.timeline.GetByToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return apperrors.AsPublicError(err, "timeline")
	}
	return c.JSON(fiber.Map{"data": timeline})
}
