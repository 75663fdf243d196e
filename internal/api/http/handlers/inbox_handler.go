package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/civicaid/intake-service/internal/api/dto"
	"github.com/civicaid/intake-service/internal/auth"
	"github.com/civicaid/intake-service/internal/domain"
	"github.com/civicaid/intake-service/internal/service"
	apperrors "github.com/civicaid/intake-service/pkg/util"
)

// InboxHandler serves the authenticated staff surface.
type InboxHandler struct {
	tickets *service.TicketService
}

// NewInboxHandler constructs handler.
func NewInboxHandler(tickets *service.TicketService) *InboxHandler {
	return &InboxHandler{tickets: tickets}
}

// CreateTicket POST /inbox/tickets.
func (h *InboxHandler) CreateTicket(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.Create(c.UserContext(), identity, service.TicketCreateInput{
		Citizen: domain.CitizenContact{
			Name:  req.CitizenName,
			Phone: req.CitizenPhone,
			Email: req.CitizenEmail,
		},
		Content:  req.Content,
		Category: req.Category,
		Priority: req.Priority,
		Nickname: req.Nickname,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /inbox/tickets.
func (h *InboxHandler) ListTickets(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter := service.TicketListFilter{
		Limit:  parseIntQuery(c.Query("limit"), 20),
		Offset: parseIntQuery(c.Query("offset"), 0),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if cat := c.Query("category"); cat != "" {
		filter.Category = &cat
	}
	if assignee := c.Query("assignee_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}

	tickets, err := h.tickets.List(c.UserContext(), identity, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /inbox/tickets/:id.
func (h *InboxHandler) GetTicket(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, trail, err := h.tickets.Get(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	history := make([]dto.HistoryResponse, 0, len(trail))
	for _, entry := range trail {
		history = append(history, dto.HistoryResponse{
			ID:        entry.ID,
			ActorID:   entry.ActorID,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": dto.TicketDetailResponse{
		Ticket:  ticketResponse(ticket),
		History: history,
	}})
}

// AssignTicket POST /inbox/tickets/:id/assign.
func (h *InboxHandler) AssignTicket(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssigneeID == "" {
		return apperrors.NewValidationError("assignee_id required", nil)
	}
	ticket, err := h.tickets.Assign(c.UserContext(), identity, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// TransitionTicket POST /inbox/tickets/:id/transition.
func (h *InboxHandler) TransitionTicket(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Target == "" {
		return apperrors.NewValidationError("target required", nil)
	}
	ticket, err := h.tickets.Transition(c.UserContext(), identity, c.Params("id"), service.TransitionInput{
		Target:     req.Target,
		Note:       req.Note,
		AssigneeID: req.AssigneeID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:             ticket.ID,
		OrganizationID: ticket.OrganizationID,
		AssigneeID:     ticket.AssigneeID,
		CitizenName:    ticket.Citizen.Name,
		CitizenPhone:   ticket.Citizen.Phone,
		CitizenEmail:   ticket.Citizen.Email,
		Content:        ticket.Content,
		Category:       ticket.Category,
		Priority:       ticket.Priority,
		Sentiment:      ticket.Sentiment,
		Status:         ticket.Status,
		IsPublic:       ticket.IsPublic,
		Nickname:       ticket.Nickname,
		ResolutionNote: ticket.ResolutionNote,
		ResolvedAt:     ticket.ResolvedAt,
		ClosedAt:       ticket.ClosedAt,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
}
