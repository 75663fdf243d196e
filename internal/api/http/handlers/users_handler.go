package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/civicaid/intake-service/internal/api/dto"
	"github.com/civicaid/intake-service/internal/auth"
	"github.com/civicaid/intake-service/internal/domain"
	"github.com/civicaid/intake-service/internal/service"
	apperrors "github.com/civicaid/intake-service/pkg/util"
)

// UsersHandler serves staff account administration.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// CreateUser POST /orgs/:id/users.
func (h *UsersHandler) CreateUser(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.users.CreateUser(c.UserContext(), identity, c.Params("id"), service.UserCreateInput{
		ExternalID: req.ExternalID,
		Email:      req.Email,
		Name:       req.Name,
		Role:       req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// ListUsers GET /orgs/:id/users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	users, err := h.users.ListUsers(c.UserContext(), identity, c.Params("id"),
		parseIntQuery(c.Query("limit"), 20), parseIntQuery(c.Query("offset"), 0))
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:             user.ID,
		ExternalID:     user.ExternalID,
		Email:          user.Email,
		Name:           user.Name,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		Active:         user.Active,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}
