package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/khalteck/Rooms/internal/auth"
	"github.com/khalteck/Rooms/internal/repository"
)

const localUserID = "user_id"

// RequireAuth validates the bearer token and confirms the user still exists
// before any protected handler runs. The resolved user id lands in
// c.Locals(localUserID).
func RequireAuth(tokens *auth.Manager, users repository.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.ParseBearer(c.Get("Authorization"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authorization token required"})
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid or expired token"})
		}

		if _, err := users.GetByID(c.Context(), claims.UserID); err != nil {
			if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "User not found"})
			}
			return err
		}

		c.Locals(localUserID, claims.UserID)
		return c.Next()
	}
}

func callerID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}
