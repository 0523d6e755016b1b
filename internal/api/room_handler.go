package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/khalteck/Rooms/internal/apperr"
	"github.com/khalteck/Rooms/internal/service"
)

type RoomHandler struct {
	svc *service.RoomService
}

func NewRoomHandler(svc *service.RoomService) *RoomHandler {
	return &RoomHandler{svc: svc}
}

func (h *RoomHandler) List(c *fiber.Ctx) error {
	rooms, err := h.svc.List(c.Context(), callerID(c), c.Query("search"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"rooms": rooms})
}

func (h *RoomHandler) Create(c *fiber.Ctx) error {
	var req struct {
		ParticipantEmail string `json:"participantEmail"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Bad Request", "Invalid request body")
	}

	room, err := h.svc.Create(c.Context(), callerID(c), req.ParticipantEmail)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"room": room})
}

func (h *RoomHandler) Get(c *fiber.Ctx) error {
	room, err := h.svc.Get(c.Context(), callerID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"room": room})
}

func (h *RoomHandler) Leave(c *fiber.Ctx) error {
	if err := h.svc.Leave(c.Context(), callerID(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Left the room successfully"})
}
