package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/khalteck/Rooms/internal/apperr"
	"github.com/khalteck/Rooms/internal/service"
)

type MessageHandler struct {
	svc *service.MessageService
}

func NewMessageHandler(svc *service.MessageService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

// List serves the same cursor pagination as the socket getMessages event.
func (h *MessageHandler) List(c *fiber.Ctx) error {
	limit := int64(0)
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			limit = n
		}
	}

	messages, page, err := h.svc.GetMessages(c.Context(), callerID(c), c.Params("id"), limit, c.Query("cursor"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"messages":   messages,
		"pagination": page,
	})
}

// Send runs the full message pipeline, so a REST-posted message broadcasts
// and notifies exactly like one sent over the socket.
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Bad Request", "Invalid request body")
	}

	msg, err := h.svc.Send(c.Context(), callerID(c), c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": msg})
}

func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.svc.MarkRead(c.Context(), callerID(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Messages marked as read"})
}
