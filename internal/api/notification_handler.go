package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/khalteck/Rooms/internal/service"
)

type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	limit := queryInt(c, "limit")
	skip := queryInt(c, "skip")

	notifications, unread, err := h.svc.List(c.Context(), callerID(c), limit, skip)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"notifications": notifications,
		"unreadCount":   unread,
	})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	n, err := h.svc.MarkRead(c.Context(), callerID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":      "Notification marked as read",
		"notification": n,
	})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	if err := h.svc.MarkAllRead(c.Context(), callerID(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "All notifications marked as read"})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), callerID(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Notification deleted successfully"})
}

func (h *NotificationHandler) DeleteAll(c *fiber.Ctx) error {
	if err := h.svc.DeleteAll(c.Context(), callerID(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "All notifications deleted successfully"})
}

func queryInt(c *fiber.Ctx, key string) int64 {
	if v := c.Query(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
