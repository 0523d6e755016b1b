// Package api wires the REST surface and the websocket upgrade route.
package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/khalteck/Rooms/internal/apperr"
	"github.com/khalteck/Rooms/internal/auth"
	"github.com/khalteck/Rooms/internal/repository"
	"github.com/khalteck/Rooms/internal/service"
	"github.com/khalteck/Rooms/internal/ws"
)

type Server struct {
	auth          *AuthHandler
	rooms         *RoomHandler
	messages      *MessageHandler
	notifications *NotificationHandler
}

// New assembles the fiber app: REST routes under /api/v1, the websocket
// upgrade at /ws, and a single error-normalizing boundary.
func New(
	authSvc *service.AuthService,
	roomSvc *service.RoomService,
	messageSvc *service.MessageService,
	notificationSvc *service.NotificationService,
	tokens *auth.Manager,
	users repository.UserStore,
	socket *ws.Handler,
	production bool,
	log *zap.SugaredLogger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(production, log),
	})
	app.Use(recover.New())
	app.Use(cors.New())

	s := &Server{
		auth:          NewAuthHandler(authSvc),
		rooms:         NewRoomHandler(roomSvc),
		messages:      NewMessageHandler(messageSvc),
		notifications: NewNotificationHandler(notificationSvc),
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Welcome to Rooms API", "version": "1.0.0"})
	})

	v1 := app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/register", s.auth.Register)
	authGroup.Post("/login", s.auth.Login)
	authGroup.Post("/forgot-password", s.auth.ForgotPassword)
	authGroup.Post("/reset-password", s.auth.ResetPassword)

	protected := v1.Group("", RequireAuth(tokens, users))
	protected.Get("/auth/me", s.auth.Me)
	protected.Patch("/users/me", s.auth.UpdateProfile)

	protected.Get("/rooms", s.rooms.List)
	protected.Post("/rooms", s.rooms.Create)
	protected.Get("/rooms/:id", s.rooms.Get)
	protected.Post("/rooms/:id/leave", s.rooms.Leave)

	protected.Get("/rooms/:id/messages", s.messages.List)
	protected.Post("/rooms/:id/messages", s.messages.Send)
	protected.Post("/rooms/:id/messages/read", s.messages.MarkRead)

	protected.Get("/notifications", s.notifications.List)
	protected.Post("/notifications/read-all", s.notifications.MarkAllRead)
	protected.Post("/notifications/:id/read", s.notifications.MarkRead)
	protected.Delete("/notifications/:id", s.notifications.Delete)
	protected.Delete("/notifications", s.notifications.DeleteAll)

	// socket auth happens in the handshake inside the handler, not here
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(socket.Handle))

	return app
}

// errorHandler is the single error-normalizing boundary: known errors keep
// their status and safe message, unknown errors are logged in full and
// reduced to a generic body (with the detail included outside production).
func errorHandler(production bool, log *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if e, ok := apperr.As(err); ok {
			body := fiber.Map{"error": e.Message}
			if e.Details != "" {
				body["details"] = e.Details
			}
			return c.Status(e.Status).JSON(body)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		log.Errorw("unhandled error", "path", c.Path(), "err", err)
		body := fiber.Map{"error": "Internal Server Error"}
		if !production {
			body["message"] = err.Error()
		} else {
			body["message"] = "Something went wrong on the server"
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}
}
