package api

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/khalteck/Rooms/internal/apperr"
	"github.com/khalteck/Rooms/internal/repository"
	"github.com/khalteck/Rooms/internal/service"
)

var validate = validator.New()

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type registerRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Bad Request", "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return apperr.BadRequest("All fields are required", validationDetails(err))
	}

	user, token, err := h.svc.Register(c.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
		"token":   token,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Bad Request", "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return apperr.BadRequest("All fields are required", validationDetails(err))
	}

	user, token, err := h.svc.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Bad Request", "Invalid request body")
	}
	if err := h.svc.ForgotPassword(c.Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password reset link sent to email"})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Email       string `json:"email"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Bad Request", "Invalid request body")
	}
	if err := h.svc.ResetPassword(c.Context(), req.Email, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password reset successfully"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.svc.Me(c.Context(), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

type profileRequest struct {
	FirstName            *string `json:"firstName"`
	LastName             *string `json:"lastName"`
	Avatar               *string `json:"avatar"`
	Theme                *string `json:"theme"`
	NotificationsEnabled *bool   `json:"notificationsEnabled"`
	SoundEnabled         *bool   `json:"soundEnabled"`
	OnboardingCompleted  *bool   `json:"onboardingCompleted"`
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Bad Request", "Invalid request body")
	}

	user, err := h.svc.UpdateProfile(c.Context(), callerID(c), repository.ProfileUpdate{
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Avatar:               req.Avatar,
		Theme:                req.Theme,
		NotificationsEnabled: req.NotificationsEnabled,
		SoundEnabled:         req.SoundEnabled,
		OnboardingCompleted:  req.OnboardingCompleted,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

func validationDetails(err error) string {
	ve, ok := err.(validator.ValidationErrors)
	if !ok || len(ve) == 0 {
		return "Validation failed"
	}
	fe := ve[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	default:
		return "Validation failed on field " + fe.Field()
	}
}
