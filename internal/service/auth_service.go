package service

import (
	"context"
	"errors"
	"regexp"
	"unicode"

	"github.com/khalteck/Rooms/internal/apperr"
	"github.com/khalteck/Rooms/internal/auth"
	"github.com/khalteck/Rooms/internal/models"
	"github.com/khalteck/Rooms/internal/repository"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type AuthService struct {
	users  repository.UserStore
	tokens *auth.Manager
}

func NewAuthService(users repository.UserStore, tokens *auth.Manager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// Register creates a user and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	if in.FirstName == "" || in.LastName == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, "", apperr.BadRequest("All fields are required", "Missing required fields")
	}
	if !emailRx.MatchString(in.Email) {
		return nil, "", apperr.BadRequest("Invalid email format", "Email validation failed")
	}
	if !strongPassword(in.Password) {
		return nil, "", apperr.BadRequest(
			"Password must be at least 6 characters long and contain a mix of letters and numbers",
			"Password validation failed")
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, "", apperr.BadRequest("User already exists", "Email is already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}
	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, "", apperr.BadRequest("Username already taken", "Please choose a different username")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	u := &models.User{
		FirstName:            in.FirstName,
		LastName:             in.LastName,
		Username:             in.Username,
		Email:                in.Email,
		Password:             hash,
		Status:               models.StatusOffline,
		NotificationsEnabled: true,
		SoundEnabled:         true,
		Theme:                "light",
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", apperr.Conflict("Duplicate field value", "email or username already exists")
		}
		return nil, "", err
	}

	token, err := s.tokens.Generate(u.ID.Hex(), u.Email)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies credentials and returns the user with a fresh token. Unknown
// email and wrong password produce the same response.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", apperr.BadRequest("All fields are required", "Email and password are required")
	}
	if !emailRx.MatchString(email) {
		return nil, "", apperr.BadRequest("Invalid email format", "Email validation failed")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", apperr.Unauthorized("Invalid credentials", "Invalid email or password")
		}
		return nil, "", err
	}
	if err := auth.CheckPassword(u.Password, password); err != nil {
		return nil, "", apperr.Unauthorized("Invalid credentials", "Invalid email or password")
	}

	token, err := s.tokens.Generate(u.ID.Hex(), u.Email)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// ForgotPassword only verifies the account exists. Mail delivery is stubbed;
// the response is identical either way a mailer would be wired in.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return apperr.BadRequest("Email is required", "Missing email field")
	}
	if !emailRx.MatchString(email) {
		return apperr.BadRequest("Invalid email format", "Email validation failed")
	}
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found", "No user with that email exists")
		}
		return err
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if email == "" || newPassword == "" {
		return apperr.BadRequest("All fields are required", "Email and new password are required")
	}
	if !emailRx.MatchString(email) {
		return apperr.BadRequest("Invalid email format", "Email validation failed")
	}
	if !strongPassword(newPassword) {
		return apperr.BadRequest(
			"Password must be at least 6 characters long and contain a mix of letters and numbers",
			"Password validation failed")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found", "No user with that email exists")
		}
		return err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, u.ID.Hex(), hash)
}

// Me returns the caller's profile.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, apperr.Unauthorized("Unauthorized", "User not found")
		}
		return nil, err
	}
	return u, nil
}

// UpdateProfile applies a partial profile/preferences update. Existing rooms
// keep their participant snapshots; this update does not propagate to them.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd repository.ProfileUpdate) (*models.User, error) {
	if upd.Theme != nil && *upd.Theme != "light" && *upd.Theme != "dark" {
		return nil, apperr.BadRequest("Invalid theme", "Theme must be light or dark")
	}
	u, err := s.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, apperr.Unauthorized("Unauthorized", "User not found")
		}
		return nil, err
	}
	return u, nil
}

// strongPassword mirrors the signup rule: at least 6 characters with both
// letters and digits.
func strongPassword(p string) bool {
	if len(p) < 6 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range p {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
