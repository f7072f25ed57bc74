package handlers

import (
	"errors"
	"strings"

	"farmersmarket/internal/flash"
	"farmersmarket/internal/middleware"
	"farmersmarket/internal/models"
	"farmersmarket/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles HTTP requests for registration and sessions.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	router.Get("/register", h.HandleRegisterForm)
	router.Post("/register", h.HandleRegister)
	router.Get("/login", h.HandleLoginForm)
	router.Post("/login", h.HandleLogin)
	router.Get("/logout", requireAuth, h.HandleLogout)
}

// RegisterRequest represents the registration form.
type RegisterRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=80"`
	Email    string `json:"email" form:"email" validate:"required,email,max=120"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
	UserType string `json:"user_type" form:"user_type" validate:"required,oneof=farmer customer"`
}

// LoginRequest represents the login form.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// HandleRegisterForm describes the registration form.
func (h *AuthHandler) HandleRegisterForm(c *fiber.Ctx) error {
	return render(c, "register", fiber.Map{
		"user_types": []models.UserType{models.UserTypeFarmer, models.UserTypeCustomer},
	})
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Info().Err(err).Msg("error parsing register request body")
		return flash.Redirect(c, "/register", "Invalid registration form")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := h.validate.Struct(req); err != nil {
		return flash.Redirect(c, "/register", validationMessage(err))
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		UserType: models.UserType(req.UserType),
	}
	if err := h.authService.RegisterUser(c.UserContext(), user); err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			return flash.Redirect(c, "/register", "Username already exists")
		case errors.Is(err, services.ErrEmailTaken):
			return flash.Redirect(c, "/register", "Email already registered")
		case errors.Is(err, services.ErrInvalidUserType):
			return flash.Redirect(c, "/register", "Please choose farmer or customer")
		}
		return internalError(c, err, "Could not register user")
	}

	return flash.Redirect(c, "/login", "Registration successful! Please login.")
}

// HandleLoginForm describes the login form.
func (h *AuthHandler) HandleLoginForm(c *fiber.Ctx) error {
	return render(c, "login", nil)
}

// HandleLogin checks the credentials and starts a session cookie.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Info().Err(err).Msg("error parsing login request body")
		return flash.Redirect(c, "/login", "Invalid login form")
	}
	if err := h.validate.Struct(req); err != nil {
		return flash.Redirect(c, "/login", "Invalid username or password")
	}

	token, user, err := h.authService.LoginUser(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Info().Str("username", req.Username).Msg("failed login")
			return flash.Redirect(c, "/login", "Invalid username or password")
		}
		return internalError(c, err, "Could not log in")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.authService.TokenTTL().Seconds()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	log.Info().Str("user_id", user.ID).Msg("user logged in")
	return flash.Redirect(c, "/dashboard", "Login successful!")
}

// HandleLogout ends the session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	c.ClearCookie(middleware.SessionCookie)
	return flash.Redirect(c, "/", "You have been logged out")
}
