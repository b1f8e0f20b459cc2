package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipix/backend/internal/config"
	"github.com/clipix/backend/internal/middleware"
	"github.com/clipix/backend/internal/models"
	"github.com/clipix/backend/internal/store"
	"github.com/clipix/backend/internal/validate"
)

// AuthHandler serves registration, login and the cookie token pair.
type AuthHandler struct {
	store *store.Store
	cfg   *config.Config
}

func NewAuthHandler(st *store.Store, cfg *config.Config) *AuthHandler {
	return &AuthHandler{store: st, cfg: cfg}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2" message:"Nome deve ter no mínimo 2 caracteres"`
	Email    string `json:"email" validate:"required,email" message:"Email inválido"`
	Password string `json:"password" validate:"required,min=8" message:"Senha deve ter no mínimo 8 caracteres"`
}

// Register creates an account. Emails of deleted accounts stay blocked.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
	}
	if err := validate.Struct(&req); err != nil {
		return err
	}

	blocked, err := h.store.BlockedEmails.Exists(c.Context(), req.Email)
	if err != nil {
		return err
	}
	if blocked {
		return fiber.NewError(fiber.StatusForbidden,
			"Este email não pode ser utilizado para criar uma nova conta")
	}

	if _, err := h.store.Users.ByEmail(c.Context(), req.Email); err == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Email já cadastrado")
	} else if err != store.ErrNotFound {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		PlanType:     models.PlanFree,
	}
	if err := h.store.Users.Create(c.Context(), user); err != nil {
		return err
	}

	if err := h.issueCookies(c, user.ID); err != nil {
		return err
	}

	log.Info().Str("userId", user.ID).Msg("user registered")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Conta criada com sucesso",
		"user":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email" message:"Email inválido"`
	Password string `json:"password" validate:"required" message:"Senha é obrigatória"`
}

// Login authenticates by email and password. Unknown email and wrong
// password produce the same response.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
	}
	if err := validate.Struct(&req); err != nil {
		return err
	}

	user, err := h.store.Users.ByEmail(c.Context(), req.Email)
	if err == store.ErrNotFound {
		return fiber.NewError(fiber.StatusUnauthorized, "Email ou senha inválidos")
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Email ou senha inválidos")
	}

	if err := h.store.Users.UpdateLastLogin(c.Context(), user.ID, time.Now()); err != nil {
		log.Warn().Str("userId", user.ID).Err(err).Msg("failed to record last login")
	}

	if err := h.issueCookies(c, user.ID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login realizado com sucesso",
		"user":    user,
	})
}

// Refresh rotates the token pair from the refresh cookie.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := c.Cookies(middleware.RefreshTokenCookie)
	if token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Token não fornecido")
	}

	userID, err := middleware.VerifyRefreshToken(token, h.cfg)
	if err != nil {
		middleware.ClearAuthCookies(c, h.cfg)
		return fiber.NewError(fiber.StatusUnauthorized, "Token inválido")
	}

	// The account may have been deleted since the token was issued.
	if _, err := h.store.Users.ByID(c.Context(), userID); err != nil {
		middleware.ClearAuthCookies(c, h.cfg)
		return fiber.NewError(fiber.StatusNotFound, "Usuário não encontrado")
	}

	if err := h.issueCookies(c, userID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Token renovado com sucesso",
	})
}

// Logout clears both auth cookies. Previously issued tokens stay valid
// until they expire on their own.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	middleware.ClearAuthCookies(c, h.cfg)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logout realizado com sucesso",
	})
}

func (h *AuthHandler) issueCookies(c *fiber.Ctx, userID string) error {
	access, err := middleware.GenerateAccessToken(userID, h.cfg)
	if err != nil {
		return err
	}
	refresh, err := middleware.GenerateRefreshToken(userID, h.cfg)
	if err != nil {
		return err
	}
	middleware.SetAuthCookies(c, h.cfg, access, refresh)
	return nil
}
