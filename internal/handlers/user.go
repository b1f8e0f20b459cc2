package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipix/backend/internal/config"
	"github.com/clipix/backend/internal/middleware"
	"github.com/clipix/backend/internal/models"
	"github.com/clipix/backend/internal/store"
	"github.com/clipix/backend/internal/validate"
)

// UserHandler serves the authenticated user's own account.
type UserHandler struct {
	store *store.Store
	cfg   *config.Config
}

func NewUserHandler(st *store.Store, cfg *config.Config) *UserHandler {
	return &UserHandler{store: st, cfg: cfg}
}

// Profile returns the current user.
func (h *UserHandler) Profile(c *fiber.Ctx) error {
	user, err := h.store.Users.ByID(c.Context(), middleware.UserID(c))
	if err == store.ErrNotFound {
		return fiber.NewError(fiber.StatusNotFound, "Usuário não encontrado")
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

type updateProfileRequest struct {
	Name  string `json:"name" validate:"omitempty,min=2" message:"Nome deve ter no mínimo 2 caracteres"`
	Email string `json:"email" validate:"omitempty,email" message:"Email inválido"`
}

// UpdateProfile changes name and email. Email changes must not collide
// with another account.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
	}
	if err := validate.Struct(&req); err != nil {
		return err
	}

	user, err := h.store.Users.ByID(c.Context(), middleware.UserID(c))
	if err != nil {
		return err
	}

	if req.Email != "" && req.Email != user.Email {
		if _, err := h.store.Users.ByEmail(c.Context(), req.Email); err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Email já cadastrado")
		} else if err != store.ErrNotFound {
			return err
		}
		user.Email = req.Email
	}
	if req.Name != "" {
		user.Name = req.Name
	}

	if err := h.store.Users.Update(c.Context(), user); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Perfil atualizado com sucesso",
		"user":    user,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required" message:"Senha atual é obrigatória"`
	NewPassword     string `json:"newPassword" validate:"required,min=8" message:"Nova senha deve ter no mínimo 8 caracteres"`
}

// ChangePassword verifies the current password before setting the new one.
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
	}
	if err := validate.Struct(&req); err != nil {
		return err
	}

	user, err := h.store.Users.ByID(c.Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Senha atual incorreta")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	if err := h.store.Users.Update(c.Context(), user); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Senha alterada com sucesso",
	})
}

// DeleteAccount removes the account and blocks the email from re-registering,
// which keeps the free quota from being reset by recreating the account.
func (h *UserHandler) DeleteAccount(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	user, err := h.store.Users.ByID(c.Context(), userID)
	if err != nil {
		return err
	}

	if err := h.store.BlockedEmails.Create(c.Context(), &models.BlockedEmail{
		Email:  user.Email,
		Reason: "account_deleted",
	}); err != nil {
		return err
	}
	if err := h.store.Users.Delete(c.Context(), userID); err != nil {
		return err
	}

	middleware.ClearAuthCookies(c, h.cfg)
	log.Info().Str("userId", userID).Msg("account deleted")
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Conta excluída com sucesso",
	})
}
