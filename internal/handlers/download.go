package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clipix/backend/internal/middleware"
	"github.com/clipix/backend/internal/models"
	"github.com/clipix/backend/internal/services"
	"github.com/clipix/backend/internal/validate"
)

// DownloadHandler serves the video download endpoints.
type DownloadHandler struct {
	downloads *services.DownloadService
}

func NewDownloadHandler(downloads *services.DownloadService) *DownloadHandler {
	return &DownloadHandler{downloads: downloads}
}

type createDownloadRequest struct {
	VideoURL string `json:"videoUrl" validate:"required,url" message:"URL inválida"`
}

// Create registers and processes a download. The row is returned in its
// terminal status since processing is synchronous; a failed resolution is
// still a created row, so it answers 201 with the FAILED record.
func (h *DownloadHandler) Create(c *fiber.Ctx) error {
	var req createDownloadRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
	}
	if err := validate.Struct(&req); err != nil {
		return err
	}

	dl, err := h.downloads.Create(c.Context(), middleware.UserID(c), req.VideoURL)
	if err != nil && dl == nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"download": dl,
	})
}

// List returns a page of the user's downloads, newest first.
func (h *DownloadHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)

	downloads, total, err := h.downloads.List(c.Context(), middleware.UserID(c), page, limit)
	if err != nil {
		return err
	}
	if downloads == nil {
		downloads = []models.Download{}
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	totalPages := (total + int64(limit) - 1) / int64(limit)

	return c.JSON(fiber.Map{
		"success":   true,
		"downloads": downloads,
		"pagination": fiber.Map{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": totalPages,
		},
	})
}

// Get returns one download.
func (h *DownloadHandler) Get(c *fiber.Ctx) error {
	dl, err := h.downloads.Get(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"download": dl,
	})
}

// File redirects to the resolved media URL of a completed download.
func (h *DownloadHandler) File(c *fiber.Ctx) error {
	dl, err := h.downloads.Get(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return err
	}
	if dl.Status != models.DownloadCompleted || dl.FilePath == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Download ainda não foi concluído")
	}
	return c.Redirect(*dl.FilePath, fiber.StatusFound)
}

// Delete removes one download from the history.
func (h *DownloadHandler) Delete(c *fiber.Ctx) error {
	if err := h.downloads.Delete(c.Context(), middleware.UserID(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Download removido com sucesso",
	})
}

// Stats returns the user's usage against their plan limit.
func (h *DownloadHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.downloads.UserStats(c.Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}
