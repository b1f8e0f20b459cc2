package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clipix/backend/internal/apperror"
	"github.com/clipix/backend/internal/config"
	"github.com/clipix/backend/internal/models"
	"github.com/clipix/backend/internal/resolver"
	"github.com/clipix/backend/internal/store"
)

// Resolver is the subset of the resolution client the download flow needs.
type Resolver interface {
	Resolve(ctx context.Context, videoURL string) (*resolver.Video, error)
	ProbeFileSize(ctx context.Context, mediaURL string) int64
}

// DownloadService owns the video download lifecycle: quota gating,
// resolution and status tracking.
type DownloadService struct {
	store    *store.Store
	resolver Resolver
	cfg      *config.Config
}

// NewDownloadService wires the download flow.
func NewDownloadService(st *store.Store, res Resolver, cfg *config.Config) *DownloadService {
	return &DownloadService{store: st, resolver: res, cfg: cfg}
}

var allowedHosts = []string{"shopee", "shp.ee", "sho.pe"}

func isShopeeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range allowedHosts {
		if strings.Contains(host, allowed) {
			return true
		}
	}
	return false
}

// Create registers a download for the user, charges their quota and
// resolves the video synchronously. The quota is consumed even when
// resolution later fails.
func (s *DownloadService) Create(ctx context.Context, userID, videoURL string) (*models.Download, error) {
	if !isShopeeURL(videoURL) {
		return nil, apperror.New(http.StatusBadRequest,
			"URL deve ser da Shopee (shopee.com, shp.ee ou sho.pe)")
	}

	user, err := s.store.Users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkQuota(ctx, user); err != nil {
		return nil, err
	}

	dl := &models.Download{
		UserID:     userID,
		VideoURL:   videoURL,
		VideoTitle: fmt.Sprintf("Shopee Video %d", time.Now().UnixMilli()),
		Status:     models.DownloadPending,
	}
	if err := s.store.Downloads.Create(ctx, dl); err != nil {
		return nil, err
	}

	// Quota is charged up front. A later resolution failure does not
	// refund it.
	if err := s.store.Users.IncrementDownloads(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.process(ctx, dl); err != nil {
		return dl, err
	}
	return dl, nil
}

func (s *DownloadService) checkQuota(ctx context.Context, user *models.User) error {
	if user.PlanType == models.PlanFree {
		if user.TotalDownloads >= s.cfg.FreePlanTotalLimit {
			return apperror.New(http.StatusTooManyRequests, fmt.Sprintf(
				"Você já utilizou seus %d downloads gratuitos. Faça upgrade para Premium e baixe vídeos ilimitados!",
				s.cfg.FreePlanTotalLimit))
		}
		return nil
	}
	today, err := s.store.Downloads.CountByUserSince(ctx, user.ID, startOfDay(time.Now()))
	if err != nil {
		return err
	}
	if int(today) >= s.cfg.PremiumPlanDailyLimit {
		return apperror.New(http.StatusTooManyRequests, "Limite de downloads atingido")
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// process resolves the video and moves the record to its terminal status.
func (s *DownloadService) process(ctx context.Context, dl *models.Download) error {
	dl.Status = models.DownloadProcessing
	if err := s.store.Downloads.Update(ctx, dl); err != nil {
		return err
	}

	video, err := s.resolver.Resolve(ctx, dl.VideoURL)
	if err != nil {
		dl.Status = models.DownloadFailed
		dl.ErrorMessage = err.Error()
		if uerr := s.store.Downloads.Update(ctx, dl); uerr != nil {
			return uerr
		}
		log.Warn().Str("downloadId", dl.ID).Err(err).Msg("video resolution failed")
		return err
	}

	now := time.Now()
	dl.Status = models.DownloadCompleted
	dl.FilePath = &video.VideoURL
	dl.VideoResolution = "1080p"
	dl.DownloadedAt = &now
	if video.Title != "" {
		dl.VideoTitle = video.Title
	}
	if size := s.resolver.ProbeFileSize(ctx, video.VideoURL); size > 0 {
		dl.FileSize = &size
	}
	return s.store.Downloads.Update(ctx, dl)
}

// List returns one page of the user's downloads plus the total count.
func (s *DownloadService) List(ctx context.Context, userID string, page, limit int) ([]models.Download, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.store.Downloads.ListByUser(ctx, userID, (page-1)*limit, limit)
}

// Get returns one of the user's downloads.
func (s *DownloadService) Get(ctx context.Context, userID, id string) (*models.Download, error) {
	dl, err := s.store.Downloads.ByID(ctx, userID, id)
	if err == store.ErrNotFound {
		return nil, apperror.New(http.StatusNotFound, "Download não encontrado")
	}
	return dl, err
}

// Delete removes one of the user's downloads. The quota counter is not
// decremented.
func (s *DownloadService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.Downloads.Delete(ctx, userID, id)
}

// Stats summarizes a user's usage against their plan limit.
type Stats struct {
	TotalDownloads     int64  `json:"totalDownloads"`
	CompletedDownloads int64  `json:"completedDownloads"`
	FailedDownloads    int64  `json:"failedDownloads"`
	Limit              int    `json:"limit"`
	Remaining          int    `json:"remaining"`
	PlanType           string `json:"planType"`
}

// UserStats computes the usage summary for the user. Remaining never
// goes negative even when the limit was lowered after use.
func (s *DownloadService) UserStats(ctx context.Context, userID string) (*Stats, error) {
	user, err := s.store.Users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Downloads.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	completed, err := s.store.Downloads.CountByUserAndStatus(ctx, userID, models.DownloadCompleted)
	if err != nil {
		return nil, err
	}
	failed, err := s.store.Downloads.CountByUserAndStatus(ctx, userID, models.DownloadFailed)
	if err != nil {
		return nil, err
	}

	limit := s.cfg.FreePlanTotalLimit
	used := user.TotalDownloads
	if user.PlanType == models.PlanPremium {
		limit = s.cfg.PremiumPlanDailyLimit
		today, err := s.store.Downloads.CountByUserSince(ctx, userID, startOfDay(time.Now()))
		if err != nil {
			return nil, err
		}
		used = int(today)
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return &Stats{
		TotalDownloads:     total,
		CompletedDownloads: completed,
		FailedDownloads:    failed,
		Limit:              limit,
		Remaining:          remaining,
		PlanType:           string(user.PlanType),
	}, nil
}
