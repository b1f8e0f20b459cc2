package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/clipix/backend/internal/models"
)

// NewGorm returns a Store backed by the given GORM handle.
func NewGorm(db *gorm.DB) *Store {
	return &Store{
		Users:         &gormUsers{db: db},
		BlockedEmails: &gormBlockedEmails{db: db},
		Downloads:     &gormDownloads{db: db},
		Subscriptions: &gormSubscriptions{db: db},
		Payments:      &gormPayments{db: db},
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

type gormUsers struct {
	db *gorm.DB
}

func (s *gormUsers) Create(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *gormUsers) ByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormUsers) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormUsers) Update(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *gormUsers) UpdatePlan(ctx context.Context, id string, plan models.PlanType) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("plan_type", plan).Error
}

func (s *gormUsers) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("last_login", at).Error
}

func (s *gormUsers) IncrementDownloads(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("total_downloads", gorm.Expr("total_downloads + 1")).Error
}

func (s *gormUsers) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
}

type gormBlockedEmails struct {
	db *gorm.DB
}

func (s *gormBlockedEmails) Create(ctx context.Context, blocked *models.BlockedEmail) error {
	return s.db.WithContext(ctx).Create(blocked).Error
}

func (s *gormBlockedEmails) Exists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.BlockedEmail{}).
		Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

type gormDownloads struct {
	db *gorm.DB
}

func (s *gormDownloads) Create(ctx context.Context, download *models.Download) error {
	return s.db.WithContext(ctx).Create(download).Error
}

func (s *gormDownloads) ByID(ctx context.Context, userID, id string) (*models.Download, error) {
	var download models.Download
	err := s.db.WithContext(ctx).
		First(&download, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &download, nil
}

func (s *gormDownloads) ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.Download, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Download{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var downloads []models.Download
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&downloads).Error
	return downloads, total, err
}

func (s *gormDownloads) Update(ctx context.Context, download *models.Download) error {
	return s.db.WithContext(ctx).Save(download).Error
}

func (s *gormDownloads) Delete(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Download{}, "id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormDownloads) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Download{}).
		Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (s *gormDownloads) CountByUserAndStatus(ctx context.Context, userID string, status models.DownloadStatus) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Download{}).
		Where("user_id = ? AND status = ?", userID, status).Count(&count).Error
	return count, err
}

func (s *gormDownloads) CountByUserSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Download{}).
		Where("user_id = ? AND created_at >= ?", userID, since).Count(&count).Error
	return count, err
}

type gormSubscriptions struct {
	db *gorm.DB
}

func (s *gormSubscriptions) Create(ctx context.Context, sub *models.Subscription) error {
	return s.db.WithContext(ctx).Create(sub).Error
}

func (s *gormSubscriptions) ActiveByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (s *gormSubscriptions) ListByUser(ctx context.Context, userID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

func (s *gormSubscriptions) Update(ctx context.Context, sub *models.Subscription) error {
	return s.db.WithContext(ctx).Save(sub).Error
}

func (s *gormSubscriptions) ExpiredActive(ctx context.Context, now time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.WithContext(ctx).
		Where("status = ? AND auto_renew = ? AND expires_at <= ?",
			models.SubscriptionActive, false, now).
		Find(&subs).Error
	return subs, err
}

type gormPayments struct {
	db *gorm.DB
}

func (s *gormPayments) Create(ctx context.Context, payment *models.Payment) error {
	return s.db.WithContext(ctx).Create(payment).Error
}

func (s *gormPayments) ByCorrelationID(ctx context.Context, correlationID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).First(&payment, "correlation_id = ?", correlationID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (s *gormPayments) ByID(ctx context.Context, userID, id string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).Preload("Subscription").
		First(&payment, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (s *gormPayments) ListByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).Preload("Subscription").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

func (s *gormPayments) Update(ctx context.Context, payment *models.Payment) error {
	return s.db.WithContext(ctx).Save(payment).Error
}

func (s *gormPayments) LatestBySubscription(ctx context.Context, subscriptionID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}
