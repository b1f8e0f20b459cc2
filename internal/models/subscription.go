package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriptionStatus represents the status of a subscription
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
)

// BillingPeriod represents a charge cycle
type BillingPeriod string

const (
	BillingMonthly BillingPeriod = "monthly"
	BillingYearly  BillingPeriod = "yearly"
)

// Subscription represents a PREMIUM entitlement window for a user.
// At most one ACTIVE row may exist per user; a partial unique index
// enforces this at the storage layer (see models.AutoMigrate).
type Subscription struct {
	ID                    string             `gorm:"column:id;primaryKey;size:36" json:"id"`
	UserID                string             `gorm:"column:user_id;size:36;not null;index" json:"userId"`
	PlanType              PlanType           `gorm:"column:plan_type;size:20;not null" json:"planType"`
	Status                SubscriptionStatus `gorm:"column:status;size:20;default:ACTIVE;index" json:"status"`
	StartedAt             time.Time          `gorm:"column:started_at" json:"startedAt"`
	ExpiresAt             *time.Time         `gorm:"column:expires_at" json:"expiresAt"`
	AutoRenew             bool               `gorm:"column:auto_renew;default:false" json:"autoRenew"`
	OpenPixSubscriptionID string             `gorm:"column:openpix_subscription_id;size:100" json:"openpixSubscriptionId,omitempty"`
	DayGenerateCharge     *int               `gorm:"column:day_generate_charge" json:"dayGenerateCharge"`
	CreatedAt             time.Time          `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt             time.Time          `gorm:"column:updated_at" json:"updatedAt"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	return nil
}

func (Subscription) TableName() string {
	return "subscriptions"
}
