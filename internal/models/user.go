package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanType represents the subscription tier of a user
type PlanType string

const (
	PlanFree    PlanType = "FREE"
	PlanPremium PlanType = "PREMIUM"
)

// User represents an account holder
type User struct {
	ID             string     `gorm:"column:id;primaryKey;size:36" json:"id"`
	Name           string     `gorm:"column:name;size:255;not null" json:"name"`
	Email          string     `gorm:"column:email;uniqueIndex;size:255;not null" json:"email"`
	PasswordHash   string     `gorm:"column:password_hash;size:255;not null" json:"-"`
	PlanType       PlanType   `gorm:"column:plan_type;size:20;default:FREE" json:"planType"`
	TotalDownloads int        `gorm:"column:total_downloads;default:0" json:"totalDownloads"`
	EmailVerified  bool       `gorm:"column:email_verified;default:false" json:"emailVerified"`
	LastLogin      *time.Time `gorm:"column:last_login" json:"lastLogin"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// BlockedEmail blocks re-registration with the address of a deleted account.
// Rows are append-only.
type BlockedEmail struct {
	ID        string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	Email     string    `gorm:"column:email;uniqueIndex;size:255;not null" json:"email"`
	Reason    string    `gorm:"column:reason;size:100" json:"reason"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (b *BlockedEmail) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (User) TableName() string {
	return "users"
}

func (BlockedEmail) TableName() string {
	return "blocked_emails"
}
