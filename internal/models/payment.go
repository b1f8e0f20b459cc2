package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentStatus represents the status of a payment. ACTIVE means the PIX
// charge was created and is awaiting payment.
type PaymentStatus string

const (
	PaymentActive    PaymentStatus = "ACTIVE"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentExpired   PaymentStatus = "EXPIRED"
)

// PaymentType distinguishes one-off charges from recurring subscription charges
type PaymentType string

const (
	PaymentTypeCharge       PaymentType = "CHARGE"
	PaymentTypeSubscription PaymentType = "SUBSCRIPTION"
)

// Payment represents a PIX charge issued for a user. Rows are never deleted.
// CorrelationID matches webhook callbacks back to the row; BillingPeriod is
// stored explicitly so renewal length never has to be inferred from the
// correlation id string.
type Payment struct {
	ID             string        `gorm:"column:id;primaryKey;size:36" json:"id"`
	UserID         string        `gorm:"column:user_id;size:36;not null;index" json:"userId"`
	SubscriptionID *string       `gorm:"column:subscription_id;size:36;index" json:"subscriptionId"`
	Subscription   *Subscription `gorm:"foreignKey:SubscriptionID" json:"subscription,omitempty"`
	Amount         float64       `gorm:"column:amount;type:decimal(15,2);not null" json:"amount"`
	Currency       string        `gorm:"column:currency;size:10;default:BRL" json:"currency"`
	Status         PaymentStatus `gorm:"column:status;size:20;default:ACTIVE;index" json:"status"`
	PaymentMethod  string        `gorm:"column:payment_method;size:20;default:PIX" json:"paymentMethod"`
	PaymentType    PaymentType   `gorm:"column:payment_type;size:20;default:CHARGE" json:"paymentType"`
	BillingPeriod  BillingPeriod `gorm:"column:billing_period;size:20" json:"billingPeriod"`

	// OpenPix identifiers and PIX artifacts
	CorrelationID    string `gorm:"column:correlation_id;size:255;uniqueIndex;not null" json:"correlationId"`
	OpenPixChargeID  string `gorm:"column:openpix_charge_id;size:100" json:"openpixChargeId"`
	OpenPixGlobalID  string `gorm:"column:openpix_global_id;size:100" json:"openpixGlobalId"`
	TransactionID    string `gorm:"column:transaction_id;size:100" json:"transactionId"`
	BrCode           string `gorm:"column:br_code;type:text" json:"brCode"`
	QRCodeImage      string `gorm:"column:qr_code_image;size:2048" json:"qrCodeImage"`
	PaymentLinkURL   string `gorm:"column:payment_link_url;size:2048" json:"paymentLinkUrl"`

	ExpiresAt *time.Time `gorm:"column:expires_at" json:"expiresAt"`
	PaidAt    *time.Time `gorm:"column:paid_at" json:"paidAt"`
	CreatedAt time.Time  `gorm:"column:created_at;index" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (Payment) TableName() string {
	return "payments"
}
