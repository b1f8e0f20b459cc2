package store

import (
	"context"
	"errors"
	"time"

	"github.com/clipix/backend/internal/models"
)

// ErrNotFound is returned when a row does not exist or does not belong to
// the requesting user.
var ErrNotFound = errors.New("record not found")

// Store bundles the per-entity data access interfaces. Handlers and services
// receive a *Store instead of touching a global database handle, so tests can
// substitute the in-memory implementation.
type Store struct {
	Users         UserStore
	BlockedEmails BlockedEmailStore
	Downloads     DownloadStore
	Subscriptions SubscriptionStore
	Payments      PaymentStore
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	ByID(ctx context.Context, id string) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePlan(ctx context.Context, id string, plan models.PlanType) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	IncrementDownloads(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type BlockedEmailStore interface {
	Create(ctx context.Context, blocked *models.BlockedEmail) error
	Exists(ctx context.Context, email string) (bool, error)
}

type DownloadStore interface {
	Create(ctx context.Context, download *models.Download) error
	// ByID is ownership-scoped: a row owned by another user is ErrNotFound.
	ByID(ctx context.Context, userID, id string) (*models.Download, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.Download, int64, error)
	Update(ctx context.Context, download *models.Download) error
	Delete(ctx context.Context, userID, id string) error
	CountByUser(ctx context.Context, userID string) (int64, error)
	CountByUserAndStatus(ctx context.Context, userID string, status models.DownloadStatus) (int64, error)
	// CountByUserSince counts rows created at or after the given instant.
	CountByUserSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

type SubscriptionStore interface {
	Create(ctx context.Context, sub *models.Subscription) error
	// ActiveByUser returns the most recent ACTIVE subscription, or ErrNotFound.
	ActiveByUser(ctx context.Context, userID string) (*models.Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]models.Subscription, error)
	Update(ctx context.Context, sub *models.Subscription) error
	// ExpiredActive returns ACTIVE subscriptions past expiry with auto-renew off.
	ExpiredActive(ctx context.Context, now time.Time) ([]models.Subscription, error)
}

type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	ByCorrelationID(ctx context.Context, correlationID string) (*models.Payment, error)
	// ByID is ownership-scoped.
	ByID(ctx context.Context, userID, id string) (*models.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]models.Payment, error)
	LatestBySubscription(ctx context.Context, subscriptionID string) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
}
