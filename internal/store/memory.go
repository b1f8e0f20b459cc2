package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clipix/backend/internal/models"
)

// NewMemory returns an in-memory Store used by tests as a stand-in for the
// GORM implementation.
func NewMemory() *Store {
	m := &memory{
		users:         make(map[string]models.User),
		blockedEmails: make(map[string]models.BlockedEmail),
		downloads:     make(map[string]models.Download),
		subscriptions: make(map[string]models.Subscription),
		payments:      make(map[string]models.Payment),
	}
	return &Store{
		Users:         &memUsers{m},
		BlockedEmails: &memBlockedEmails{m},
		Downloads:     &memDownloads{m},
		Subscriptions: &memSubscriptions{m},
		Payments:      &memPayments{m},
	}
}

type memory struct {
	mu            sync.RWMutex
	users         map[string]models.User
	blockedEmails map[string]models.BlockedEmail
	downloads     map[string]models.Download
	subscriptions map[string]models.Subscription
	payments      map[string]models.Payment
	seq           int
}

// nextTime produces strictly increasing creation timestamps so "newest first"
// ordering is deterministic even within a single test step.
func (m *memory) nextTime() time.Time {
	m.seq++
	return time.Now().Add(time.Duration(m.seq) * time.Microsecond)
}

type memUsers struct{ m *memory }

func (s *memUsers) Create(ctx context.Context, user *models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.PlanType == "" {
		user.PlanType = models.PlanFree
	}
	user.CreatedAt = s.m.nextTime()
	user.UpdatedAt = user.CreatedAt
	s.m.users[user.ID] = *user
	return nil
}

func (s *memUsers) ByID(ctx context.Context, id string) (*models.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	user, ok := s.m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *memUsers) ByEmail(ctx context.Context, email string) (*models.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, user := range s.m.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memUsers) Update(ctx context.Context, user *models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.users[user.ID]; !ok {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now()
	s.m.users[user.ID] = *user
	return nil
}

func (s *memUsers) UpdatePlan(ctx context.Context, id string, plan models.PlanType) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	user, ok := s.m.users[id]
	if !ok {
		return ErrNotFound
	}
	user.PlanType = plan
	user.UpdatedAt = time.Now()
	s.m.users[id] = user
	return nil
}

func (s *memUsers) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	user, ok := s.m.users[id]
	if !ok {
		return ErrNotFound
	}
	user.LastLogin = &at
	s.m.users[id] = user
	return nil
}

func (s *memUsers) IncrementDownloads(ctx context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	user, ok := s.m.users[id]
	if !ok {
		return ErrNotFound
	}
	user.TotalDownloads++
	s.m.users[id] = user
	return nil
}

func (s *memUsers) Delete(ctx context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.users, id)
	return nil
}

type memBlockedEmails struct{ m *memory }

func (s *memBlockedEmails) Create(ctx context.Context, blocked *models.BlockedEmail) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if blocked.ID == "" {
		blocked.ID = uuid.NewString()
	}
	blocked.CreatedAt = s.m.nextTime()
	s.m.blockedEmails[blocked.Email] = *blocked
	return nil
}

func (s *memBlockedEmails) Exists(ctx context.Context, email string) (bool, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	_, ok := s.m.blockedEmails[email]
	return ok, nil
}

type memDownloads struct{ m *memory }

func (s *memDownloads) Create(ctx context.Context, download *models.Download) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if download.ID == "" {
		download.ID = uuid.NewString()
	}
	if download.Status == "" {
		download.Status = models.DownloadPending
	}
	download.CreatedAt = s.m.nextTime()
	download.UpdatedAt = download.CreatedAt
	s.m.downloads[download.ID] = *download
	return nil
}

func (s *memDownloads) ByID(ctx context.Context, userID, id string) (*models.Download, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	download, ok := s.m.downloads[id]
	if !ok || download.UserID != userID {
		return nil, ErrNotFound
	}
	return &download, nil
}

func (s *memDownloads) ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.Download, int64, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var all []models.Download
	for _, d := range s.m.downloads {
		if d.UserID == userID {
			all = append(all, d)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *memDownloads) Update(ctx context.Context, download *models.Download) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	existing, ok := s.m.downloads[download.ID]
	if !ok {
		return ErrNotFound
	}
	download.CreatedAt = existing.CreatedAt
	download.UpdatedAt = time.Now()
	s.m.downloads[download.ID] = *download
	return nil
}

func (s *memDownloads) Delete(ctx context.Context, userID, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	download, ok := s.m.downloads[id]
	if !ok || download.UserID != userID {
		return ErrNotFound
	}
	delete(s.m.downloads, id)
	return nil
}

func (s *memDownloads) CountByUser(ctx context.Context, userID string) (int64, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var count int64
	for _, d := range s.m.downloads {
		if d.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *memDownloads) CountByUserAndStatus(ctx context.Context, userID string, status models.DownloadStatus) (int64, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var count int64
	for _, d := range s.m.downloads {
		if d.UserID == userID && d.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *memDownloads) CountByUserSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var count int64
	for _, d := range s.m.downloads {
		if d.UserID == userID && !d.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

type memSubscriptions struct{ m *memory }

func (s *memSubscriptions) Create(ctx context.Context, sub *models.Subscription) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.StartedAt.IsZero() {
		sub.StartedAt = time.Now()
	}
	sub.CreatedAt = s.m.nextTime()
	sub.UpdatedAt = sub.CreatedAt
	s.m.subscriptions[sub.ID] = *sub
	return nil
}

func (s *memSubscriptions) ActiveByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var latest *models.Subscription
	for _, sub := range s.m.subscriptions {
		if sub.UserID != userID || sub.Status != models.SubscriptionActive {
			continue
		}
		candidate := sub
		if latest == nil || candidate.CreatedAt.After(latest.CreatedAt) {
			latest = &candidate
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (s *memSubscriptions) ListByUser(ctx context.Context, userID string) ([]models.Subscription, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var subs []models.Subscription
	for _, sub := range s.m.subscriptions {
		if sub.UserID == userID {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.After(subs[j].CreatedAt) })
	return subs, nil
}

func (s *memSubscriptions) Update(ctx context.Context, sub *models.Subscription) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	existing, ok := s.m.subscriptions[sub.ID]
	if !ok {
		return ErrNotFound
	}
	sub.CreatedAt = existing.CreatedAt
	sub.UpdatedAt = time.Now()
	s.m.subscriptions[sub.ID] = *sub
	return nil
}

func (s *memSubscriptions) ExpiredActive(ctx context.Context, now time.Time) ([]models.Subscription, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var subs []models.Subscription
	for _, sub := range s.m.subscriptions {
		if sub.Status == models.SubscriptionActive && !sub.AutoRenew &&
			sub.ExpiresAt != nil && !sub.ExpiresAt.After(now) {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

type memPayments struct{ m *memory }

func (s *memPayments) Create(ctx context.Context, payment *models.Payment) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentActive
	}
	payment.CreatedAt = s.m.nextTime()
	payment.UpdatedAt = payment.CreatedAt
	s.m.payments[payment.ID] = *payment
	return nil
}

func (s *memPayments) ByCorrelationID(ctx context.Context, correlationID string) (*models.Payment, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, p := range s.m.payments {
		if p.CorrelationID == correlationID {
			payment := p
			return &payment, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memPayments) ByID(ctx context.Context, userID, id string) (*models.Payment, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	payment, ok := s.m.payments[id]
	if !ok || payment.UserID != userID {
		return nil, ErrNotFound
	}
	return &payment, nil
}

func (s *memPayments) ListByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var payments []models.Payment
	for _, p := range s.m.payments {
		if p.UserID == userID {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.After(payments[j].CreatedAt) })
	return payments, nil
}

func (s *memPayments) Update(ctx context.Context, payment *models.Payment) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	existing, ok := s.m.payments[payment.ID]
	if !ok {
		return ErrNotFound
	}
	payment.CreatedAt = existing.CreatedAt
	payment.UpdatedAt = time.Now()
	s.m.payments[payment.ID] = *payment
	return nil
}

func (s *memPayments) LatestBySubscription(ctx context.Context, subscriptionID string) (*models.Payment, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var latest *models.Payment
	for _, p := range s.m.payments {
		if p.SubscriptionID == nil || *p.SubscriptionID != subscriptionID {
			continue
		}
		candidate := p
		if latest == nil || candidate.CreatedAt.After(latest.CreatedAt) {
			latest = &candidate
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}
