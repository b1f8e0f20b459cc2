package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SubscriptionExpiryService periodically closes expired subscriptions so
// entitlement does not depend solely on the lazy check at request time.
type SubscriptionExpiryService struct {
	payments      *PaymentService
	checkInterval time.Duration
	stopChan      chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	isRunning     bool
}

// NewSubscriptionExpiryService creates the sweep service.
func NewSubscriptionExpiryService(payments *PaymentService, intervalMinutes int) *SubscriptionExpiryService {
	if intervalMinutes <= 0 {
		intervalMinutes = 60
	}
	return &SubscriptionExpiryService{
		payments:      payments,
		checkInterval: time.Duration(intervalMinutes) * time.Minute,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (s *SubscriptionExpiryService) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()

	log.Info().Dur("interval", s.checkInterval).Msg("subscription expiry service started")
}

// Stop stops the sweep loop and waits for the current pass to finish.
func (s *SubscriptionExpiryService) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
	log.Info().Msg("subscription expiry service stopped")
}

func (s *SubscriptionExpiryService) run() {
	defer s.wg.Done()

	s.sweep()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			return
		}
	}
}

func (s *SubscriptionExpiryService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	expired, err := s.payments.CheckExpiredSubscriptions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("subscription expiry sweep failed")
		return
	}
	if expired > 0 {
		log.Info().Int("expired", expired).Msg("subscription expiry sweep completed")
	}
}
