package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/readrack/magazine-service/internal/model"
	"github.com/readrack/magazine-service/internal/store"
)

const (
	// DefaultSubscriptionType is the only subscription type this domain
	// sells.
	DefaultSubscriptionType = "issue"

	DefaultSubscriptionAmount = 15
)

// SubscriptionService creates and renews yearly subscriptions, refusing a
// second active one per user.
type SubscriptionService struct {
	subs store.SubscriptionRepository
	log  *logrus.Logger
	now  func() time.Time
}

func NewSubscriptionService(subs store.SubscriptionRepository, log *logrus.Logger) *SubscriptionService {
	return &SubscriptionService{subs: subs, log: log, now: time.Now}
}

// Create inserts a subscription unless the user's current one has not yet
// lapsed.
func (s *SubscriptionService) Create(ctx context.Context, req model.SubscriptionRequest) (*model.Subscription, error) {
	now := s.now()

	latest, err := s.subs.LatestByUser(ctx, req.UserID, DefaultSubscriptionType)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if latest != nil {
		if end, perr := time.Parse(TimeFormat, latest.EndDate); perr == nil && now.Before(end) {
			return nil, badRequestf("Subscription is still active for the current year.")
		}
	}

	sub := &model.Subscription{
		SubscriptionID: uuid.NewString(),
		UserID:         req.UserID,
		Type:           DefaultSubscriptionType,
		StartDate:      SubscriptionStartDate(now),
		EndDate:        SubscriptionEndDate(now),
		PurchaseDate:   SubscriptionStartDate(now),
		Amount:         DefaultSubscriptionAmount,
	}
	if req.StartDate != "" {
		if sub.StartDate, err = normalizeDate(req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.EndDate != "" {
		if sub.EndDate, err = normalizeDate(req.EndDate); err != nil {
			return nil, err
		}
	}
	if req.PurchaseDate != "" {
		if sub.PurchaseDate, err = normalizeDate(req.PurchaseDate); err != nil {
			return nil, err
		}
	}
	if req.Amount > 0 {
		sub.Amount = req.Amount
	}

	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, err
	}
	sub.Status = StatusText(sub.EndDate, now)
	return sub, nil
}

// Renew rolls the user's most recent subscription into the window computed
// from the new start date.
func (s *SubscriptionService) Renew(ctx context.Context, req model.SubscriptionRequest) (*model.Subscription, error) {
	now := s.now()

	sub, err := s.subs.LatestByUser(ctx, req.UserID, DefaultSubscriptionType)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, badRequestf("No subscription found for the user to renew.")
		}
		return nil, err
	}

	start := SubscriptionStartDate(now)
	if req.StartDate != "" {
		if start, err = normalizeDate(req.StartDate); err != nil {
			return nil, err
		}
	}
	startAt, err := time.Parse(TimeFormat, start)
	if err != nil {
		return nil, badRequestf("Invalid start date %q.", start)
	}

	sub.StartDate = start
	sub.EndDate = SubscriptionEndDate(startAt)
	if req.PurchaseDate != "" {
		if sub.PurchaseDate, err = normalizeDate(req.PurchaseDate); err != nil {
			return nil, err
		}
	}
	if req.Amount > 0 {
		sub.Amount = req.Amount
	}

	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	sub.Status = StatusText(sub.EndDate, now)
	return sub, nil
}

// List pages through subscriptions, newest window first.
func (s *SubscriptionService) List(ctx context.Context, page, limit int64, userID *int64) ([]model.Subscription, int64, error) {
	if page < 1 || limit < 1 {
		return nil, 0, badRequestf("page and limit must be positive integers.")
	}
	subs, total, err := s.subs.List(ctx, page, limit, userID)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	for i := range subs {
		subs[i].Status = StatusText(subs[i].EndDate, now)
	}
	return subs, total, nil
}
