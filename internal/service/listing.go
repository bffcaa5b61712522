package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/readrack/magazine-service/internal/model"
	"github.com/readrack/magazine-service/internal/store"
)

type ListParams struct {
	// Filters holds every query field except page, limit and sort; each
	// one becomes a case-insensitive containment match.
	Filters map[string]string
	Page    int64
	Limit   int64
	Sort    string
	UserID  *int64
}

type Listing struct {
	Items []model.Issue `json:"items"`
	Total int64         `json:"total"`
	Pages int64         `json:"pages"`
}

// ListingService pages through issues and, when a caller is identified,
// annotates each issue with whether their subscription covers it.
type ListingService struct {
	issues store.IssueRepository
	subs   store.SubscriptionRepository
	log    *logrus.Logger
	now    func() time.Time
}

func NewListingService(issues store.IssueRepository, subs store.SubscriptionRepository, log *logrus.Logger) *ListingService {
	return &ListingService{issues: issues, subs: subs, log: log, now: time.Now}
}

func (s *ListingService) List(ctx context.Context, p ListParams) (*Listing, error) {
	if p.Page < 1 || p.Limit < 1 {
		return nil, badRequestf("page and limit must be positive integers.")
	}

	items, total, err := s.issues.List(ctx, store.IssueFilter{
		Match: p.Filters,
		Sort:  p.Sort,
		Page:  p.Page,
		Limit: p.Limit,
	})
	if err != nil {
		return nil, err
	}

	if p.UserID != nil {
		if err := s.annotatePaid(ctx, items, *p.UserID); err != nil {
			return nil, err
		}
	}

	return &Listing{
		Items: items,
		Total: total,
		Pages: (total + p.Limit - 1) / p.Limit,
	}, nil
}

// annotatePaid marks each issue created before the caller's latest
// subscription endDate. Without a subscription everything stays unpaid.
func (s *ListingService) annotatePaid(ctx context.Context, items []model.Issue, userID int64) error {
	sub, err := s.subs.LatestByUser(ctx, userID, DefaultSubscriptionType)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	for i := range items {
		items[i].Paid = IsPaidFor(items[i].CreatedAt, sub.EndDate)
	}
	return nil
}
