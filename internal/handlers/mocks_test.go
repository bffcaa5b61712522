package handlers

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/readrack/magazine-service/internal/model"
	"github.com/readrack/magazine-service/internal/service"
	"github.com/readrack/magazine-service/internal/store"
)

// in-memory doubles for wiring real services under httptest

type memIssueRepo struct {
	issues map[int64]*model.Issue
	nextID int64
}

func newMemIssueRepo() *memIssueRepo {
	return &memIssueRepo{issues: map[int64]*model.Issue{}}
}

func (m *memIssueRepo) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	m.nextID++
	issue.IssueID = m.nextID
	issue.CreatedAt = time.Now()
	issue.UpdatedAt = issue.CreatedAt
	cp := *issue
	m.issues[issue.IssueID] = &cp
	return issue, nil
}

func (m *memIssueRepo) GetByID(ctx context.Context, issueID int64) (*model.Issue, error) {
	if issue, ok := m.issues[issueID]; ok {
		cp := *issue
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (m *memIssueRepo) GetByTitle(ctx context.Context, title string) (*model.Issue, error) {
	return m.find(func(i *model.Issue) bool { return i.Title == title })
}

func (m *memIssueRepo) GetByKey(ctx context.Context, key string) (*model.Issue, error) {
	return m.find(func(i *model.Issue) bool { return i.Key == key })
}

func (m *memIssueRepo) GetByOrder(ctx context.Context, order int) (*model.Issue, error) {
	return m.find(func(i *model.Issue) bool { return i.IssueOrder == order })
}

func (m *memIssueRepo) find(match func(*model.Issue) bool) (*model.Issue, error) {
	for _, issue := range m.issues {
		if match(issue) {
			cp := *issue
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memIssueRepo) Update(ctx context.Context, issue *model.Issue) error {
	cp := *issue
	m.issues[issue.IssueID] = &cp
	return nil
}

func (m *memIssueRepo) Delete(ctx context.Context, issueID int64) error {
	if _, ok := m.issues[issueID]; !ok {
		return store.ErrNotFound
	}
	delete(m.issues, issueID)
	return nil
}

func (m *memIssueRepo) List(ctx context.Context, filter store.IssueFilter) ([]model.Issue, int64, error) {
	var all []model.Issue
	for _, issue := range m.issues {
		all = append(all, *issue)
	}
	return all, int64(len(all)), nil
}

func (m *memIssueRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.issues)), nil
}

func (m *memIssueRepo) NextIssueOrder(ctx context.Context) (int, error) {
	max := 0
	for _, issue := range m.issues {
		if issue.IssueOrder > max {
			max = issue.IssueOrder
		}
	}
	return max + 1, nil
}

func (m *memIssueRepo) IncrementViews(ctx context.Context, issueID int64) (int64, error) {
	issue, ok := m.issues[issueID]
	if !ok {
		return 0, store.ErrNotFound
	}
	issue.TotalViews++
	return issue.TotalViews, nil
}

type memSubRepo struct {
	subs []model.Subscription
}

func (m *memSubRepo) Create(ctx context.Context, sub *model.Subscription) error {
	m.subs = append(m.subs, *sub)
	return nil
}

func (m *memSubRepo) Upsert(ctx context.Context, sub *model.Subscription) error {
	for i := range m.subs {
		if m.subs[i].SubscriptionID == sub.SubscriptionID {
			m.subs[i] = *sub
			return nil
		}
	}
	m.subs = append(m.subs, *sub)
	return nil
}

func (m *memSubRepo) List(ctx context.Context, page, limit int64, userID *int64) ([]model.Subscription, int64, error) {
	var out []model.Subscription
	for _, s := range m.subs {
		if userID == nil || s.UserID == *userID {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memSubRepo) LatestByUser(ctx context.Context, userID int64, subType string) (*model.Subscription, error) {
	var latest *model.Subscription
	for i := range m.subs {
		s := &m.subs[i]
		if s.UserID != userID || s.Type != subType {
			continue
		}
		if latest == nil || s.EndDate > latest.EndDate {
			latest = s
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

type memObjectStore struct {
	buckets map[string]bool
	objects map[string]bool
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{
		buckets: map[string]bool{"issues": true, "covers": true},
		objects: map[string]bool{},
	}
}

func (m *memObjectStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return m.buckets[bucket], nil
}

func (m *memObjectStore) CreateBucket(ctx context.Context, bucket string) error {
	m.buckets[bucket] = true
	return nil
}

func (m *memObjectStore) ObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	return m.objects[bucket+"/"+key], nil
}

func (m *memObjectStore) Put(ctx context.Context, bucket, key, contentType string, r io.Reader, size int64) (string, error) {
	m.objects[bucket+"/"+key] = true
	return m.LocationOf(bucket, key), nil
}

func (m *memObjectStore) Delete(ctx context.Context, bucket, key string) error {
	delete(m.objects, bucket+"/"+key)
	return nil
}

func (m *memObjectStore) Copy(ctx context.Context, bucket, oldKey, newKey string) error {
	m.objects[bucket+"/"+newKey] = true
	return nil
}

func (m *memObjectStore) LocationOf(bucket, key string) string {
	ext := "jpeg"
	if bucket == "issues" {
		ext = "pdf"
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s.%s", bucket, key, ext)
}

func newTestHandler() (*Handler, *memIssueRepo, *memSubRepo) {
	log := logrus.New()
	issueRepo := newMemIssueRepo()
	subRepo := &memSubRepo{}
	objects := newMemObjectStore()

	issueSvc := service.NewIssueService(issueRepo, objects, "issues", "covers", log)
	listingSvc := service.NewListingService(issueRepo, subRepo, log)
	subSvc := service.NewSubscriptionService(subRepo, log)
	return NewHandler(issueSvc, listingSvc, subSvc, log), issueRepo, subRepo
}
