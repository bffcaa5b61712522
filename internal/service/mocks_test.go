package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/readrack/magazine-service/internal/model"
	"github.com/readrack/magazine-service/internal/store"
)

// in-memory issue repository

type fakeIssueRepo struct {
	issues map[int64]*model.Issue
	nextID int64
	listFn func(filter store.IssueFilter) ([]model.Issue, int64, error)
	failFn func(op string) error
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: map[int64]*model.Issue{}}
}

func (f *fakeIssueRepo) fail(op string) error {
	if f.failFn != nil {
		return f.failFn(op)
	}
	return nil
}

func (f *fakeIssueRepo) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	if err := f.fail("create"); err != nil {
		return nil, err
	}
	f.nextID++
	now := time.Now()
	issue.IssueID = f.nextID
	issue.CreatedAt = now
	issue.UpdatedAt = now
	cp := *issue
	f.issues[issue.IssueID] = &cp
	return issue, nil
}

func (f *fakeIssueRepo) GetByID(ctx context.Context, issueID int64) (*model.Issue, error) {
	if issue, ok := f.issues[issueID]; ok {
		cp := *issue
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeIssueRepo) GetByTitle(ctx context.Context, title string) (*model.Issue, error) {
	return f.find(func(i *model.Issue) bool { return i.Title == title })
}

func (f *fakeIssueRepo) GetByKey(ctx context.Context, key string) (*model.Issue, error) {
	return f.find(func(i *model.Issue) bool { return i.Key == key })
}

func (f *fakeIssueRepo) GetByOrder(ctx context.Context, order int) (*model.Issue, error) {
	return f.find(func(i *model.Issue) bool { return i.IssueOrder == order })
}

func (f *fakeIssueRepo) find(match func(*model.Issue) bool) (*model.Issue, error) {
	for _, issue := range f.issues {
		if match(issue) {
			cp := *issue
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeIssueRepo) Update(ctx context.Context, issue *model.Issue) error {
	if err := f.fail("update"); err != nil {
		return err
	}
	issue.UpdatedAt = time.Now()
	cp := *issue
	f.issues[issue.IssueID] = &cp
	return nil
}

func (f *fakeIssueRepo) Delete(ctx context.Context, issueID int64) error {
	if _, ok := f.issues[issueID]; !ok {
		return store.ErrNotFound
	}
	delete(f.issues, issueID)
	return nil
}

func (f *fakeIssueRepo) List(ctx context.Context, filter store.IssueFilter) ([]model.Issue, int64, error) {
	if f.listFn != nil {
		return f.listFn(filter)
	}
	var all []model.Issue
	for _, issue := range f.issues {
		all = append(all, *issue)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].IssueID > all[j].IssueID })
	return all, int64(len(all)), nil
}

func (f *fakeIssueRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.issues)), nil
}

func (f *fakeIssueRepo) NextIssueOrder(ctx context.Context) (int, error) {
	max := 0
	for _, issue := range f.issues {
		if issue.IssueOrder > max {
			max = issue.IssueOrder
		}
	}
	return max + 1, nil
}

func (f *fakeIssueRepo) IncrementViews(ctx context.Context, issueID int64) (int64, error) {
	issue, ok := f.issues[issueID]
	if !ok {
		return 0, store.ErrNotFound
	}
	issue.TotalViews++
	return issue.TotalViews, nil
}

// in-memory subscription repository

type fakeSubRepo struct {
	subs []model.Subscription
}

func (f *fakeSubRepo) Create(ctx context.Context, sub *model.Subscription) error {
	f.subs = append(f.subs, *sub)
	return nil
}

func (f *fakeSubRepo) Upsert(ctx context.Context, sub *model.Subscription) error {
	for i := range f.subs {
		if f.subs[i].SubscriptionID == sub.SubscriptionID {
			f.subs[i] = *sub
			return nil
		}
	}
	f.subs = append(f.subs, *sub)
	return nil
}

func (f *fakeSubRepo) List(ctx context.Context, page, limit int64, userID *int64) ([]model.Subscription, int64, error) {
	var out []model.Subscription
	for _, s := range f.subs {
		if userID == nil || s.UserID == *userID {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeSubRepo) LatestByUser(ctx context.Context, userID int64, subType string) (*model.Subscription, error) {
	var latest *model.Subscription
	for i := range f.subs {
		s := &f.subs[i]
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

// in-memory object store tracking call order

type fakeObjectStore struct {
	buckets map[string]bool
	objects map[string]bool
	calls   []string
	failOp  string
}

func newFakeObjectStore(buckets ...string) *fakeObjectStore {
	f := &fakeObjectStore{buckets: map[string]bool{}, objects: map[string]bool{}}
	for _, b := range buckets {
		f.buckets[b] = true
	}
	return f
}

func (f *fakeObjectStore) record(op, bucket, key string) error {
	f.calls = append(f.calls, fmt.Sprintf("%s %s/%s", op, bucket, key))
	if f.failOp == op {
		return fmt.Errorf("%s failed", op)
	}
	return nil
}

func (f *fakeObjectStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeObjectStore) CreateBucket(ctx context.Context, bucket string) error {
	if err := f.record("createBucket", bucket, ""); err != nil {
		return err
	}
	f.buckets[bucket] = true
	return nil
}

func (f *fakeObjectStore) ObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	return f.objects[bucket+"/"+key], nil
}

func (f *fakeObjectStore) Put(ctx context.Context, bucket, key, contentType string, r io.Reader, size int64) (string, error) {
	if err := f.record("put", bucket, key); err != nil {
		return "", err
	}
	f.objects[bucket+"/"+key] = true
	return f.LocationOf(bucket, key), nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, bucket, key string) error {
	if err := f.record("delete", bucket, key); err != nil {
		return err
	}
	delete(f.objects, bucket+"/"+key)
	return nil
}

func (f *fakeObjectStore) Copy(ctx context.Context, bucket, oldKey, newKey string) error {
	if err := f.record("copy", bucket, oldKey+"->"+newKey); err != nil {
		return err
	}
	f.objects[bucket+"/"+newKey] = true
	return nil
}

func (f *fakeObjectStore) LocationOf(bucket, key string) string {
	ext := "jpeg"
	if bucket == "issues" {
		ext = "pdf"
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s.%s", bucket, key, ext)
}
