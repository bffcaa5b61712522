package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/readrack/magazine-service/internal/model"
	"github.com/readrack/magazine-service/internal/objectstore"
	"github.com/readrack/magazine-service/internal/store"
)

// MaxUploadSize caps a single uploaded file at 1000 MB.
const MaxUploadSize = 1000 * 1024 * 1024

const maxDescriptionLen = 255

var issueMIMETypes = map[string]bool{
	"application/pdf":          true,
	"application/octet-stream": true,
}

var coverMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Upload is one file pulled out of a multipart request.
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

type CreateIssueInput struct {
	Title       string
	Author      string
	Description string
	Categories  []string
	Price       float64
	File        *Upload
	Cover       *Upload
}

type UpdateIssueInput struct {
	IssueID          int64
	Title            string
	Author           string
	Description      string
	Categories       []string
	Price            *float64
	IssueOrder       *int
	AvailableForSale *bool
	File             *Upload
	Cover            *Upload
}

// IssueService runs the issue lifecycle across the document store and the
// two object-storage buckets. Steps within one call are sequential; there is
// no cross-request ordering and no rollback of completed steps on failure.
type IssueService struct {
	issues      store.IssueRepository
	objects     objectstore.Store
	issueBucket string
	coverBucket string
	log         *logrus.Logger
	now         func() time.Time
}

func NewIssueService(issues store.IssueRepository, objects objectstore.Store, issueBucket, coverBucket string, log *logrus.Logger) *IssueService {
	return &IssueService{
		issues:      issues,
		objects:     objects,
		issueBucket: issueBucket,
		coverBucket: coverBucket,
		log:         log,
		now:         time.Now,
	}
}

// removeWhitespace derives the storage key from a title.
func removeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func validateIssueFile(u *Upload) error {
	if u == nil || u.Size == 0 {
		return badRequestf("An issue file must be provided to upload.")
	}
	if !issueMIMETypes[u.ContentType] {
		return badRequestf("Issue file type %q is not supported, expected a PDF.", u.ContentType)
	}
	return nil
}

func validateCoverImage(u *Upload) error {
	if u == nil || u.Size == 0 {
		return badRequestf("A cover image must be provided to upload.")
	}
	if !coverMIMETypes[u.ContentType] {
		return badRequestf("Cover image type %q is not supported, expected a JPEG or PNG.", u.ContentType)
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > maxDescriptionLen {
		return badRequestf("Description must be less than %d characters long.", maxDescriptionLen)
	}
	return nil
}

// Create validates the payload, provisions buckets on first use, uploads
// both assets under the derived key and inserts the record.
func (s *IssueService) Create(ctx context.Context, in CreateIssueInput) (*model.Issue, error) {
	if err := validateIssueFile(in.File); err != nil {
		return nil, err
	}
	if err := validateCoverImage(in.Cover); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, badRequestf("A title must be provided for the issue.")
	}
	if in.Author == "" {
		return nil, badRequestf("An author must be provided for the issue.")
	}
	if in.Description == "" {
		return nil, badRequestf("A description must be provided for the issue.")
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	key := removeWhitespace(in.Title)
	existing, err := s.issues.GetByKey(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, badRequestf("Issue with the title %q already exists.", in.Title)
	}

	provisioned, err := s.ensureBuckets(ctx)
	if err != nil {
		return nil, err
	}
	if provisioned {
		// First-time bucket provisioning; the upload is not attempted in
		// the same call.
		return nil, badRequestf("Storage buckets were provisioned, please re-submit the upload.")
	}

	url, err := s.objects.Put(ctx, s.issueBucket, key, in.File.ContentType, in.File.Reader, in.File.Size)
	if err != nil {
		return nil, err
	}
	coverURL, err := s.objects.Put(ctx, s.coverBucket, key, in.Cover.ContentType, in.Cover.Reader, in.Cover.Size)
	if err != nil {
		return nil, err
	}

	order, err := s.issues.NextIssueOrder(ctx)
	if err != nil {
		return nil, err
	}

	issue := &model.Issue{
		Title:            in.Title,
		Key:              key,
		Description:      in.Description,
		Author:           in.Author,
		URL:              url,
		CoverImage:       coverURL,
		Categories:       in.Categories,
		AvailableForSale: true,
		IssueOrder:       order,
		Price:            in.Price,
	}
	return s.issues.Create(ctx, issue)
}

// ensureBuckets creates any missing bucket and reports whether it had to.
func (s *IssueService) ensureBuckets(ctx context.Context) (bool, error) {
	provisioned := false
	for _, bucket := range []string{s.issueBucket, s.coverBucket} {
		exists, err := s.objects.BucketExists(ctx, bucket)
		if err != nil {
			return false, err
		}
		if !exists {
			if err := s.objects.CreateBucket(ctx, bucket); err != nil {
				return false, err
			}
			provisioned = true
		}
	}
	return provisioned, nil
}

// Update applies exactly one of {rename, file replace, cover replace,
// metadata-only} per invocation. Rename is copy-then-delete: the old-key
// objects are removed only after the record points at the new key, so a
// failure in between leaves a dangling old object rather than a broken
// record.
func (s *IssueService) Update(ctx context.Context, in UpdateIssueInput) (*model.Issue, error) {
	issue, err := s.issues.GetByID(ctx, in.IssueID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, badRequestf("No issue was found for the issueId passed.")
		}
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	if in.IssueOrder != nil {
		other, err := s.issues.GetByOrder(ctx, *in.IssueOrder)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if other != nil && other.IssueID != issue.IssueID {
			return nil, badRequestf("Issue order %d is already used by another issue.", *in.IssueOrder)
		}
	}

	switch {
	case in.Title != "" && removeWhitespace(in.Title) != issue.Key:
		if err := s.rename(ctx, issue, in.Title); err != nil {
			return nil, err
		}
	case in.File != nil && in.File.Size > 0:
		if err := validateIssueFile(in.File); err != nil {
			return nil, err
		}
		if err := s.replaceObject(ctx, s.issueBucket, issue.Key, in.File); err != nil {
			return nil, err
		}
		issue.URL = s.objects.LocationOf(s.issueBucket, issue.Key)
	case in.Cover != nil && in.Cover.Size > 0:
		if err := validateCoverImage(in.Cover); err != nil {
			return nil, err
		}
		if err := s.replaceObject(ctx, s.coverBucket, issue.Key, in.Cover); err != nil {
			return nil, err
		}
		issue.CoverImage = s.objects.LocationOf(s.coverBucket, issue.Key)
	}

	s.applyMetadata(issue, in)
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// rename moves both objects to the key derived from the new title and
// repoints the record. The record write happens between copy and delete.
func (s *IssueService) rename(ctx context.Context, issue *model.Issue, newTitle string) error {
	oldKey := issue.Key
	newKey := removeWhitespace(newTitle)

	other, err := s.issues.GetByKey(ctx, newKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if other != nil && other.IssueID != issue.IssueID {
		return badRequestf("Issue with the title %q already exists.", newTitle)
	}

	if err := s.objects.Copy(ctx, s.issueBucket, oldKey, newKey); err != nil {
		return err
	}
	if err := s.objects.Copy(ctx, s.coverBucket, oldKey, newKey); err != nil {
		return err
	}

	issue.Title = newTitle
	issue.Key = newKey
	issue.URL = s.objects.LocationOf(s.issueBucket, newKey)
	issue.CoverImage = s.objects.LocationOf(s.coverBucket, newKey)
	if err := s.issues.Update(ctx, issue); err != nil {
		return err
	}

	// Old-key cleanup is best-effort; its failure is not observed by the
	// caller.
	if err := s.objects.Delete(ctx, s.issueBucket, oldKey); err != nil {
		s.log.WithError(err).WithField("key", oldKey).Warn("failed to delete old issue object")
	}
	if err := s.objects.Delete(ctx, s.coverBucket, oldKey); err != nil {
		s.log.WithError(err).WithField("key", oldKey).Warn("failed to delete old cover object")
	}
	return nil
}

func (s *IssueService) replaceObject(ctx context.Context, bucket, key string, u *Upload) error {
	exists, err := s.objects.ObjectExists(ctx, bucket, key)
	if err != nil {
		return err
	}
	if exists {
		if err := s.objects.Delete(ctx, bucket, key); err != nil {
			return err
		}
	}
	_, err = s.objects.Put(ctx, bucket, key, u.ContentType, u.Reader, u.Size)
	return err
}

func (s *IssueService) applyMetadata(issue *model.Issue, in UpdateIssueInput) {
	if in.Description != "" {
		issue.Description = in.Description
	}
	if in.Author != "" {
		issue.Author = in.Author
	}
	if in.Categories != nil {
		issue.Categories = in.Categories
	}
	if in.Price != nil {
		issue.Price = *in.Price
	}
	if in.IssueOrder != nil {
		issue.IssueOrder = *in.IssueOrder
	}
	if in.AvailableForSale != nil {
		issue.AvailableForSale = *in.AvailableForSale
	}
}

// Delete removes both stored objects by key and then the record. Object
// deletes are best-effort; only the record delete decides the outcome.
func (s *IssueService) Delete(ctx context.Context, issueID int64) error {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return badRequestf("No issue found with id provided.")
		}
		return err
	}

	if err := s.objects.Delete(ctx, s.issueBucket, issue.Key); err != nil {
		s.log.WithError(err).WithField("key", issue.Key).Warn("failed to delete issue object")
	}
	if err := s.objects.Delete(ctx, s.coverBucket, issue.Key); err != nil {
		s.log.WithError(err).WithField("key", issue.Key).Warn("failed to delete cover object")
	}

	if err := s.issues.Delete(ctx, issueID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return badRequestf("No issue found with id provided.")
		}
		return err
	}
	return nil
}

// UpdateViews increments the view counter and returns the new total.
func (s *IssueService) UpdateViews(ctx context.Context, issueID int64) (int64, error) {
	views, err := s.issues.IncrementViews(ctx, issueID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, badRequestf("No issues found to update views.")
		}
		return 0, err
	}
	return views, nil
}

// GetByID fetches a single issue.
func (s *IssueService) GetByID(ctx context.Context, issueID int64) (*model.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, badRequestf("No issue found with id provided.")
		}
		return nil, err
	}
	return issue, nil
}

// Total counts all issues.
func (s *IssueService) Total(ctx context.Context) (int64, error) {
	return s.issues.Count(ctx)
}
