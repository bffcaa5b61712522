package store

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/readrack/magazine-service/internal/model"
)

const issueCollection = "issues"

// IssueFilter selects and pages issues. Every Match entry becomes a
// case-insensitive substring condition; entries are ANDed together.
type IssueFilter struct {
	Match map[string]string
	Sort  string
	Page  int64
	Limit int64
}

type IssueRepository interface {
	Create(ctx context.Context, issue *model.Issue) (*model.Issue, error)
	GetByID(ctx context.Context, issueID int64) (*model.Issue, error)
	GetByTitle(ctx context.Context, title string) (*model.Issue, error)
	GetByKey(ctx context.Context, key string) (*model.Issue, error)
	GetByOrder(ctx context.Context, order int) (*model.Issue, error)
	Update(ctx context.Context, issue *model.Issue) error
	Delete(ctx context.Context, issueID int64) error
	List(ctx context.Context, filter IssueFilter) ([]model.Issue, int64, error)
	Count(ctx context.Context) (int64, error)
	NextIssueOrder(ctx context.Context) (int, error)
	IncrementViews(ctx context.Context, issueID int64) (int64, error)
}

type MongoIssueRepo struct {
	db  *mongo.Database
	log *logrus.Logger
}

func NewIssueRepository(db *mongo.Database, log *logrus.Logger) *MongoIssueRepo {
	return &MongoIssueRepo{db: db, log: log}
}

func (r *MongoIssueRepo) col() *mongo.Collection {
	return r.db.Collection(issueCollection)
}

// Create assigns the next issueId and inserts the document. Timestamps are
// set here, not by the caller.
func (r *MongoIssueRepo) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	id, err := nextSequence(ctx, r.db, "issueId")
	if err != nil {
		return nil, err
	}
	now := time.Now()
	issue.IssueID = id
	issue.CreatedAt = now
	issue.UpdatedAt = now
	if _, err := r.col().InsertOne(ctx, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

func (r *MongoIssueRepo) GetByID(ctx context.Context, issueID int64) (*model.Issue, error) {
	return r.findOne(ctx, bson.M{"issueId": issueID})
}

func (r *MongoIssueRepo) GetByTitle(ctx context.Context, title string) (*model.Issue, error) {
	return r.findOne(ctx, bson.M{"title": title})
}

func (r *MongoIssueRepo) GetByKey(ctx context.Context, key string) (*model.Issue, error) {
	return r.findOne(ctx, bson.M{"key": key})
}

func (r *MongoIssueRepo) GetByOrder(ctx context.Context, order int) (*model.Issue, error) {
	return r.findOne(ctx, bson.M{"issueOrder": order})
}

func (r *MongoIssueRepo) findOne(ctx context.Context, filter bson.M) (*model.Issue, error) {
	var issue model.Issue
	if err := r.col().FindOne(ctx, filter).Decode(&issue); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &issue, nil
}

// Update upserts by issueId.
func (r *MongoIssueRepo) Update(ctx context.Context, issue *model.Issue) error {
	issue.UpdatedAt = time.Now()
	_, err := r.col().UpdateOne(ctx,
		bson.M{"issueId": issue.IssueID},
		bson.M{"$set": issue},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *MongoIssueRepo) Delete(ctx context.Context, issueID int64) error {
	res, err := r.col().DeleteOne(ctx, bson.M{"issueId": issueID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoIssueRepo) List(ctx context.Context, filter IssueFilter) ([]model.Issue, int64, error) {
	match := buildIssueMatch(filter.Match)
	total, err := r.col().CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(buildIssueSort(filter.Sort)).
		SetSkip((filter.Page - 1) * filter.Limit).
		SetLimit(filter.Limit)
	cur, err := r.col().Find(ctx, match, opts)
	if err != nil {
		return nil, 0, err
	}
	var issues []model.Issue
	if err := cur.All(ctx, &issues); err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

func (r *MongoIssueRepo) Count(ctx context.Context) (int64, error) {
	return r.col().CountDocuments(ctx, bson.M{})
}

// NextIssueOrder returns max existing order + 1, or 1 when the collection
// is empty.
func (r *MongoIssueRepo) NextIssueOrder(ctx context.Context) (int, error) {
	var top struct {
		IssueOrder int `bson:"issueOrder"`
	}
	err := r.col().FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "issueOrder", Value: -1}}),
	).Decode(&top)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 1, nil
		}
		return 0, err
	}
	return top.IssueOrder + 1, nil
}

// IncrementViews bumps totalViews and returns the post-increment count.
func (r *MongoIssueRepo) IncrementViews(ctx context.Context, issueID int64) (int64, error) {
	var issue model.Issue
	err := r.col().FindOneAndUpdate(ctx,
		bson.M{"issueId": issueID},
		bson.M{"$inc": bson.M{"totalViews": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return issue.TotalViews, nil
}

func buildIssueMatch(match map[string]string) bson.M {
	filter := bson.M{}
	for field, value := range match {
		filter[field] = primitive.Regex{Pattern: regexp.QuoteMeta(value), Options: "i"}
	}
	return filter
}

// buildIssueSort accepts "field" (ascending) or "-field" (descending) and
// falls back to newest-first by issueId.
func buildIssueSort(sort string) bson.D {
	if sort == "" {
		return bson.D{{Key: "issueId", Value: -1}}
	}
	if strings.HasPrefix(sort, "-") {
		return bson.D{{Key: strings.TrimPrefix(sort, "-"), Value: -1}}
	}
	return bson.D{{Key: sort, Value: 1}}
}
