package store

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/readrack/magazine-service/internal/model"
)

const subscriptionCollection = "subscriptions"

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *model.Subscription) error
	Upsert(ctx context.Context, sub *model.Subscription) error
	List(ctx context.Context, page, limit int64, userID *int64) ([]model.Subscription, int64, error)
	LatestByUser(ctx context.Context, userID int64, subType string) (*model.Subscription, error)
}

type MongoSubscriptionRepo struct {
	db  *mongo.Database
	log *logrus.Logger
}

func NewSubscriptionRepository(db *mongo.Database, log *logrus.Logger) *MongoSubscriptionRepo {
	return &MongoSubscriptionRepo{db: db, log: log}
}

func (r *MongoSubscriptionRepo) col() *mongo.Collection {
	return r.db.Collection(subscriptionCollection)
}

func (r *MongoSubscriptionRepo) Create(ctx context.Context, sub *model.Subscription) error {
	_, err := r.col().InsertOne(ctx, sub)
	return err
}

// Upsert replaces the document with the same subscriptionId.
func (r *MongoSubscriptionRepo) Upsert(ctx context.Context, sub *model.Subscription) error {
	_, err := r.col().UpdateOne(ctx,
		bson.M{"subscriptionId": sub.SubscriptionID},
		bson.M{"$set": sub},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *MongoSubscriptionRepo) List(ctx context.Context, page, limit int64, userID *int64) ([]model.Subscription, int64, error) {
	filter := bson.M{}
	if userID != nil {
		filter["userId"] = *userID
	}
	total, err := r.col().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "endDate", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cur, err := r.col().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	var subs []model.Subscription
	if err := cur.All(ctx, &subs); err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

// LatestByUser returns the user's subscription with the most distant
// endDate, the one that decides paid access.
func (r *MongoSubscriptionRepo) LatestByUser(ctx context.Context, userID int64, subType string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.col().FindOne(ctx,
		bson.M{"userId": userID, "type": subType},
		options.FindOne().SetSort(bson.D{{Key: "endDate", Value: -1}}),
	).Decode(&sub)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}
