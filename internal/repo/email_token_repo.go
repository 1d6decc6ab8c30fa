package repo

import (
	"context"
	"errors"
	"time"

	"github.com/tazhibayda/rental-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

func (s *Store) EnsureEmailTokenIndexes(ctx context.Context) error {
	_, err := s.tokens.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// TTL: expired tokens are removed by the server
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expire"),
		},
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_token"),
		},
	})
	return err
}

func (s *Store) CreateEmailToken(ctx context.Context, et domain.EmailToken) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.email_token.insert",
		tracer.Tag("purpose", et.Purpose),
		tracer.Tag("user_id", et.UserID.Hex()),
	)
	defer sp.Finish()
	et.CreatedAt = time.Now().UTC()
	_, err := s.tokens.InsertOne(ctx, et)
	if err != nil {
		sp.SetTag("error", err)
	}
	return err
}

// UseEmailToken consumes a token exactly once. Unknown, used or expired tokens yield domain.ErrNotFound.
func (s *Store) UseEmailToken(ctx context.Context, token, purpose string) (*domain.EmailToken, error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.email_token.consume",
		tracer.Tag("purpose", purpose),
	)
	defer sp.Finish()

	now := time.Now().UTC()
	res := s.tokens.FindOneAndUpdate(
		ctx,
		bson.M{"token": token, "purpose": purpose, "used_at": bson.M{"$exists": false}, "expires_at": bson.M{"$gt": now}},
		bson.M{"$set": bson.M{"used_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var et domain.EmailToken
	if err := res.Decode(&et); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		sp.SetTag("error", err)
		return nil, err
	}
	return &et, nil
}
