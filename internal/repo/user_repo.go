package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/tazhibayda/rental-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

func (s *Store) FindUserByEmail(ctx context.Context, email string) (u *domain.User, err error) {
	sp, ctx := startSpan(ctx, "mongo.users.find_by_email")
	defer func() { sp.Finish(tracer.WithError(err)) }()
	return findOne[domain.User](ctx, s.users, bson.M{"email": email})
}

func (s *Store) FindUserByID(ctx context.Context, id primitive.ObjectID) (u *domain.User, err error) {
	sp, ctx := startSpan(ctx, "mongo.users.find_by_id")
	defer func() { sp.Finish(tracer.WithError(err)) }()
	return findOne[domain.User](ctx, s.users, bson.M{"_id": id})
}

func (s *Store) FindSettingsByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Settings, error) {
	return findOne[domain.Settings](ctx, s.settings, bson.M{"userId": userID})
}

func (s *Store) FindProfileImageByUser(ctx context.Context, userID primitive.ObjectID) (*domain.ProfileImage, error) {
	return findOne[domain.ProfileImage](ctx, s.images, bson.M{"userId": userID})
}

func (s *Store) SetVerified(ctx context.Context, userID primitive.ObjectID) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"verified": true, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("set verified: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
