package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tazhibayda/rental-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidID    = errors.New("invalid object id")
)

// Tx is a transaction-scoped handle. Every call made through it joins the transaction
// that produced it; the handle must not be used after the InTx callback returns.
type Tx interface {
	FindUserByEmail(email string) (*domain.User, error)
	FindUserByID(id primitive.ObjectID) (*domain.User, error)
	InsertUser(u *domain.User) error
	InsertSettings(st *domain.Settings) error
	InsertProfileImage(p *domain.ProfileImage) error
	LinkUserRefs(userID, settingsID, profileImageID primitive.ObjectID) error
	DeleteUserCascade(userID primitive.ObjectID) (bool, error)
}

// Repository is the store capability set the services depend on.
type Repository interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	FindSettingsByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Settings, error)
	FindProfileImageByUser(ctx context.Context, userID primitive.ObjectID) (*domain.ProfileImage, error)
	CreateEmailToken(ctx context.Context, et domain.EmailToken) error
	UseEmailToken(ctx context.Context, token, purpose string) (*domain.EmailToken, error)
	SetVerified(ctx context.Context, userID primitive.ObjectID) error
	Ping(ctx context.Context) error
}

var (
	_ Repository = (*Store)(nil)
	_ Repository = (*MemoryStore)(nil)
)

// ParseID converts a hex string into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, hex)
	}
	return id, nil
}

// IsCast reports an id or BSON conversion failure.
func IsCast(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidID) || errors.Is(err, primitive.ErrInvalidHex) {
		return true
	}
	var (
		ve  bsoncodec.ValueEncoderError
		vd  bsoncodec.ValueDecoderError
		de  *bsoncodec.DecodeError
		ecf bsoncodec.ErrNoEncoder
	)
	return errors.As(err, &ve) || errors.As(err, &vd) || errors.As(err, &de) || errors.As(err, &ecf)
}

type mongoTx struct {
	sc mongo.SessionContext
	s  *Store
}

func (t *mongoTx) FindUserByEmail(email string) (*domain.User, error) {
	return findOne[domain.User](t.sc, t.s.users, bson.M{"email": email})
}

func (t *mongoTx) FindUserByID(id primitive.ObjectID) (*domain.User, error) {
	return findOne[domain.User](t.sc, t.s.users, bson.M{"_id": id})
}

func (t *mongoTx) InsertUser(u *domain.User) error {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.SocialMediaAccounts == nil {
		u.SocialMediaAccounts = []string{}
	}
	res, err := t.s.users.InsertOne(t.sc, u)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

func (t *mongoTx) InsertSettings(st *domain.Settings) error {
	now := time.Now().UTC()
	st.CreatedAt, st.UpdatedAt = now, now
	res, err := t.s.settings.InsertOne(t.sc, st)
	if err != nil {
		return fmt.Errorf("insert settings: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		st.ID = oid
	}
	return nil
}

func (t *mongoTx) InsertProfileImage(p *domain.ProfileImage) error {
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	res, err := t.s.images.InsertOne(t.sc, p)
	if err != nil {
		return fmt.Errorf("insert profile image: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	return nil
}

func (t *mongoTx) LinkUserRefs(userID, settingsID, profileImageID primitive.ObjectID) error {
	res, err := t.s.users.UpdateOne(t.sc,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			"usersSetting": settingsID,
			"profileImage": profileImageID,
			"updatedAt":    time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("link user refs: %w", err)
	}
	if res.MatchedCount != 1 {
		return fmt.Errorf("link user refs: %w", domain.ErrNotFound)
	}
	return nil
}

func (t *mongoTx) DeleteUserCascade(userID primitive.ObjectID) (bool, error) {
	if _, err := t.s.images.DeleteMany(t.sc, bson.M{"userId": userID}); err != nil {
		return false, fmt.Errorf("delete profile image: %w", err)
	}
	if _, err := t.s.settings.DeleteMany(t.sc, bson.M{"userId": userID}); err != nil {
		return false, fmt.Errorf("delete settings: %w", err)
	}
	if _, err := t.s.tokens.DeleteMany(t.sc, bson.M{"user_id": userID}); err != nil {
		return false, fmt.Errorf("delete email tokens: %w", err)
	}
	res, err := t.s.users.DeleteOne(t.sc, bson.M{"_id": userID})
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return res.DeletedCount == 1, nil
}

// findOne decodes a single document; a missing document is (nil, nil).
func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	err := col.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
