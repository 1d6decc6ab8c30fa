package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const PurposeVerify = "verify"

type EmailToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Token     string             `bson:"token"`      // opaque, random base64url
	Purpose   string             `bson:"purpose"`    // "verify"
	ExpiresAt time.Time          `bson:"expires_at"` // TTL index
	UsedAt    *time.Time         `bson:"used_at,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}
