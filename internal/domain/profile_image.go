package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

type ProfileImage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId"        json:"userId"`
	ImageURLs []string           `bson:"image_url"     json:"image_url"`
}
