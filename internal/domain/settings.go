package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Settings struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"        json:"id"`
	UserID               primitive.ObjectID `bson:"userId"               json:"userId"`
	PushNotification     bool               `bson:"pushNotification"     json:"pushNotification"`
	ReceivedMessages     bool               `bson:"receivedMessages"     json:"receivedMessages"`
	EmailNotifications   bool               `bson:"emailNotifications"   json:"emailNotifications"`
	RentalAvailability   bool               `bson:"rentalAvailability"   json:"rentalAvailability"`
	ExchangeAvailability bool               `bson:"exchangeAvailability" json:"exchangeAvailability"`
	Currency             string             `bson:"currency"             json:"currency"`
	Location             string             `bson:"location"             json:"location"`
	CreatedAt            time.Time          `bson:"createdAt"            json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt"            json:"updatedAt"`
}

// DefaultSettings returns the settings a new account starts with.
func DefaultSettings() Settings {
	return Settings{
		PushNotification:     false,
		ReceivedMessages:     true,
		EmailNotifications:   true,
		RentalAvailability:   true,
		ExchangeAvailability: false,
		Currency:             "GMD",
		Location:             "Global",
	}
}
