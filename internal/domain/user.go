package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const AccountActive = "Active"

type User struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty"          json:"id"`
	Email               string              `bson:"email"                  json:"email"`
	PasswordHash        string              `bson:"password"               json:"-"`
	AccountStatus       string              `bson:"accountStatus"          json:"accountStatus"`
	Verified            bool                `bson:"verified"               json:"verified"`
	FirstName           string              `bson:"firstName,omitempty"    json:"firstName,omitempty"`
	LastName            string              `bson:"lastName,omitempty"     json:"lastName,omitempty"`
	Location            string              `bson:"location,omitempty"     json:"location,omitempty"`
	Gender              string              `bson:"gender,omitempty"       json:"gender,omitempty"`
	PhoneNumber         string              `bson:"phoneNumber,omitempty"  json:"phoneNumber,omitempty"`
	CompanyName         string              `bson:"companyName,omitempty"  json:"companyName,omitempty"`
	WebSite             string              `bson:"webSite,omitempty"      json:"webSite,omitempty"`
	TermCheck           bool                `bson:"termCheck"              json:"termCheck"`
	SocialMediaAccounts []string            `bson:"socialMediaAccounts"    json:"socialMediaAccounts"`
	SettingsID          *primitive.ObjectID `bson:"usersSetting,omitempty" json:"usersSetting,omitempty"`
	ProfileImageID      *primitive.ObjectID `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	CreatedAt           time.Time           `bson:"createdAt"              json:"createdAt"`
	UpdatedAt           time.Time           `bson:"updatedAt"              json:"updatedAt"`
}

// Active reports whether the account may log in.
func (u *User) Active() bool { return u.AccountStatus == AccountActive }

// UserDetails is a user with its settings and profile image resolved.
type UserDetails struct {
	User         *User         `json:"user"`
	Settings     *Settings     `json:"setting,omitempty"`
	ProfileImage *ProfileImage `json:"profileImage,omitempty"`
}
