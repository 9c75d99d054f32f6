package models

import "time"

// Specialist is an independent service provider on the platform.
type Specialist struct {
	ID             string      `bson:"id" json:"id"`
	Name           string      `bson:"name" json:"name"`
	Email          string      `bson:"email" json:"email"`
	PasswordHash   string      `bson:"password_hash" json:"-"`
	Specialization BookingType `bson:"specialization" json:"specialization"`
	Available      bool        `bson:"available" json:"available"`
	FCMToken       string      `bson:"fcm_token,omitempty" json:"-"`
	PhotoID        string      `bson:"photo_id,omitempty" json:"photoId,omitempty"`
	CreatedAt      time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time   `bson:"updated_at" json:"updatedAt"`
}
