package models

import "time"

// PushSubscription holds a browser push subscription, at most one per user.
// A row is deleted when a push delivery to it fails, so stale subscriptions
// clean themselves up.
type PushSubscription struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	Endpoint  string    `json:"endpoint" gorm:"not null"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
