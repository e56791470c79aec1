package models

import "time"

// DubCredential holds the Dubverse API key a user supplies for the dubbing
// provider. At most one credential is active per user; saves are last-write-wins.
type DubCredential struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Email           string    `gorm:"type:varchar(200)" json:"email"`
	TokenIdentifier string    `gorm:"type:varchar(200)" json:"token_identifier"`
	APIKey          string    `gorm:"type:text" json:"-"`
	RequestCount    int64     `gorm:"not null;default:0" json:"request_count"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasKey reports whether a usable API key is stored.
func (c *DubCredential) HasKey() bool {
	return c != nil && c.APIKey != ""
}
