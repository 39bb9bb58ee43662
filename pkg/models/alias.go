package models

import "time"

// Alias maps a short key to a destination URL.
//
// The key is unique across the store. Re-upserting an existing key replaces
// both the destination and the owner, so the last writer owns the alias.
type Alias struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	Key         string    `gorm:"column:alias;uniqueIndex;not null;size:128" json:"from"`
	Destination string    `gorm:"not null" json:"to"`
	OwnerID     uint      `gorm:"index;not null" json:"owner_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Alias.
func (Alias) TableName() string {
	return "aliases"
}
