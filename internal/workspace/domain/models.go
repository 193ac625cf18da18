package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Workspace is the tenant boundary every ledger record hangs off.
type Workspace struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Slug      string       `gorm:"not null;uniqueIndex" json:"slug"`
	Timezone  string       `gorm:"not null;default:'UTC'" json:"timezone"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Workspace) TableName() string { return "workspaces" }

// Location resolves the workspace time zone, falling back to UTC.
func (w Workspace) Location() *time.Location {
	if w.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
