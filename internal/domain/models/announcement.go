// internal/domain/models/announcement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnnouncementType categorises an announcement for display.
type AnnouncementType string

const (
	AnnouncementInfo    AnnouncementType = "info"
	AnnouncementWarning AnnouncementType = "warning"
	AnnouncementDrive   AnnouncementType = "drive"
	AnnouncementResult  AnnouncementType = "result"
)

// Valid reports whether t is a known announcement type.
func (t AnnouncementType) Valid() bool {
	switch t {
	case AnnouncementInfo, AnnouncementWarning, AnnouncementDrive, AnnouncementResult:
		return true
	}
	return false
}

// Announcement is a notice published by the placement cell.
// It is visible to students while Active and inside [StartsAt, EndsAt].
type Announcement struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	Type      AnnouncementType   `bson:"type" json:"type"`
	Pinned    bool               `bson:"pinned" json:"pinned"`
	Active    bool               `bson:"active" json:"active"`
	StartsAt  *time.Time         `bson:"starts_at,omitempty" json:"starts_at,omitempty"`
	EndsAt    *time.Time         `bson:"ends_at,omitempty" json:"ends_at,omitempty"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// VisibleAt reports whether the announcement should be shown to students at t.
func (a Announcement) VisibleAt(t time.Time) bool {
	if !a.Active {
		return false
	}
	if a.StartsAt != nil && t.Before(*a.StartsAt) {
		return false
	}
	if a.EndsAt != nil && !t.Before(*a.EndsAt) {
		return false
	}
	return true
}
