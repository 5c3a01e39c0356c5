// internal/domain/models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application status values.
const (
	AppApplied     = "applied"
	AppShortlisted = "shortlisted"
	AppSelected    = "selected"
	AppRejected    = "rejected"
)

// ApplicationStatuses lists every valid application status in workflow order.
var ApplicationStatuses = []string{AppApplied, AppShortlisted, AppSelected, AppRejected}

// Application links a student to a company drive. There is at most one
// application per (company_id, student_id).
type Application struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	CompanyID primitive.ObjectID `bson:"company_id" json:"company_id"`
	StudentID primitive.ObjectID `bson:"student_id" json:"student_id"`
	Status    string             `bson:"status" json:"status"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
	AppliedAt time.Time          `bson:"applied_at" json:"applied_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
