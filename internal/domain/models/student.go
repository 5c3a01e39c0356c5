// internal/domain/models/student.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student is a candidate registered on the portal.
//
// NOTE:
//   - Email is stored folded (lowercase, trimmed) and is unique.
//   - PasswordHash is never serialised to JSON.
//   - Placed/PlacedCompanyID are maintained by the applications feature when
//     an application is marked "selected".
type Student struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	GoogleID     string             `bson:"google_id,omitempty" json:"-"`

	RollNo string   `bson:"roll_no" json:"roll_no"`
	Branch string   `bson:"branch" json:"branch"`
	Year   int      `bson:"year" json:"year"`
	CGPA   float64  `bson:"cgpa" json:"cgpa"`
	Phone  string   `bson:"phone,omitempty" json:"phone,omitempty"`
	Skills []string `bson:"skills,omitempty" json:"skills,omitempty"`

	ResumeURL       string `bson:"resume_url,omitempty" json:"resume_url,omitempty"`
	ResumeKey       string `bson:"resume_key,omitempty" json:"-"`
	ResumeText      string `bson:"resume_text,omitempty" json:"-"`
	ProfileImageURL string `bson:"profile_image_url,omitempty" json:"profile_image_url,omitempty"`
	ProfileImageKey string `bson:"profile_image_key,omitempty" json:"-"`

	Placed          bool                `bson:"placed" json:"placed"`
	PlacedCompanyID *primitive.ObjectID `bson:"placed_company_id,omitempty" json:"placed_company_id,omitempty"`

	Status    string    `bson:"status" json:"status"` // active | disabled
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
