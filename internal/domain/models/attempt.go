// internal/domain/models/attempt.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProctorEntry is one flagged webcam snapshot.
type ProctorEntry struct {
	ImageURL string    `bson:"image_url" json:"image_url"`
	Reason   string    `bson:"reason" json:"reason"`
	At       time.Time `bson:"at" json:"at"`
}

// Attempt is a student's single sitting of a quiz. There is at most one
// attempt per (quiz_id, student_id).
type Attempt struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	QuizID      primitive.ObjectID `bson:"quiz_id" json:"quiz_id"`
	StudentID   primitive.ObjectID `bson:"student_id" json:"student_id"`
	StartedAt   time.Time          `bson:"started_at" json:"started_at"`
	SubmittedAt *time.Time         `bson:"submitted_at,omitempty" json:"submitted_at,omitempty"`
	Answers     []int              `bson:"answers,omitempty" json:"answers,omitempty"`
	Score       int                `bson:"score" json:"score"`
	Total       int                `bson:"total" json:"total"`
	Percentage  float64            `bson:"percentage" json:"percentage"`
	Late        bool               `bson:"late" json:"late"`
	ProctorLog  []ProctorEntry     `bson:"proctor_log,omitempty" json:"proctor_log"`
	Flagged     bool               `bson:"flagged" json:"flagged"`
}

// Submitted reports whether the attempt has been handed in.
func (a Attempt) Submitted() bool { return a.SubmittedAt != nil }
