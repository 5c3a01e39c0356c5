// internal/domain/models/submission.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Submission verdicts.
const (
	VerdictAccepted     = "accepted"
	VerdictWrongAnswer  = "wrong_answer"
	VerdictRuntimeError = "runtime_error"
	VerdictCompileError = "compile_error"
	VerdictTimeLimit    = "time_limit"
)

// Submission is a judged solution to a Problem.
type Submission struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	ProblemID primitive.ObjectID `bson:"problem_id" json:"problem_id"`
	StudentID primitive.ObjectID `bson:"student_id" json:"student_id"`
	Language  string             `bson:"language" json:"language"`
	Code      string             `bson:"code" json:"code"`
	Verdict   string             `bson:"verdict" json:"verdict"`
	Passed    int                `bson:"passed" json:"passed"`
	Total     int                `bson:"total" json:"total"`
	Detail    string             `bson:"detail,omitempty" json:"detail,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
