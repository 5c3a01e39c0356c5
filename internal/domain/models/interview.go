// internal/domain/models/interview.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnswerFeedback is the coach's evaluation of one answer.
type AnswerFeedback struct {
	Score        float64  `bson:"score" json:"score"`
	Strengths    []string `bson:"strengths" json:"strengths"`
	Improvements []string `bson:"improvements" json:"improvements"`
	IdealAnswer  string   `bson:"ideal_answer" json:"ideal_answer"`
}

// InterviewQuestion is one generated question and, once answered, its feedback.
type InterviewQuestion struct {
	Question   string          `bson:"question" json:"question"`
	Answer     string          `bson:"answer,omitempty" json:"answer,omitempty"`
	Feedback   *AnswerFeedback `bson:"feedback,omitempty" json:"feedback,omitempty"`
	AnsweredAt *time.Time      `bson:"answered_at,omitempty" json:"answered_at,omitempty"`
}

// InterviewSession is a mock interview for a role and seniority level.
type InterviewSession struct {
	ID           primitive.ObjectID  `bson:"_id" json:"id"`
	StudentID    primitive.ObjectID  `bson:"student_id" json:"student_id"`
	Role         string              `bson:"role" json:"role"`
	Level        string              `bson:"level" json:"level"`
	Questions    []InterviewQuestion `bson:"questions" json:"questions"`
	OverallScore *float64            `bson:"overall_score,omitempty" json:"overall_score,omitempty"`
	Finished     bool                `bson:"finished" json:"finished"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	FinishedAt   *time.Time          `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
}
