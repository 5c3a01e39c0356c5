// internal/domain/models/quiz.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Question is a single multiple-choice question. Answer is the index of the
// correct option and is stripped before a quiz is sent to a student.
type Question struct {
	Text    string   `bson:"text" json:"text"`
	Options []string `bson:"options" json:"options"`
	Answer  *int     `bson:"answer" json:"answer,omitempty"`
}

// Quiz is a timed aptitude/technical test.
type Quiz struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Topic           string             `bson:"topic,omitempty" json:"topic,omitempty"`
	DurationMinutes int                `bson:"duration_minutes" json:"duration_minutes"`
	Questions       []Question         `bson:"questions" json:"questions"`
	Active          bool               `bson:"active" json:"active"`
	StartsAt        *time.Time         `bson:"starts_at,omitempty" json:"starts_at,omitempty"`
	EndsAt          *time.Time         `bson:"ends_at,omitempty" json:"ends_at,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// OpenAt reports whether a student may start the quiz at t.
func (q Quiz) OpenAt(t time.Time) bool {
	if !q.Active {
		return false
	}
	if q.StartsAt != nil && t.Before(*q.StartsAt) {
		return false
	}
	if q.EndsAt != nil && !t.Before(*q.EndsAt) {
		return false
	}
	return true
}

// ForStudent returns a copy of the quiz with every answer removed.
func (q Quiz) ForStudent() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, qq := range q.Questions {
		out.Questions[i] = Question{Text: qq.Text, Options: qq.Options}
	}
	return out
}

// LateGrace is how long after the duration a submission is still on time.
const LateGrace = 30 * time.Second

// Grade counts correct answers. Missing, out-of-range or negative answers
// score nothing; extra answers are ignored.
func (q Quiz) Grade(answers []int) (score, total int) {
	total = len(q.Questions)
	for i, qq := range q.Questions {
		if i >= len(answers) || qq.Answer == nil {
			continue
		}
		if answers[i] == *qq.Answer {
			score++
		}
	}
	return score, total
}

// IsLate reports whether a submission at submitted for an attempt started at
// started exceeds the duration plus LateGrace.
func (q Quiz) IsLate(started, submitted time.Time) bool {
	limit := time.Duration(q.DurationMinutes)*time.Minute + LateGrace
	return submitted.Sub(started) > limit
}
