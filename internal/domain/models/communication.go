// internal/domain/models/communication.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommunicationScores is the coach's rubric; each score is 0..10.
type CommunicationScores struct {
	Fluency     float64  `bson:"fluency" json:"fluency"`
	Grammar     float64  `bson:"grammar" json:"grammar"`
	Vocabulary  float64  `bson:"vocabulary" json:"vocabulary"`
	Clarity     float64  `bson:"clarity" json:"clarity"`
	Overall     float64  `bson:"overall" json:"overall"`
	Corrections []string `bson:"corrections" json:"corrections"`
	Tips        []string `bson:"tips" json:"tips"`
}

// CommunicationEval is one stored evaluation of a spoken/written transcript.
type CommunicationEval struct {
	ID         primitive.ObjectID  `bson:"_id" json:"id"`
	StudentID  primitive.ObjectID  `bson:"student_id" json:"student_id"`
	Topic      string              `bson:"topic" json:"topic"`
	Transcript string              `bson:"transcript" json:"transcript"`
	Scores     CommunicationScores `bson:"scores" json:"scores"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
}
