// internal/domain/models/resumescan.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ATS result sources.
const (
	ScanSourceLLM      = "llm"
	ScanSourceFallback = "fallback"
)

// ATSResult is the scored comparison of a resume against a job description.
type ATSResult struct {
	Score           int      `bson:"score" json:"score"`
	MatchedKeywords []string `bson:"matched_keywords" json:"matched_keywords"`
	MissingKeywords []string `bson:"missing_keywords" json:"missing_keywords"`
	Suggestions     []string `bson:"suggestions" json:"suggestions"`
	Summary         string   `bson:"summary" json:"summary"`
	Source          string   `bson:"source" json:"source"`
}

// ResumeScan is a stored ATS run.
type ResumeScan struct {
	ID             primitive.ObjectID  `bson:"_id" json:"id"`
	StudentID      primitive.ObjectID  `bson:"student_id" json:"student_id"`
	CompanyID      *primitive.ObjectID `bson:"company_id,omitempty" json:"company_id,omitempty"`
	JobDescription string              `bson:"job_description" json:"job_description"`
	ResumeURL      string              `bson:"resume_url,omitempty" json:"resume_url,omitempty"`
	Result         ATSResult           `bson:"result" json:"result"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
}
