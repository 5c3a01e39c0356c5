// internal/domain/models/problem.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Problem difficulties.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// TestCase is one stdin/expected-stdout pair.
type TestCase struct {
	Input  string `bson:"input" json:"input" yaml:"input"`
	Output string `bson:"output" json:"output" yaml:"output"`
}

// Problem is a DSA practice problem. Tests are hidden from students.
type Problem struct {
	ID         primitive.ObjectID `bson:"_id" json:"id" yaml:"-"`
	Title      string             `bson:"title" json:"title" yaml:"title"`
	Slug       string             `bson:"slug" json:"slug" yaml:"slug"`
	Difficulty string             `bson:"difficulty" json:"difficulty" yaml:"difficulty"`
	Statement  string             `bson:"statement" json:"statement" yaml:"statement"`
	Tags       []string           `bson:"tags,omitempty" json:"tags" yaml:"tags"`
	Samples    []TestCase         `bson:"samples" json:"samples" yaml:"samples"`
	Tests      []TestCase         `bson:"tests" json:"tests,omitempty" yaml:"tests"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at" yaml:"-"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at" yaml:"-"`
}

// ValidDifficulty reports whether d is a known difficulty.
func ValidDifficulty(d string) bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}
