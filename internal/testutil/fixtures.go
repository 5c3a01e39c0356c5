package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext password set on fixture accounts.
const TestPassword = "password123"

// Fixtures inserts test documents directly into the database.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("insert into %s: %v", coll, err)
	}
}

func hashPassword(t *testing.T) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(h)
}

// CreateStudent inserts an active student with TestPassword.
func (f *Fixtures) CreateStudent(ctx context.Context, name, email, rollNo, branch string, cgpa float64) models.Student {
	f.t.Helper()
	now := time.Now().UTC()
	s := models.Student{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Email:        email,
		PasswordHash: hashPassword(f.t),
		RollNo:       rollNo,
		Branch:       branch,
		Year:         4,
		CGPA:         cgpa,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "students", s)
	return s
}

// CreateAdmin inserts an active admin with TestPassword.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string, super bool) models.Admin {
	f.t.Helper()
	now := time.Now().UTC()
	a := models.Admin{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        email,
		PasswordHash: hashPassword(f.t),
		SuperAdmin:   super,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "admins", a)
	return a
}

// CreateCompany inserts an open company whose deadline is a week away.
func (f *Fixtures) CreateCompany(ctx context.Context, name string, minCGPA float64, branches ...string) models.Company {
	f.t.Helper()
	now := time.Now().UTC()
	c := models.Company{
		ID:         primitive.NewObjectID(),
		Name:       name,
		NameCI:     text.Fold(name),
		Role:       "Software Engineer",
		PackageLPA: 12,
		MinCGPA:    minCGPA,
		Branches:   branches,
		Deadline:   now.Add(7 * 24 * time.Hour),
		Status:     models.CompanyOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "companies", c)
	return c
}

// CreateQuiz inserts an active quiz of simple two-option questions whose
// correct answers are given by answers.
func (f *Fixtures) CreateQuiz(ctx context.Context, title string, durationMinutes int, answers ...int) models.Quiz {
	f.t.Helper()
	now := time.Now().UTC()
	qs := make([]models.Question, len(answers))
	for i := range answers {
		a := answers[i]
		qs[i] = models.Question{Text: "Q", Options: []string{"A", "B"}, Answer: &a}
	}
	q := models.Quiz{
		ID:              primitive.NewObjectID(),
		Title:           title,
		Topic:           "aptitude",
		DurationMinutes: durationMinutes,
		Questions:       qs,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.insert(ctx, "quizzes", q)
	return q
}

// CreateProblem inserts a problem with the given samples and hidden tests.
func (f *Fixtures) CreateProblem(ctx context.Context, title, slug string, samples, tests []models.TestCase) models.Problem {
	f.t.Helper()
	now := time.Now().UTC()
	p := models.Problem{
		ID:         primitive.NewObjectID(),
		Title:      title,
		Slug:       slug,
		Difficulty: models.DifficultyEasy,
		Statement:  "Add two numbers.",
		Samples:    samples,
		Tests:      tests,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "problems", p)
	return p
}
