package models

import (
	"testing"
	"time"
)

func TestCompanyIneligibleReasons(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	open := Company{Status: CompanyOpen, Deadline: now.Add(time.Hour), MinCGPA: 7, Branches: []string{"CSE", "IT"}}

	tests := []struct {
		name    string
		company Company
		student Student
		want    int
	}{
		{"eligible", open, Student{CGPA: 7, Branch: "cse"}, 0},
		{"low cgpa", open, Student{CGPA: 6.99, Branch: "CSE"}, 1},
		{"wrong branch", open, Student{CGPA: 9, Branch: "ECE"}, 1},
		{"all branches", Company{Status: CompanyOpen, Deadline: now.Add(time.Hour)}, Student{Branch: "MECH"}, 0},
		{"closed and late", Company{Status: CompanyClosed, Deadline: now}, Student{}, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.company.IneligibleReasons(tc.student, now); len(got) != tc.want {
				t.Errorf("got %v, want %d reasons", got, tc.want)
			}
		})
	}
}

func TestQuizOpenAtAndForStudent(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)
	ans := 1
	q := Quiz{Active: true, Questions: []Question{{Text: "2+2", Options: []string{"3", "4"}, Answer: &ans}}}

	if !q.OpenAt(now) {
		t.Error("active quiz without window should be open")
	}
	q.StartsAt = &later
	if q.OpenAt(now) {
		t.Error("quiz before its start should be closed")
	}
	q.StartsAt, q.EndsAt = &earlier, &now
	if q.OpenAt(now) {
		t.Error("quiz at its end instant should be closed")
	}

	s := q.ForStudent()
	if s.Questions[0].Answer != nil {
		t.Error("answer leaked to student view")
	}
	if q.Questions[0].Answer == nil {
		t.Error("ForStudent mutated the original")
	}
}

func TestAnnouncementVisibleAt(t *testing.T) {
	now := time.Now()
	past, future := now.Add(-time.Minute), now.Add(time.Minute)

	tests := []struct {
		name string
		a    Announcement
		want bool
	}{
		{"inactive", Announcement{Active: false}, false},
		{"no window", Announcement{Active: true}, true},
		{"not started", Announcement{Active: true, StartsAt: &future}, false},
		{"ended", Announcement{Active: true, EndsAt: &past}, false},
		{"in window", Announcement{Active: true, StartsAt: &past, EndsAt: &future}, true},
	}
	for _, tc := range tests {
		if got := tc.a.VisibleAt(now); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestQuizGradeAndLate(t *testing.T) {
	a0, a1 := 0, 1
	q := Quiz{DurationMinutes: 10, Questions: []Question{
		{Options: []string{"a", "b"}, Answer: &a0},
		{Options: []string{"a", "b"}, Answer: &a1},
		{Options: []string{"a", "b"}, Answer: &a1},
	}}

	tests := []struct {
		answers []int
		want    int
	}{
		{nil, 0},
		{[]int{0, 1, 1}, 3},
		{[]int{0, 0}, 1},
		{[]int{1, 1, 1, 1, 1}, 2},
		{[]int{-1, 5, 1}, 1},
	}
	for _, tc := range tests {
		score, total := q.Grade(tc.answers)
		if score != tc.want || total != 3 {
			t.Errorf("Grade(%v) = %d/%d, want %d/3", tc.answers, score, total, tc.want)
		}
	}

	start := time.Now()
	if q.IsLate(start, start.Add(10*time.Minute+30*time.Second)) {
		t.Error("submission inside grace marked late")
	}
	if !q.IsLate(start, start.Add(10*time.Minute+31*time.Second)) {
		t.Error("submission past grace not marked late")
	}
}
