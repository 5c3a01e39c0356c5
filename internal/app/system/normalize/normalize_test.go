package normalize

import (
	"reflect"
	"testing"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"po@college.edu", true},
		{"  PO.Cell+2026@College.Edu ", true},
		{"Bob Admin <bob@college.edu>", false},
		{"bob admin@college.edu", false},
		{"bob@localhost", false},
		{"college.edu", false},
		{"@college.edu", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ValidEmail(tt.input); got != tt.want {
				t.Errorf("ValidEmail(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Asha Rao", "Asha Rao"},
		{"  Asha   Rao  ", "Asha Rao"},
		{"", ""},
		{"UPPER CASE", "UPPER CASE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRollNoAndBranch(t *testing.T) {
	if got := RollNo(" 21 cs 042 "); got != "21CS042" {
		t.Errorf("RollNo = %q", got)
	}
	if got := Branch(" cse "); got != "CSE" {
		t.Errorf("Branch = %q", got)
	}
}

func TestBranches(t *testing.T) {
	got := Branches([]string{"cse", " CSE", "", "ece"})
	want := []string{"CSE", "ECE"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Branches = %v, want %v", got, want)
	}
}

func TestSkills(t *testing.T) {
	got := Skills([]string{"Go", " go ", "React  Native", ""})
	want := []string{"Go", "React Native"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Skills = %v, want %v", got, want)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Two Sum":           "two-sum",
		"  Longest--Path! ": "longest-path",
		"LRU Cache II":      "lru-cache-ii",
		"":                  "",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
