package mailer

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestBuild_MultipartAlternative(t *testing.T) {
	m := New(Config{From: "noreply@placement.test", FromName: "Placement Cell"}, zap.NewNop())
	msg, err := m.build(Email{To: "s@x.com", Subject: "Hello", TextBody: "plain\nline", HTMLBody: "<p>html</p>"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	s := string(msg)
	for _, want := range []string{
		`From: "Placement Cell" <noreply@placement.test>`,
		"To: s@x.com",
		"multipart/alternative",
		"text/plain; charset=utf-8",
		"text/html; charset=utf-8",
		"plain\r\nline",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestBuild_RejectsBadRecipient(t *testing.T) {
	m := New(Config{From: "a@b.c"}, zap.NewNop())
	for _, to := range []string{"not an address", "Bob <bob@college.edu>", "bob@localhost", ""} {
		if _, err := m.build(Email{To: to, TextBody: "x"}); err == nil {
			t.Errorf("expected error for recipient %q", to)
		}
	}
}

func TestBuildPasswordResetEmail(t *testing.T) {
	e := BuildPasswordResetEmail(ResetEmailData{
		SiteName: "PlacementHub", Name: "Asha", Code: "123456", ExpiresIn: "15 minutes",
	})
	if !strings.Contains(e.Subject, "PlacementHub") {
		t.Errorf("subject = %q", e.Subject)
	}
	for _, body := range []string{e.TextBody, e.HTMLBody} {
		if !strings.Contains(body, "123456") || !strings.Contains(body, "15 minutes") {
			t.Errorf("body missing code or expiry: %q", body)
		}
	}
}

func TestBuildApplicationStatusEmail_EscapesHTML(t *testing.T) {
	e := BuildApplicationStatusEmail(StatusEmailData{
		SiteName: "PlacementHub", Name: "<b>x</b>", Company: "Acme", Role: "SDE", Status: "selected",
	})
	if strings.Contains(e.HTMLBody, "<b>x</b>") {
		t.Error("name was not escaped in HTML body")
	}
	if !strings.Contains(e.TextBody, "SELECTED") {
		t.Errorf("text body = %q", e.TextBody)
	}
}
