// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// ResetEmailData feeds the password reset templates.
type ResetEmailData struct {
	SiteName  string
	Name      string
	Code      string
	ResetLink string
	ExpiresIn string // "15 minutes"
}

// BuildPasswordResetEmail renders the reset-code email. To is set by the caller.
func BuildPasswordResetEmail(data ResetEmailData) Email {
	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n", data.Name)
	fmt.Fprintf(&text, "Your %s password reset code is: %s\n\n", data.SiteName, data.Code)
	if data.ResetLink != "" {
		fmt.Fprintf(&text, "Enter it at %s\n\n", data.ResetLink)
	}
	fmt.Fprintf(&text, "The code expires in %s.\n", data.ExpiresIn)
	text.WriteString("If you did not ask for a reset you can ignore this email.\n")

	return Email{
		Subject:  fmt.Sprintf("Your %s password reset code", data.SiteName),
		TextBody: text.String(),
		HTMLBody: render(resetTmpl, data),
	}
}

// StatusEmailData feeds the application status templates.
type StatusEmailData struct {
	SiteName string
	Name     string
	Company  string
	Role     string
	Status   string
	Link     string
}

// BuildApplicationStatusEmail tells a student their application moved to a new status.
func BuildApplicationStatusEmail(data StatusEmailData) Email {
	text := fmt.Sprintf("Hi %s,\n\nYour application for %s at %s is now: %s.\n\nDetails: %s\n",
		data.Name, data.Role, data.Company, strings.ToUpper(data.Status), data.Link)
	return Email{
		Subject:  fmt.Sprintf("%s: application update from %s", data.SiteName, data.Company),
		TextBody: text,
		HTMLBody: render(statusTmpl, data),
	}
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}

var resetTmpl = template.Must(template.New("reset").Parse(layoutOpen + `
<p style="margin:0 0 16px;font-size:16px;color:#374151;">Hi {{.Name}},</p>
<p style="margin:0 0 24px;font-size:16px;color:#374151;">Your password reset code is:</p>
<div style="background:#f3f4f6;border-radius:8px;padding:24px;text-align:center;margin-bottom:24px;">
  <span style="font-size:32px;font-weight:700;letter-spacing:8px;color:#1f2937;font-family:'Courier New',monospace;">{{.Code}}</span>
</div>
{{if .ResetLink}}<p style="margin:0 0 24px;text-align:center;"><a href="{{.ResetLink}}" style="display:inline-block;padding:12px 28px;background:#0f766e;color:#fff;text-decoration:none;border-radius:6px;">Reset password</a></p>{{end}}
<p style="margin:0;font-size:13px;color:#9ca3af;text-align:center;">This code expires in {{.ExpiresIn}}. If you did not ask for a reset, ignore this email.</p>
` + layoutClose))

var statusTmpl = template.Must(template.New("status").Parse(layoutOpen + `
<p style="margin:0 0 16px;font-size:16px;color:#374151;">Hi {{.Name}},</p>
<p style="margin:0 0 24px;font-size:16px;color:#374151;">Your application for <strong>{{.Role}}</strong> at <strong>{{.Company}}</strong> is now
<span style="font-weight:700;text-transform:uppercase;">{{.Status}}</span>.</p>
{{if .Link}}<p style="margin:0;text-align:center;"><a href="{{.Link}}" style="display:inline-block;padding:12px 28px;background:#0f766e;color:#fff;text-decoration:none;border-radius:6px;">View applications</a></p>{{end}}
` + layoutClose))

const layoutOpen = `<!DOCTYPE html>
<html><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;background:#f3f4f6;">
<table role="presentation" width="100%" cellspacing="0" cellpadding="0"><tr><td align="center" style="padding:40px 20px;">
<table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width:480px;background:#fff;border-radius:8px;">
<tr><td style="padding:28px 32px;text-align:center;border-bottom:1px solid #e5e7eb;"><h1 style="margin:0;font-size:22px;color:#0f766e;">{{.SiteName}}</h1></td></tr>
<tr><td style="padding:32px;">`

const layoutClose = `</td></tr></table></td></tr></table></body></html>`
