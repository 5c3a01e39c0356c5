package llm

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.New("").Funcs(template.FuncMap{
	"join": strings.Join,
}).ParseFS(promptFS, "prompts/*.tmpl"))

// Prompt names.
const (
	PromptATS                = "ats.tmpl"
	PromptInterviewQuestions = "interview_questions.tmpl"
	PromptInterviewFeedback  = "interview_feedback.tmpl"
	PromptCommunication      = "communication.tmpl"
	PromptProctor            = "proctor.tmpl"
)

// SystemJSON is the system prompt used for every structured request.
const SystemJSON = "You are a precise assistant for a university placement cell. " +
	"Respond with a single JSON object only, no markdown and no commentary."

// Render executes the named prompt template.
func Render(name string, data any) (string, error) {
	var b strings.Builder
	if err := prompts.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("llm: render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}
