package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"inline fence", "```{\"a\":1}```", `{"a":1}`},
		{"whitespace", "  \n{\"a\":1}\n ", `{"a":1}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripFences(tc.in))
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"object", `{"score": 80}`, `{"score": 80}`, false},
		{"prose around", `Sure! Here it is: {"score": 80} Hope that helps.`, `{"score": 80}`, false},
		{"array", `result: [1, 2, 3]`, `[1, 2, 3]`, false},
		{"nested", `{"a": {"b": [1, {"c": 2}]}}`, `{"a": {"b": [1, {"c": 2}]}}`, false},
		{"braces in strings", `{"s": "a } b { c"}`, `{"s": "a } b { c"}`, false},
		{"escaped quote", `{"s": "say \"hi\" }"}`, `{"s": "say \"hi\" }"}`, false},
		{"skips invalid first", `{not json} then {"ok": true}`, `{"ok": true}`, false},
		{"fenced with prose", "```json\n{\"x\": 1}\n```", `{"x": 1}`, false},
		{"none", `no json here`, "", true},
		{"unbalanced", `{"a": 1`, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrNoJSON)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type verdict struct {
		Flagged bool   `json:"flagged"`
		Reason  string `json:"reason"`
	}
	v, err := DecodeJSON[verdict]("The answer is ```json\n{\"flagged\": true, \"reason\": \"phone visible\"}\n```")
	require.NoError(t, err)
	assert.True(t, v.Flagged)
	assert.Equal(t, "phone visible", v.Reason)

	_, err = DecodeJSON[verdict](`{"flagged": "maybe"}`)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	out, err := Render(PromptInterviewQuestions, map[string]any{
		"Count": 5, "Level": "fresher", "Role": "Backend Engineer", "Skills": []string{"Go", "SQL"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Generate 5 interview questions")
	assert.Contains(t, out, "Go, SQL")

	for _, name := range []string{PromptATS, PromptInterviewFeedback, PromptCommunication, PromptProctor} {
		_, err := Render(name, map[string]any{})
		assert.NoError(t, err, name)
	}
}

func TestGroq_Complete(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		ResponseFormat *struct {
			Type string `json:"type"`
		} `json:"response_format"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"score\": 70}"}}]}`))
	}))
	defer srv.Close()

	c := NewGroq("test-key", "", "", srv.URL)
	out, err := c.Complete(context.Background(), Request{System: "sys", Prompt: "hi", JSON: true, Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, `{"score": 70}`, out)

	assert.Equal(t, defaultGroqModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hi", got.Messages[1].Content)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestGroq_VisionUsesImageParts(t *testing.T) {
	c := NewGroq("k", "text-model", "vision-model", "http://unused")
	body := c.buildRequest(Request{Prompt: "look", Images: []Image{{MIME: "image/png", Data: []byte{1, 2, 3}}}})

	assert.Equal(t, "vision-model", body.Model)
	require.Len(t, body.Messages, 1)
	parts := body.Messages[0].MultiContent
	require.Len(t, parts, 2)
	assert.Empty(t, body.Messages[0].Content)
	assert.Equal(t, openai.ChatMessagePartTypeImageURL, parts[1].Type)
	assert.True(t, strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,"))
}

func TestGroq_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	_, err := NewGroq("k", "", "", srv.URL).Complete(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestGroq_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewGroq("k", "", "", srv.URL).Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNew_Providers(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, Config{Provider: "groq"}, zap.NewNop())
	require.NoError(t, err)
	_, err = c.Complete(ctx, Request{})
	assert.True(t, errors.Is(err, ErrNotConfigured))

	c, err = New(ctx, Config{Provider: "groq", GroqAPIKey: "k"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Groq{}, c)

	_, err = New(ctx, Config{Provider: "openai"}, zap.NewNop())
	assert.Error(t, err)
}
