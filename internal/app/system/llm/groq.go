package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	groqBaseURL            = "https://api.groq.com/openai/v1"
	defaultGroqModel       = "llama-3.3-70b-versatile"
	defaultGroqVisionModel = "meta-llama/llama-4-scout-17b-16e-instruct"
)

// Groq is a Client for Groq's OpenAI-compatible chat completions API.
type Groq struct {
	client      *openai.Client
	model       string
	visionModel string
}

// NewGroq creates a Groq client. Empty model names use the defaults; an empty
// baseURL uses the public API root.
func NewGroq(apiKey, model, visionModel, baseURL string) *Groq {
	if model == "" {
		model = defaultGroqModel
	}
	if visionModel == "" {
		visionModel = defaultGroqVisionModel
	}
	if baseURL == "" {
		baseURL = groqBaseURL
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: 90 * time.Second}
	return &Groq{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		visionModel: visionModel,
	}
}

func (c *Groq) buildRequest(req Request) openai.ChatCompletionRequest {
	body := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: float32(req.Temperature),
	}
	if req.System != "" {
		body.Messages = append(body.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	if len(req.Images) == 0 {
		body.Messages = append(body.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.Prompt,
		})
	} else {
		body.Model = c.visionModel
		parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: req.Prompt}}
		for _, img := range req.Images {
			dataURL := "data:" + img.MIME + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
			})
		}
		body.Messages = append(body.Messages, openai.ChatCompletionMessage{
			Role:         openai.ChatMessageRoleUser,
			MultiContent: parts,
		})
	}

	if req.JSON {
		body.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return body
}

// Complete sends req and returns the first choice's content.
func (c *Groq) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(req))
	if err != nil {
		var apiErr *openai.APIError
		var reqErr *openai.RequestError
		switch {
		case errors.As(err, &apiErr):
			return "", fmt.Errorf("groq API returned status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		case errors.As(err, &reqErr):
			return "", fmt.Errorf("groq API returned status %d: %w", reqErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("groq request failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
