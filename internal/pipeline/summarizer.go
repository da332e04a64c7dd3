package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// summarySystemPrompt shapes the summary for students reviewing a lesson.
const summarySystemPrompt = `You summarize recorded classroom sessions. Given a lesson transcription, produce markdown with these sections:

## Overview
A short 2-3 sentence overview of the session.

## Key Points
Bullet points of the main topics covered.

## Definitions
Any terms that were defined, with their definitions.

## Action Items
Any homework, follow-ups, or tasks assigned.

If a section has no content, omit it.`

// TextSummarizer submits the transcription to an external text-generation
// API (messages-style request) and uses its verbatim text response as the
// summary.
type TextSummarizer struct {
	apiKey string
	url    string
	model  string
	client *http.Client
}

// NewTextSummarizer creates a live summarization backend.
func NewTextSummarizer(apiKey, url, model string, client *http.Client) *TextSummarizer {
	if client == nil {
		client = http.DefaultClient
	}
	return &TextSummarizer{
		apiKey: apiKey,
		url:    url,
		model:  model,
		client: client,
	}
}

// Live reports that this backend performs a real external call.
func (s *TextSummarizer) Live() bool {
	return true
}

// Summarize sends the transcription to the backend and returns its text
// response.
func (s *TextSummarizer) Summarize(ctx context.Context, sessionID, transcription string) (string, error) {
	reqBody := messagesRequest{
		Model:     s.model,
		MaxTokens: 4096,
		System:    summarySystemPrompt,
		Messages: []message{
			{
				Role:    "user",
				Content: "Here is the session transcription to summarize:\n\n" + transcription,
			},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", s.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling summary API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading summary API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summary API error (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp messagesResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("parsing summary API response: %w", err)
	}

	var summary string
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			summary += block.Text
		}
	}
	if summary == "" {
		return "", fmt.Errorf("empty response from summary API")
	}

	return summary, nil
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}
