// Package summarize generates natural-language summaries of LinkedIn
// export documents using the Gemini API.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// MaxInputChars caps the document length sent to the model. Exports can
// carry years of message history; the summary only needs the head.
const MaxInputChars = 400_000

const defaultModel = "gemini-2.0-flash"

const promptTemplate = `You are a career analyst. Below is a LinkedIn data export,
split into labeled sections. Write a concise professional summary of this
person's network and activity: who they are connected to, what industries
and companies dominate their network, how active they are, and two or
three concrete suggestions for getting more value from their network.
Write in second person. Do not repeat raw CSV rows.

%s`

// Gemini summarizes export documents through the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	logger zerolog.Logger
}

// New creates a Gemini summarizer. Model falls back to a default when empty.
func New(ctx context.Context, apiKey, model string, logger zerolog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("summarize: api key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize: create client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  model,
		logger: logger.With().Str("component", "summarize").Logger(),
	}, nil
}

// Summarize sends the labeled document to the model and returns its free
// text. Input beyond MaxInputChars is truncated before sending.
func (g *Gemini) Summarize(ctx context.Context, document string) (string, error) {
	document = Truncate(document, MaxInputChars)
	if strings.TrimSpace(document) == "" {
		return "", errors.New("summarize: empty document")
	}

	prompt := fmt.Sprintf(promptTemplate, document)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("summarize: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("summarize: model returned no text")
	}

	g.logger.Debug().Int("input_chars", len(document)).Int("output_chars", len(text)).Msg("summary generated")
	return text, nil
}

// Truncate cuts s to at most max bytes, breaking at the last newline
// within the window when one exists so a CSV row is never split mid-line.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut
}
