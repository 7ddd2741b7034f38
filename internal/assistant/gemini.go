// Package assistant wraps the Gemini text-generation collaborator behind a
// single Reply call. Failures here are never fatal; the chat service folds
// them into a canned fallback reply.
package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

var ErrEmptyReply = errors.New("assistant returned no text")

type Client struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

// NewClient builds a Gemini-backed client. Credentials come from the
// environment (GEMINI_API_KEY / GOOGLE_API_KEY), the genai default.
func NewClient(ctx context.Context, model string, log zerolog.Logger) (*Client, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		client: client,
		model:  model,
		log:    log.With().Str("client", "gemini").Logger(),
	}, nil
}

func (c *Client) Reply(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyReply
	}
	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
